// Package posts keeps a local SQLite copy of posts the CLI has fetched, so
// list and show keep working while the server is unreachable.
//
// Pages are stored as an ordered list of post ids plus the total count the
// server reported, so an offline page renders exactly as it was last seen.
// All timestamps are stored as RFC 3339 text in UTC.
package posts
