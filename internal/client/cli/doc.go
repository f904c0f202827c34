// Package cli provides the interactive postbox command-line client.
//
// It wires configuration, the gRPC client, a local SQLite cache and a REPL.
// A background watcher pings the server and flips the prompt between online
// and offline; while offline, list and show answer from the cache.
//
// Commands:
//   - register / login / logout (logout also wipes the cache)
//   - list [page]      four posts per page, newest first
//   - show <id>        also prints an image download link when online
//   - create           prompts for title, content and an optional image key
//   - edit <id>        empty answers keep the current values
//   - delete <id>
//   - upload <file>    stores a local image and prints its key
//   - upload-url       presigned PUT URL for a new image
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
