// Package common contains shared constants and sentinel errors used across
// postbox components.
package common

// AuthorizationHeaderName is the gRPC metadata key used to carry the
// session token on outbound requests.
const AuthorizationHeaderName = "authorization"

// BearerPrefix precedes the token in the authorization metadata value.
const BearerPrefix = "Bearer "
