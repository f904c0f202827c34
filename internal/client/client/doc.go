// Package client talks to the postbox server.
//
// GRPCClient implements Client over a single gRPC connection. After a
// successful Login it keeps the session token and attaches it to every call
// as "authorization: Bearer <token>" through a unary interceptor. Logout
// only forgets the token; sessions are stateless on the server.
//
// # Error Handling
//
// gRPC status codes are mapped to sentinel errors that callers match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrForbidden, ErrNotFound,
// ErrAlreadyExists and ErrInvalidArgument. Validation failures come back as
// *ValidationError listing the offending fields.
package client
