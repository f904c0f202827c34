// Package common defines shared constants and sentinel errors used across
// client and server layers of postbox. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Input errors. Details travel in validation.ValidationError.
	ErrValidationFailed = errors.New("validation failed")

	// Authentication / authorization errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrForbidden          = errors.New("forbidden")

	// ErrUserNotFound is returned when a verified identity points at a user
	// record that no longer exists.
	ErrUserNotFound = errors.New("user not found")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
