// Package common defines shared constants and sentinel errors used across
// the messagely server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound            = errors.New("not found")
	ErrorConflict            = errors.New("already exists")
	ErrorConstraintViolation = errors.New("constraint violation")

	// Service-level errors.
	ErrorInternal           = errors.New("internal error")
	ErrorValidation         = errors.New("validation error")
	ErrorInvalidCredentials = errors.New("invalid username or password")
	ErrorInvalidCode        = errors.New("invalid verification code")
	ErrorTooManyRequests    = errors.New("too many requests")

	// Access-control errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Upstream (database or SMS provider) unreachable or failing.
	ErrorUpstream = errors.New("upstream failure")
)
