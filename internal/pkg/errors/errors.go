package errors

import "errors"

// Sentinel errors returned by services and repos. Handlers map them to
// API error codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid argument")
	ErrConflict     = errors.New("already exists")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal error")
)
