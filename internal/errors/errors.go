package errors

import "errors"

// Domain error kinds. Services wrap these with %w and the handler layer maps
// them onto HTTP status codes.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidState      = errors.New("operation not allowed in current state")
	ErrInsufficientStock = errors.New("insufficient tickets available")
	ErrExpired           = errors.New("record has expired")
	ErrConflict          = errors.New("conflicting operation")
	ErrValidation        = errors.New("validation failed")

	ErrUnauthorized = errors.New("user is not authorized")
	ErrForbidden    = errors.New("operation is forbidden for user")
)
