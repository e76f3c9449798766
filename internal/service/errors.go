// internal/service/errors.go
package service

import "errors"

// Sentinel errors wrapped into service error chains so the HTTP layer
// can map them to status codes with errors.Is.
var (
	// ErrValidation marks a request that failed input validation.
	ErrValidation = errors.New("validation failed")

	// ErrAlreadyExists marks registration against a taken printer name.
	ErrAlreadyExists = errors.New("already exists")

	// ErrConnected marks mutations blocked while a session is open.
	ErrConnected = errors.New("connected")

	// ErrNotConnected marks operations that need an open session.
	ErrNotConnected = errors.New("not connected")
)
