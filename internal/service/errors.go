package service

import "errors"

// Error kinds surfaced to the transport layer. Operations wrap them with
// context; callers test with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrValidation      = errors.New("validation rejected")
	ErrPersistence     = errors.New("persistence failure")
	ErrConflict        = errors.New("conflict")
)
