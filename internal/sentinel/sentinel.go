// Package sentinel holds errors that stores return for infrastructure facts.
// Services translate them into their own error taxonomy.
package sentinel

import "errors"

var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a uniqueness constraint rejected the write.
	ErrConflict = errors.New("conflict")
)
