package path

import (
	"errors"
	"fmt"
)

// -- Error Types --

// ResolveError is returned when a path cannot be made absolute.
type ResolveError struct {
	Path  string
	Cause error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("failed to resolve path %s: %v", e.Path, e.Cause)
}
func (e *ResolveError) Unwrap() error { return e.Cause }

// -- Sentinels --

var (
	ErrEmptyPath   = errors.New("path is empty")
	ErrHomeNotSet  = errors.New("home directory not set")
)
