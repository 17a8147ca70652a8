package session

import (
	"errors"
	"fmt"
)

// ErrNoSession means there is nothing to recover.
var ErrNoSession = errors.New("no saved session")

// SaveError reports a failure writing or removing the session file.
type SaveError struct {
	Path  string
	Cause error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save session %s: %v", e.Path, e.Cause)
}
func (e *SaveError) Unwrap() error { return e.Cause }

// LoadError reports an unreadable or corrupt session file.
type LoadError struct {
	Path  string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load session %s: %v", e.Path, e.Cause)
}
func (e *LoadError) Unwrap() error { return e.Cause }
