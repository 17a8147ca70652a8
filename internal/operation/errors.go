package operation

import (
	"errors"
	"fmt"
)

var (
	ErrMissingType     = errors.New("mandatory 'type' attribute missing")
	ErrEmptyPayload    = errors.New("content cannot be empty")
	ErrUnsupportedKind = errors.New("unsupported operation type")
	ErrMissingPath     = errors.New("missing path attribute")
)

// ParseError reports a tag that was found but violated a mandatory constraint.
type ParseError struct {
	Strategy string
	Detail   string
	Cause    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("operation tag parsing error (%s): %v", e.Strategy, e.Cause)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
func (e *ParseError) Unwrap() error { return e.Cause }
