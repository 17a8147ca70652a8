package executor

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when a command exceeds its timeout.
var ErrTimeout = errors.New("command timeout")

// ErrEmptyCommand is returned when no program is given.
var ErrEmptyCommand = errors.New("empty command")

// CommandError reports a command that could not be started or waited on.
type CommandError struct {
	Cmd   string
	Cause error
	Stage string // "start", "wait"
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed at %s: %v", e.Cmd, e.Stage, e.Cause)
}
func (e *CommandError) Unwrap() error { return e.Cause }
