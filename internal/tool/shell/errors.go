package shell

import (
	"fmt"
	"time"
)

// TimeoutError is returned when a shell command exceeds its timeout.
type TimeoutError struct {
	Command  string
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("shell command %q timed out after %v", e.Command, e.Duration)
}

func (e *TimeoutError) Timeout() bool {
	return true
}

// CommandRequiredError is returned when a command is missing.
type CommandRequiredError struct{}

func (e *CommandRequiredError) Error() string {
	return "command cannot be empty"
}

func (e *CommandRequiredError) InvalidInput() bool {
	return true
}
