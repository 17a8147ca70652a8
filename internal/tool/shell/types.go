package shell

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Result is the outcome of one shell command. The JSON form is what the
// model receives.
type Result struct {
	Command            string `json:"command"`
	Stdout             string `json:"stdout"`
	Stderr             string `json:"stderr"`
	ExitCode           int    `json:"exit_code"`
	ModifiedFrom       string `json:"modified_from,omitempty"`
	ModificationReason string `json:"modification_reason,omitempty"`

	Truncated bool `json:"-"`
}

// Succeeded reports a zero exit status.
func (r *Result) Succeeded() bool {
	return r.ExitCode == 0
}

// JSON renders the result for the model.
func (r *Result) JSON() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		// Only strings and an int are encoded.
		return fmt.Sprintf(`{"command":%q,"exit_code":%d}`, r.Command, r.ExitCode)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// FailureReason describes a non-zero exit: stderr when present, otherwise
// the status.
func (r *Result) FailureReason() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return fmt.Sprintf("Command exited with non-zero status: %d", r.ExitCode)
}
