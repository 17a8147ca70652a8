// Package policy decides whether a requested operation may run, asking the
// user when rules neither allow nor forbid it.
package policy

import "github.com/Cyclone1070/q/internal/operation"

// Outcome is the result class of an approval request.
type Outcome int

const (
	Approved Outcome = iota
	Denied
	Cancelled
	Custom
)

func (o Outcome) String() string {
	switch o {
	case Approved:
		return "approved"
	case Denied:
		return "denied"
	case Cancelled:
		return "cancelled"
	case Custom:
		return "custom"
	default:
		return "unknown"
	}
}

// Decision is the answer to one approval request.
type Decision struct {
	Outcome Outcome
	// Reason explains a denial.
	Reason string
	// Key is the selected custom choice.
	Key string
}

func approve() Decision { return Decision{Outcome: Approved} }
func deny(reason string) Decision { return Decision{Outcome: Denied, Reason: reason} }
func cancel() Decision { return Decision{Outcome: Cancelled} }
func customChoice(key string) Decision { return Decision{Outcome: Custom, Key: key} }

// Choice is an extra prompt option offered next to Yes/No/Cancel/All.
type Choice struct {
	Key   string // single letter, e.g. "m"
	Label string // shown to the user, e.g. "Modify[m]"
}

// Request describes one operation awaiting approval.
type Request struct {
	Kind operation.Kind
	// Target is the command line, path or URL.
	Target string
	// Body is the content about to be written, used for previews.
	Body string
	// Custom is offered as an additional prompt choice when set.
	Custom *Choice
}
