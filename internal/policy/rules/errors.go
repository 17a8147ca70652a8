package rules

import "fmt"

// RuleError is returned when a configured rule cannot be compiled.
// The rule stays in the set and keeps reporting the error on every match.
type RuleError struct {
	Rule  string
	Cause error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("invalid rule %q: %v", e.Rule, e.Cause)
}
func (e *RuleError) Unwrap() error { return e.Cause }
