package fetch

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL = errors.New("invalid URL")
	// ErrRedirectBlocked wraps a guard refusal of a redirect hop.
	ErrRedirectBlocked = errors.New("redirect blocked")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// RequestError wraps transport failures: DNS, connect, TLS, timeouts.
type RequestError struct {
	URL   string
	Cause error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("error fetching %s: %v", e.URL, e.Cause)
}
func (e *RequestError) Unwrap() error { return e.Cause }

// JSONError is returned when a JSON content type carries an undecodable body.
type JSONError struct {
	URL   string
	Cause error
}

func (e *JSONError) Error() string {
	return fmt.Sprintf("Error parsing JSON response: %v", e.Cause)
}
func (e *JSONError) Unwrap() error { return e.Cause }
