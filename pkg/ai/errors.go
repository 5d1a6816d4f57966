package ai

import (
	"errors"
	"fmt"
	"strings"
)

// StatusError reports a completion endpoint that answered with a status
// other than 200.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// TransportError reports a request that never produced a response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "request failed: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a 200 response whose body could not be understood.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "malformed response: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// Diagnostic turns a completion failure into the text shown to the
// terminal peer in place of a reply. It never returns an empty string.
func Diagnostic(err error) string {
	if err == nil {
		return "Error: unknown failure"
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		body := strings.TrimSpace(statusErr.Body)
		if body == "" {
			return fmt.Sprintf("Error %d", statusErr.StatusCode)
		}
		return fmt.Sprintf("Error %d: %s", statusErr.StatusCode, body)
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return "Connection error: " + transportErr.Err.Error()
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return "Error: malformed response: " + decodeErr.Err.Error()
	}

	return "Error: " + err.Error()
}
