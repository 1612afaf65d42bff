package api

import (
	"errors"
	"fmt"
)

// The client classifies every failure into one of three kinds so callers can
// decide between cache fallback and a user-visible message without string
// matching.

// NetworkError means the request never completed (no connectivity, timeout).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: network error: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response. Message carries the server's `message`
// field when the body parsed, otherwise a generic status line.
type HTTPError struct {
	Op      string
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: server returned %d", e.Op, e.Status)
}

// ParseError is a 2xx response whose body did not decode. Treated like an
// HTTPError for user messaging.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is a NetworkError. Only network failures
// justify serving cached data.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// UserMessage extracts the text worth showing to a user for any client error.
func UserMessage(err error) string {
	var he *HTTPError
	if errors.As(err, &he) && he.Message != "" {
		return he.Message
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return "unexpected response from server"
	}
	if IsNetwork(err) {
		return "network error occurred"
	}
	return err.Error()
}
