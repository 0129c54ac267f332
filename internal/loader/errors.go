package loader

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the loader.
var (
	ErrRequest          = errors.New("upstream request failed")
	ErrDecode           = errors.New("upstream response is not valid JSON")
	ErrUnexpectedStatus = errors.New("upstream returned non-success status")
)

// StatusError is returned when an endpoint answers outside 2xx.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	// Body holds the start of the response body for diagnostics.
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }
