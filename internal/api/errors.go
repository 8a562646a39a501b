package api

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when a session issues a data request before
// a successful sign-in.
var ErrNotAuthenticated = errors.New("session is not authenticated; sign in first")

// ErrNotFound is returned when a requested item (e.g. the credit score) is
// absent from the service response.
var ErrNotFound = errors.New("not found")

// TransportError is a non-2xx HTTP response from the service.
type TransportError struct {
	StatusCode int
	URL        string
	Body       string // snippet, capped
}

func (e *TransportError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("request to %s failed with status %d: %s", e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
}

// SchemaMismatchError indicates a response lacked the data key the endpoint
// descriptor declares.
type SchemaMismatchError struct {
	Endpoint Endpoint
	Key      string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("response from %s is missing expected key %q", e.Endpoint.URL(), e.Key)
}
