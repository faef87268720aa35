package backend

import (
	"errors"
	"fmt"
)

// ErrEmptyResult indicates the backend answered without result or message.
var ErrEmptyResult = errors.New("backend returned empty result")

// APIError is a failure the backend reported explicitly, either through a
// non-2xx status or a non-empty envelope message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend request failed with status %d: %s", e.StatusCode, e.Message)
}

// IsClientError reports whether the backend rejected the request itself
// (4xx) rather than failing to serve it.
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
