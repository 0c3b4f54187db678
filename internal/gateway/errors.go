package gateway

import (
	"fmt"
	"net/http"
)

// ErrSessionExpired is returned for any gateway call answered with 401.
// The local session has already been cleared when it is returned.
type ErrSessionExpired struct {
	Method        string
	Path          string
	CorrelationID string
}

func (e *ErrSessionExpired) Error() string {
	return fmt.Sprintf("session expired or invalid (%s %s)", e.Method, e.Path)
}

// APIError is a non-success gateway response other than 401.
type APIError struct {
	StatusCode    int    `json:"-"`
	Code          string `json:"error"`
	Message       string `json:"message"`
	Timestamp     string `json:"timestamp"`
	CorrelationID string `json:"correlationId"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, msg)
}

// IsForbidden reports whether the call was rejected for lack of the ADMIN role.
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether the resource does not exist.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
