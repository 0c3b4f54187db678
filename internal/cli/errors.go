package cli

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"ems/internal/auth"
	"ems/internal/gateway"
	"ems/pkg/oauth"
)

// ConnectionErrorType categorizes the type of connection error.
type ConnectionErrorType int

const (
	// ConnectionErrorUnknown indicates an unclassified connection error.
	ConnectionErrorUnknown ConnectionErrorType = iota
	// ConnectionErrorTLS indicates a TLS/certificate verification error.
	ConnectionErrorTLS
	// ConnectionErrorNetwork indicates a refused or unreachable endpoint.
	ConnectionErrorNetwork
	// ConnectionErrorTimeout indicates a connection timeout.
	ConnectionErrorTimeout
	// ConnectionErrorDNS indicates a DNS resolution failure.
	ConnectionErrorDNS
)

// String returns a human-readable name for the connection error type.
func (t ConnectionErrorType) String() string {
	switch t {
	case ConnectionErrorTLS:
		return "TLS certificate error"
	case ConnectionErrorNetwork:
		return "Network error"
	case ConnectionErrorTimeout:
		return "Connection timeout"
	case ConnectionErrorDNS:
		return "DNS resolution error"
	default:
		return "Connection error"
	}
}

// ConnectionError indicates that the gateway or the identity provider
// could not be reached.
type ConnectionError struct {
	// Endpoint is the URL that could not be reached.
	Endpoint string
	// Type categorizes the connection error.
	Type ConnectionErrorType
	// Reason is the underlying error.
	Reason error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s reaching %s: %v", e.Type, e.Endpoint, e.Reason)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Reason
}

// ClassifyConnectionError analyzes an error and returns a ConnectionError with the appropriate type.
// If the error is nil, returns nil.
func ClassifyConnectionError(err error, endpoint string) *ConnectionError {
	if err == nil {
		return nil
	}

	connErr := &ConnectionError{Endpoint: endpoint, Type: ConnectionErrorUnknown, Reason: err}

	var dnsErr *net.DNSError
	switch {
	case isTLSError(err):
		connErr.Type = ConnectionErrorTLS
	case errors.As(err, &dnsErr):
		connErr.Type = ConnectionErrorDNS
	case isTimeoutError(err):
		connErr.Type = ConnectionErrorTimeout
	case isNetworkError(err.Error()):
		connErr.Type = ConnectionErrorNetwork
	}
	return connErr
}

func isTLSError(err error) bool {
	var certErr *x509.CertificateInvalidError
	var hostErr *x509.HostnameError
	var unknownAuthErr *x509.UnknownAuthorityError
	if errors.As(err, &certErr) || errors.As(err, &hostErr) || errors.As(err, &unknownAuthErr) {
		return true
	}

	errStr := err.Error()
	for _, keyword := range []string{"x509:", "certificate", "tls:", "TLS handshake"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

func isNetworkError(errStr string) bool {
	for _, keyword := range []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
	} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// AuthRequiredError indicates that a command needs a session and there is none.
type AuthRequiredError struct {
	// Endpoint is the service that requires authentication.
	Endpoint string
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf(`Authentication required for %s

To authenticate, run:
  ems auth login

To check current authentication status:
  ems auth status`, e.Endpoint)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthRequiredError) Is(target error) bool {
	_, ok := target.(*AuthRequiredError)
	return ok
}

// AuthExpiredError indicates that the gateway rejected the session. The
// local session has been cleared.
type AuthExpiredError struct {
	// Endpoint is the service that rejected the token.
	Endpoint string
	// CorrelationID identifies the rejected request in gateway logs.
	CorrelationID string
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthExpiredError) Error() string {
	msg := fmt.Sprintf(`Your session has expired or was revoked (%s)

To sign in again, run:
  ems auth login`, e.Endpoint)
	if e.CorrelationID != "" {
		msg += "\n\nCorrelation ID: " + e.CorrelationID
	}
	return msg
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthExpiredError) Is(target error) bool {
	_, ok := target.(*AuthExpiredError)
	return ok
}

// AuthFailedError indicates that a login attempt failed.
type AuthFailedError struct {
	// Endpoint is the identity provider issuer.
	Endpoint string
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthFailedError) Error() string {
	reason := auth.FailureMessage(e.Reason)
	if errors.Is(e.Reason, auth.ErrLoginTimeout) {
		reason = auth.ErrLoginTimeout.Error()
	}
	return fmt.Sprintf(`Authentication failed at %s: %s

To retry authentication, run:
  ems auth login --force`, e.Endpoint, reason)
}

// Unwrap returns the underlying error.
func (e *AuthFailedError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthFailedError) Is(target error) bool {
	_, ok := target.(*AuthFailedError)
	return ok
}

// ForbiddenError indicates an operation was refused for lack of the ADMIN
// role. Reason is set when the gateway refused it; a nil Reason means the
// session was checked locally and no request was sent.
type ForbiddenError struct {
	Operation string
	User      string
	Reason    *gateway.APIError
}

func (e *ForbiddenError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("%s requires the ADMIN role: %s", e.Operation, e.Reason.Message)
	}
	if e.User != "" {
		return fmt.Sprintf("%s requires the ADMIN role (signed in as %s)", e.Operation, e.User)
	}
	return fmt.Sprintf("%s requires the ADMIN role", e.Operation)
}

// Unwrap returns the gateway error, if any.
func (e *ForbiddenError) Unwrap() error {
	if e.Reason == nil {
		return nil
	}
	return e.Reason
}

// TranslateError turns errors from the session, login and gateway layers
// into the CLI error types above. endpoint names the service the command
// talked to. Errors it does not recognize are returned unchanged.
func TranslateError(err error, endpoint, operation string) error {
	if err == nil {
		return nil
	}

	var expired *gateway.ErrSessionExpired
	if errors.As(err, &expired) {
		return &AuthExpiredError{Endpoint: endpoint, CorrelationID: expired.CorrelationID}
	}

	var loginErr *auth.LoginError
	var exchangeErr *oauth.ExchangeError
	if errors.As(err, &loginErr) || errors.As(err, &exchangeErr) || errors.Is(err, auth.ErrLoginTimeout) {
		return &AuthFailedError{Endpoint: endpoint, Reason: err}
	}

	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		if apiErr.IsForbidden() && operation != "" {
			return &ForbiddenError{Operation: operation, Reason: apiErr}
		}
		return err
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassifyConnectionError(err, endpoint)
	}
	return err
}

// IsAuthError reports whether err asks the user to sign in again.
func IsAuthError(err error) bool {
	return errors.Is(err, &AuthRequiredError{}) || errors.Is(err, &AuthExpiredError{}) || errors.Is(err, &AuthFailedError{})
}
