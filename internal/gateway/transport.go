package gateway

import (
	"io"
	"net/http"

	"github.com/google/uuid"

	"ems/internal/session"
	"ems/pkg/logging"
)

// CorrelationHeader carries the request correlation ID the gateway logs.
const CorrelationHeader = "X-Correlation-Id"

// Transport is the authenticated request pipeline. It attaches the stored
// access token as a bearer credential and a correlation ID to every
// request. A 401 response destroys the local session and is returned as
// *ErrSessionExpired; there is no refresh.
type Transport struct {
	Base http.RoundTripper
	Repo *session.Repository

	// NewCorrelationID defaults to a random UUID.
	NewCorrelationID func() string
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(base http.RoundTripper, repo *session.Repository) *Transport {
	return &Transport{Base: base, Repo: repo}
}

// RoundTrip executes a single HTTP transaction with authentication.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.Repo.AccessToken()
	if err != nil {
		logging.Warn("Gateway", "Failed to read access token, sending request anonymously: %v", err)
		token = ""
	}

	cloned := req.Clone(req.Context())
	if token != "" {
		cloned.Header.Set("Authorization", "Bearer "+token)
	}
	correlationID := cloned.Header.Get(CorrelationHeader)
	if correlationID == "" {
		correlationID = t.newCorrelationID()
		cloned.Header.Set(CorrelationHeader, correlationID)
	}

	resp, err := t.base().RoundTrip(cloned)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if clearErr := t.Repo.Clear(); clearErr != nil {
		logging.Error("Gateway", clearErr, "Failed to clear session after 401")
	}
	logging.Audit(logging.AuditEvent{
		Action:  "session_cleared",
		Outcome: "success",
		Reason:  "gateway returned 401 for " + req.Method + " " + req.URL.Path,
	})

	return nil, &ErrSessionExpired{
		Method:        req.Method,
		Path:          req.URL.Path,
		CorrelationID: correlationID,
	}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) newCorrelationID() string {
	if t.NewCorrelationID != nil {
		return t.NewCorrelationID()
	}
	return uuid.NewString()
}
