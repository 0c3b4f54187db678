package auth

import (
	"errors"
	"fmt"

	"ems/internal/session"
	"ems/pkg/oauth"
)

// Failure reasons reported by the Coordinator for protocol validation errors.
const (
	ReasonInvalidResponse = "invalid authorization response"
	ReasonMissingVerifier = "missing PKCE verifier"
)

// GenericFailureMessage is shown when a failure carries no provider message.
const GenericFailureMessage = "Failed to authenticate. Please try again."

var (
	// ErrMissingVerifier is returned by the token exchange when no PKCE
	// verifier is held for the current login attempt.
	ErrMissingVerifier = errors.New("missing verifier")

	// ErrLoginTimeout is returned when the browser round-trip does not
	// complete in time.
	ErrLoginTimeout = errors.New("timed out waiting for the login to complete")
)

// CallbackError is a protocol validation failure of the provider redirect.
// These are never retried automatically.
type CallbackError struct {
	Reason string
}

func (e *CallbackError) Error() string {
	return e.Reason
}

// ProviderError is an error the provider reported on the redirect itself,
// for example access_denied when the user cancels the consent screen.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Code
}

// LoginError is returned by Flow.Login when the attempt ends in Failed.
type LoginError struct {
	Result Result
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed: %s", e.Result.Message)
}

func (e *LoginError) Unwrap() error {
	return e.Result.Err
}

// FailureMessage returns the user-facing message for a failed attempt: the
// provider's own message where there is one, else a generic fallback.
func FailureMessage(err error) string {
	var (
		callbackErr *CallbackError
		providerErr *ProviderError
		exchangeErr *oauth.ExchangeError
	)
	switch {
	case errors.As(err, &callbackErr):
		return callbackErr.Reason
	case errors.As(err, &providerErr):
		if msg := providerErr.Error(); msg != "" {
			return msg
		}
	case errors.As(err, &exchangeErr):
		return exchangeErr.Error()
	case errors.Is(err, ErrMissingVerifier):
		return ReasonMissingVerifier
	case errors.Is(err, session.ErrMalformedToken):
		return "The identity provider returned an unreadable access token."
	}
	return GenericFailureMessage
}
