package oauth

import (
	"fmt"
	"strings"
	"time"
)

// DefaultScopes are the scopes requested during authorization.
var DefaultScopes = []string{"openid", "profile", "email"}

// Token is the token endpoint response returned from a successful code exchange.
type Token struct {
	// AccessToken is the bearer token used for authorization.
	AccessToken string `json:"access_token"`

	// TokenType is typically "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// RefreshToken is stored but never exchanged; expiry forces a fresh login.
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresIn is the token lifetime in seconds (from token response).
	ExpiresIn int64 `json:"expires_in,omitempty"`

	// ExpiresAt is the expiry hint computed by the transport.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// Scope is the granted scope(s), space-separated.
	Scope string `json:"scope,omitempty"`

	// IDToken is the OIDC ID token (if available).
	IDToken string `json:"id_token,omitempty"`
}

// Endpoints are the provider URLs used by the login and logout flows.
type Endpoints struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	EndSessionEndpoint    string `json:"end_session_endpoint,omitempty"`

	// CodeChallengeMethodsSupported lists the PKCE code challenge methods.
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported,omitempty"`

	// Discovered is false when the endpoints were derived from Keycloak path
	// conventions rather than fetched from the discovery document.
	Discovered bool `json:"-"`
}

// SupportsPKCE returns true if the server supports S256 PKCE.
func (e *Endpoints) SupportsPKCE() bool {
	for _, method := range e.CodeChallengeMethodsSupported {
		if method == ChallengeMethodS256 {
			return true
		}
	}
	// If not specified, assume S256 is supported (OAuth 2.1 requirement)
	return len(e.CodeChallengeMethodsSupported) == 0
}

// KeycloakEndpoints returns the conventional OpenID Connect endpoints of a
// Keycloak realm issuer such as http://localhost:8080/realms/employee-realm.
func KeycloakEndpoints(issuer string) *Endpoints {
	issuer = strings.TrimSuffix(issuer, "/")
	base := issuer + "/protocol/openid-connect"
	return &Endpoints{
		Issuer:                issuer,
		AuthorizationEndpoint: base + "/auth",
		TokenEndpoint:         base + "/token",
		EndSessionEndpoint:    base + "/logout",
	}
}

// KeycloakIssuer joins a Keycloak base URL and realm into the realm issuer URL.
func KeycloakIssuer(baseURL, realm string) string {
	return strings.TrimSuffix(baseURL, "/") + "/realms/" + realm
}

// PKCEChallenge represents a PKCE (Proof Key for Code Exchange) challenge.
type PKCEChallenge struct {
	// CodeVerifier is kept secret and never sent to the authorization endpoint.
	CodeVerifier string

	// CodeChallenge is the SHA256 hash of the verifier (base64url-encoded).
	CodeChallenge string

	// CodeChallengeMethod is always "S256".
	CodeChallengeMethod string
}

// AuthorizationRequest holds the inputs for an authorization URL.
type AuthorizationRequest struct {
	ClientID      string
	RedirectURI   string
	Scopes        []string
	State         string
	CodeChallenge string

	// ForceLogin makes the provider re-authenticate the user even when it
	// already holds a session (prompt=login, max_age=0).
	ForceLogin bool
}

// ExchangeError is a non-success response from the token endpoint.
type ExchangeError struct {
	StatusCode  int
	Code        string
	Description string
}

// Error returns the most descriptive message the provider gave:
// error_description, then error, then the bare HTTP status.
func (e *ExchangeError) Error() string {
	switch {
	case e.Description != "":
		return e.Description
	case e.Code != "":
		return e.Code
	default:
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
}
