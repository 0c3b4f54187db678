package auth

import (
	"errors"
	"net/url"
	"strings"
)

// DefaultCallbackPath is the path of the redirect URI on the application origin.
const DefaultCallbackPath = "/auth/callback"

// DefaultLogoutPath is where the provider sends the browser after logout.
const DefaultLogoutPath = "/login"

// Provider describes the identity provider realm and this public client.
type Provider struct {
	// Issuer is the realm issuer URL, e.g. http://localhost:8080/realms/employee-realm.
	Issuer string

	// ClientID is the public client identifier registered with the realm.
	ClientID string

	// RedirectURI receives the authorization response. It must be
	// byte-for-byte identical in the authorization and token requests.
	RedirectURI string

	// PostLogoutRedirectURI is where the provider sends the browser after
	// ending its own session.
	PostLogoutRedirectURI string

	// Scopes defaults to openid, profile and email.
	Scopes []string
}

// NewProvider derives the redirect URIs from the application origin.
func NewProvider(issuer, clientID, origin string) Provider {
	origin = strings.TrimSuffix(origin, "/")
	return Provider{
		Issuer:                issuer,
		ClientID:              clientID,
		RedirectURI:           origin + DefaultCallbackPath,
		PostLogoutRedirectURI: origin + DefaultLogoutPath,
	}
}

// Validate checks that the provider settings are usable.
func (p Provider) Validate() error {
	if p.Issuer == "" {
		return errors.New("issuer is required")
	}
	if p.ClientID == "" {
		return errors.New("client ID is required")
	}
	u, err := url.Parse(p.RedirectURI)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("redirect URI must be an absolute URL")
	}
	return nil
}
