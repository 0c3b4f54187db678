package auth

import (
	"context"
	"fmt"
	"io"

	"ems/internal/session"
	"ems/pkg/logging"
	"ems/pkg/oauth"
)

// Redirector starts a login attempt: it records the Flow State and
// returns the authorization URL the browser must visit.
type Redirector struct {
	provider Provider
	client   *oauth.Client
	repo     *session.Repository
	random   io.Reader
}

// NewRedirector creates a Redirector. random is the entropy source for the
// state and verifier; nil means crypto/rand.
func NewRedirector(provider Provider, client *oauth.Client, repo *session.Repository, random io.Reader) *Redirector {
	return &Redirector{
		provider: provider,
		client:   client,
		repo:     repo,
		random:   random,
	}
}

// BuildAuthorizationURL generates a fresh anti-CSRF state and PKCE pair,
// persists them (overwriting any previous attempt) and returns the
// authorization URL. forceLogin asks the provider to re-authenticate the
// user even when it already holds a session.
func (r *Redirector) BuildAuthorizationURL(ctx context.Context, forceLogin bool) (string, error) {
	state, err := oauth.GenerateState(r.random)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	pkce, err := oauth.GeneratePKCE(r.random)
	if err != nil {
		return "", fmt.Errorf("failed to generate PKCE verifier: %w", err)
	}

	if err := r.repo.BeginFlow(state, pkce.CodeVerifier); err != nil {
		return "", err
	}

	endpoints := r.client.ResolveEndpoints(ctx, r.provider.Issuer)
	if endpoints.Discovered && !endpoints.SupportsPKCE() {
		logging.Warn("Auth", "Provider %s does not advertise S256 PKCE support", r.provider.Issuer)
	}

	authURL, err := r.client.BuildAuthorizationURL(endpoints.AuthorizationEndpoint, oauth.AuthorizationRequest{
		ClientID:      r.provider.ClientID,
		RedirectURI:   r.provider.RedirectURI,
		Scopes:        r.provider.Scopes,
		State:         state,
		CodeChallenge: pkce.CodeChallenge,
		ForceLogin:    forceLogin,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build authorization URL: %w", err)
	}

	logging.Debug("Auth", "Built authorization URL (state=%s, force=%t)", logging.TruncateSecret(state), forceLogin)
	return authURL, nil
}
