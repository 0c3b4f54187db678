package auth

import (
	"context"
	"fmt"

	"ems/internal/session"
	"ems/pkg/oauth"
)

// Exchanger trades an authorization code for tokens.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*oauth.Token, error)
}

// TokenExchanger exchanges codes at the provider's token endpoint using the
// verifier of the current login attempt.
type TokenExchanger struct {
	provider Provider
	client   *oauth.Client
	repo     *session.Repository
}

// NewTokenExchanger creates a TokenExchanger.
func NewTokenExchanger(provider Provider, client *oauth.Client, repo *session.Repository) *TokenExchanger {
	return &TokenExchanger{provider: provider, client: client, repo: repo}
}

// Exchange posts the code, redirect URI and PKCE verifier to the token
// endpoint. It returns ErrMissingVerifier without any network call when no
// verifier is held, and an *oauth.ExchangeError for a provider rejection.
func (e *TokenExchanger) Exchange(ctx context.Context, code string) (*oauth.Token, error) {
	verifier, ok, err := e.repo.Verifier()
	if err != nil {
		return nil, fmt.Errorf("failed to read PKCE verifier: %w", err)
	}
	if !ok {
		return nil, ErrMissingVerifier
	}

	endpoints := e.client.ResolveEndpoints(ctx, e.provider.Issuer)
	return e.client.ExchangeCode(ctx, endpoints.TokenEndpoint, code, e.provider.RedirectURI, e.provider.ClientID, verifier)
}
