package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultMetadataCacheTTL is the default TTL for cached provider endpoints.
	DefaultMetadataCacheTTL = 30 * time.Minute
)

// endpointsCacheEntry holds cached endpoints with their timestamp.
type endpointsCacheEntry struct {
	endpoints *Endpoints
	fetchedAt time.Time
}

// Client handles the OAuth 2.1 protocol operations of a public client:
// endpoint discovery, authorization and logout URLs, and code exchange.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger

	// Endpoint cache with mutex for thread safety
	cacheMu     sync.RWMutex
	cache       map[string]*endpointsCacheEntry
	metadataTTL time.Duration

	// singleflight group to deduplicate concurrent discovery requests
	discoveryGroup singleflight.Group
}

// ClientOption configures the OAuth client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetadataCacheTTL sets the endpoint cache TTL.
func WithMetadataCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.metadataTTL = ttl
	}
}

// NewClient creates a new OAuth client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: DefaultHTTPTimeout},
		logger:      slog.Default(),
		cache:       make(map[string]*endpointsCacheEntry),
		metadataTTL: DefaultMetadataCacheTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// DiscoverEndpoints fetches the OpenID Connect discovery document of issuer.
// Results are cached with a TTL; concurrent calls share a single request.
func (c *Client) DiscoverEndpoints(ctx context.Context, issuer string) (*Endpoints, error) {
	issuer = strings.TrimSuffix(issuer, "/")

	if endpoints, ok := c.cached(issuer); ok {
		return endpoints, nil
	}

	result, err, _ := c.discoveryGroup.Do(issuer, func() (interface{}, error) {
		if endpoints, ok := c.cached(issuer); ok {
			return endpoints, nil
		}
		return c.doDiscover(ctx, issuer)
	})
	if err != nil {
		return nil, err
	}

	return result.(*Endpoints), nil
}

// ResolveEndpoints discovers the endpoints of issuer and falls back to the
// Keycloak path conventions when discovery is unavailable.
func (c *Client) ResolveEndpoints(ctx context.Context, issuer string) *Endpoints {
	endpoints, err := c.DiscoverEndpoints(ctx, issuer)
	if err != nil {
		c.logger.Debug("Discovery failed, using Keycloak endpoint conventions",
			"issuer", issuer,
			"error", err)
		return KeycloakEndpoints(issuer)
	}
	return endpoints
}

func (c *Client) cached(issuer string) (*Endpoints, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	entry, ok := c.cache[issuer]
	if !ok || time.Since(entry.fetchedAt) >= c.metadataTTL {
		return nil, false
	}
	return entry.endpoints, true
}

func (c *Client) doDiscover(ctx context.Context, issuer string) (*Endpoints, error) {
	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, c.httpClient), issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC configuration for %s: %w", issuer, err)
	}

	var extra struct {
		EndSessionEndpoint            string   `json:"end_session_endpoint"`
		CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported"`
	}
	if err := provider.Claims(&extra); err != nil {
		return nil, fmt.Errorf("failed to parse OIDC configuration: %w", err)
	}

	ep := provider.Endpoint()
	endpoints := &Endpoints{
		Issuer:                        issuer,
		AuthorizationEndpoint:         ep.AuthURL,
		TokenEndpoint:                 ep.TokenURL,
		EndSessionEndpoint:            extra.EndSessionEndpoint,
		CodeChallengeMethodsSupported: extra.CodeChallengeMethodsSupported,
		Discovered:                    true,
	}
	if endpoints.EndSessionEndpoint == "" {
		endpoints.EndSessionEndpoint = KeycloakEndpoints(issuer).EndSessionEndpoint
	}

	c.cacheMu.Lock()
	c.cache[issuer] = &endpointsCacheEntry{endpoints: endpoints, fetchedAt: time.Now()}
	c.cacheMu.Unlock()

	c.logger.Debug("Cached OIDC endpoints",
		"issuer", issuer,
		"authorization_endpoint", endpoints.AuthorizationEndpoint,
		"token_endpoint", endpoints.TokenEndpoint)

	return endpoints, nil
}

// BuildAuthorizationURL composes the authorization endpoint URL for a PKCE
// authorization code request.
func (c *Client) BuildAuthorizationURL(authEndpoint string, req AuthorizationRequest) (string, error) {
	if authEndpoint == "" {
		return "", errors.New("authorization endpoint is empty")
	}
	if req.CodeChallenge == "" {
		return "", errors.New("code challenge is required")
	}

	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	cfg := oauth2.Config{
		ClientID:    req.ClientID,
		RedirectURL: req.RedirectURI,
		Scopes:      scopes,
		Endpoint:    oauth2.Endpoint{AuthURL: authEndpoint},
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge", req.CodeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", ChallengeMethodS256),
	}
	if req.ForceLogin {
		opts = append(opts,
			oauth2.SetAuthURLParam("prompt", "login"),
			oauth2.SetAuthURLParam("max_age", "0"))
	}

	return cfg.AuthCodeURL(req.State, opts...), nil
}

// BuildLogoutURL composes the provider logout URL that redirects back to
// redirectURI once the provider session has ended.
func (c *Client) BuildLogoutURL(logoutEndpoint, clientID, redirectURI string) (string, error) {
	u, err := url.Parse(logoutEndpoint)
	if err != nil {
		return "", fmt.Errorf("invalid logout endpoint: %w", err)
	}
	q := u.Query()
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ExchangeCode exchanges an authorization code for tokens. The request is a
// form POST carrying grant_type, client_id, code, redirect_uri and
// code_verifier. A non-success response yields an *ExchangeError.
func (c *Client) ExchangeCode(ctx context.Context, tokenEndpoint, code, redirectURI, clientID, codeVerifier string) (*Token, error) {
	cfg := oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenEndpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			exchangeErr := &ExchangeError{
				Code:        retrieveErr.ErrorCode,
				Description: retrieveErr.ErrorDescription,
			}
			if retrieveErr.Response != nil {
				exchangeErr.StatusCode = retrieveErr.Response.StatusCode
			}
			c.logger.Debug("Token request failed",
				"status", exchangeErr.StatusCode,
				"error", exchangeErr.Code)
			return nil, exchangeErr
		}
		return nil, fmt.Errorf("token request failed: %w", err)
	}

	return fromOAuth2Token(tok), nil
}

func fromOAuth2Token(tok *oauth2.Token) *Token {
	t := &Token{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
		ExpiresAt:    tok.Expiry,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		t.IDToken = idToken
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		t.Scope = scope
	}
	return t
}
