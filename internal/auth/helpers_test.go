package auth

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"ems/internal/session"
	"ems/internal/testing/mock"
	"ems/pkg/oauth"
)

const testOrigin = "http://localhost:3000"

type fixture struct {
	kc        *mock.KeycloakServer
	client    *oauth.Client
	repo      *session.Repository
	durable   *session.MemoryStorage
	volatile  *session.MemoryStorage
	inspector *session.Inspector
	provider  Provider
}

func newFixture(t *testing.T, cfg mock.KeycloakConfig) *fixture {
	t.Helper()
	return newFixtureWithOrigin(t, cfg, testOrigin)
}

func newFixtureWithOrigin(t *testing.T, cfg mock.KeycloakConfig, origin string) *fixture {
	t.Helper()

	kc := mock.NewKeycloakServer(cfg)
	t.Cleanup(kc.Close)

	durable := session.NewMemoryStorage()
	volatile := session.NewMemoryStorage()
	repo := session.NewRepository(durable, volatile)

	return &fixture{
		kc:        kc,
		client:    oauth.NewClient(oauth.WithHTTPClient(kc.HTTPClient())),
		repo:      repo,
		durable:   durable,
		volatile:  volatile,
		inspector: session.NewInspector(repo, "ems-app", nil),
		provider:  NewProvider(kc.IssuerURL(), "ems-app", origin),
	}
}

func (f *fixture) redirector() *Redirector {
	return NewRedirector(f.provider, f.client, f.repo, nil)
}

func (f *fixture) coordinator() *Coordinator {
	return NewCoordinator(f.repo, NewTokenExchanger(f.provider, f.client, f.repo), f.inspector)
}

// beginLogin starts an attempt and returns an approved code with its state.
func (f *fixture) beginLogin(t *testing.T) (code, state string) {
	t.Helper()
	authURL, err := f.redirector().BuildAuthorizationURL(context.Background(), false)
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	q := u.Query()
	return f.kc.GenerateAuthCode(q.Get("redirect_uri"), q.Get("code_challenge")), q.Get("state")
}
