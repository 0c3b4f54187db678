package auth

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/browser"

	"ems/internal/session"
	"ems/pkg/logging"
	"ems/pkg/oauth"
)

// DefaultLoginTimeout bounds the browser round-trip of a login.
const DefaultLoginTimeout = 5 * time.Minute

// LoginOptions controls a single login.
type LoginOptions struct {
	// Force re-authenticates at the provider even when a valid session exists.
	Force bool

	// NoBrowser skips opening the system browser; the URL is still passed
	// to OnAuthURL.
	NoBrowser bool

	// Timeout defaults to DefaultLoginTimeout.
	Timeout time.Duration

	// OnAuthURL is called with the authorization URL before waiting.
	OnAuthURL func(authURL string)
}

// LoginResult describes a completed login.
type LoginResult struct {
	Identity *session.Identity

	// AlreadyAuthenticated is set when the login was skipped.
	AlreadyAuthenticated bool
}

// LogoutOptions controls a logout.
type LogoutOptions struct {
	// NoBrowser skips opening the provider logout URL.
	NoBrowser bool
}

// Flow runs the interactive login and the logout against one provider.
type Flow struct {
	provider    Provider
	client      *oauth.Client
	repo        *session.Repository
	inspector   *session.Inspector
	redirector  *Redirector
	coordinator *Coordinator
	openBrowser func(string) error
}

// FlowOption configures a Flow.
type FlowOption func(*flowOptions)

type flowOptions struct {
	random      io.Reader
	openBrowser func(string) error
	exchanger   Exchanger
}

// WithRandom sets the entropy source for state and verifier generation.
func WithRandom(r io.Reader) FlowOption {
	return func(o *flowOptions) {
		o.random = r
	}
}

// WithBrowserOpener replaces the system browser launcher.
func WithBrowserOpener(open func(string) error) FlowOption {
	return func(o *flowOptions) {
		o.openBrowser = open
	}
}

// WithExchanger replaces the token exchange.
func WithExchanger(e Exchanger) FlowOption {
	return func(o *flowOptions) {
		o.exchanger = e
	}
}

// NewFlow wires the redirect builder, token exchange and coordinator for provider.
func NewFlow(provider Provider, client *oauth.Client, repo *session.Repository, inspector *session.Inspector, opts ...FlowOption) *Flow {
	o := &flowOptions{openBrowser: browser.OpenURL}
	for _, opt := range opts {
		opt(o)
	}
	if o.exchanger == nil {
		o.exchanger = NewTokenExchanger(provider, client, repo)
	}

	return &Flow{
		provider:    provider,
		client:      client,
		repo:        repo,
		inspector:   inspector,
		redirector:  NewRedirector(provider, client, repo, o.random),
		coordinator: NewCoordinator(repo, o.exchanger, inspector),
		openBrowser: o.openBrowser,
	}
}

// Coordinator returns the callback coordinator of the flow.
func (f *Flow) Coordinator() *Coordinator {
	return f.coordinator
}

// Login signs the user in through the system browser. It returns once the
// callback listener reports Success or Failed, or when ctx is done or the
// timeout expires; in the last two cases the Flow State is rolled back.
func (f *Flow) Login(ctx context.Context, opts LoginOptions) (*LoginResult, error) {
	if _, err := f.repo.SweepProcessedCodes(); err != nil {
		logging.Warn("Auth", "Failed to sweep processed-code markers: %v", err)
	}

	if !opts.Force && f.inspector.IsAuthenticated() {
		status := f.inspector.Status()
		return &LoginResult{Identity: status.Identity, AlreadyAuthenticated: true}, nil
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	f.coordinator.Reset()

	server, err := NewCallbackServer(f.provider.RedirectURI, f.coordinator)
	if err != nil {
		return nil, err
	}
	if err := server.Start(ctx); err != nil {
		return nil, err
	}
	defer server.Stop()

	authURL, err := f.redirector.BuildAuthorizationURL(ctx, opts.Force)
	if err != nil {
		return nil, err
	}
	if opts.OnAuthURL != nil {
		opts.OnAuthURL(authURL)
	}
	if !opts.NoBrowser {
		if err := f.openBrowser(authURL); err != nil {
			logging.Warn("Auth", "Could not open a browser, open the URL manually: %v", err)
		}
	}

	for {
		select {
		case result := <-server.Results():
			switch result.State {
			case StateSuccess:
				return &LoginResult{Identity: result.Identity}, nil
			case StateFailed:
				return nil, &LoginError{Result: result}
			}

		case err := <-server.Errors():
			f.rollback()
			return nil, fmt.Errorf("callback listener failed: %w", err)

		case <-ctx.Done():
			f.rollback()
			if ctx.Err() == context.DeadlineExceeded {
				return nil, ErrLoginTimeout
			}
			return nil, ctx.Err()
		}
	}
}

func (f *Flow) rollback() {
	if err := f.repo.ClearFlow(); err != nil {
		logging.Warn("Auth", "Failed to roll back login attempt: %v", err)
	}
}

// LogoutURL returns the provider logout URL carrying this client's ID and
// the post-logout redirect.
func (f *Flow) LogoutURL(ctx context.Context) (string, error) {
	endpoints := f.client.ResolveEndpoints(ctx, f.provider.Issuer)
	return f.client.BuildLogoutURL(endpoints.EndSessionEndpoint, f.provider.ClientID, f.provider.PostLogoutRedirectURI)
}

// Logout destroys the local session and then ends the provider session by
// opening its logout URL. The local session is cleared even when the
// provider cannot be reached. The logout URL is returned.
func (f *Flow) Logout(ctx context.Context, opts LogoutOptions) (string, error) {
	var subject string
	if identity, err := f.repo.Identity(); err == nil && identity != nil {
		subject = identity.Username
	}

	if err := f.repo.Clear(); err != nil {
		return "", err
	}
	logging.Audit(logging.AuditEvent{Action: "logout", Outcome: "success", Subject: subject})

	logoutURL, err := f.LogoutURL(ctx)
	if err != nil {
		return "", err
	}
	if !opts.NoBrowser {
		if err := f.openBrowser(logoutURL); err != nil {
			logging.Warn("Auth", "Could not open a browser for provider logout: %v", err)
		}
	}
	return logoutURL, nil
}
