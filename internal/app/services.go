package app

import (
	"fmt"
	"log/slog"

	"ems/internal/auth"
	"ems/internal/config"
	"ems/internal/gateway"
	"ems/internal/session"
	"ems/pkg/logging"
	"ems/pkg/oauth"
)

// Services holds everything a command needs, built once per process.
//
// Initialization order:
//  1. durable and volatile storage
//  2. session Repository and Inspector
//  3. OAuth client and provider settings
//  4. login/logout Flow and gateway client
type Services struct {
	// Settings is the configuration the services were built from.
	Settings config.Config

	// Durable holds the session across processes (file or keyring).
	Durable session.Storage

	// SessionFile is the path of the durable session file, empty when the
	// keyring backend is used.
	SessionFile string

	Repository *session.Repository
	Inspector  *session.Inspector

	OAuth    *oauth.Client
	Provider auth.Provider
	Flow     *auth.Flow

	Gateway *gateway.Client
}

// ServiceOption customizes InitializeServices, mostly for tests.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	durable   session.Storage
	clock     session.Clock
	flowOpts  []auth.FlowOption
	oauthOpts []oauth.ClientOption
	gwOpts    []gateway.Option
}

// WithDurableStorage replaces the configured durable storage backend.
func WithDurableStorage(s session.Storage) ServiceOption {
	return func(o *serviceOptions) {
		o.durable = s
	}
}

// WithClock sets the clock used by the repository and inspector.
func WithClock(c session.Clock) ServiceOption {
	return func(o *serviceOptions) {
		o.clock = c
	}
}

// WithFlowOptions passes options to the login flow.
func WithFlowOptions(opts ...auth.FlowOption) ServiceOption {
	return func(o *serviceOptions) {
		o.flowOpts = append(o.flowOpts, opts...)
	}
}

// WithOAuthOptions passes options to the OAuth client.
func WithOAuthOptions(opts ...oauth.ClientOption) ServiceOption {
	return func(o *serviceOptions) {
		o.oauthOpts = append(o.oauthOpts, opts...)
	}
}

// WithGatewayOptions passes options to the gateway client.
func WithGatewayOptions(opts ...gateway.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.gwOpts = append(o.gwOpts, opts...)
	}
}

// InitializeServices builds the services for settings.
func InitializeServices(settings config.Config, opts ...ServiceOption) (*Services, error) {
	o := &serviceOptions{clock: session.RealClock{}}
	for _, opt := range opts {
		opt(o)
	}

	svc := &Services{Settings: settings}

	durable := o.durable
	if durable == nil {
		var err error
		durable, svc.SessionFile, err = newDurableStorage(settings.Session)
		if err != nil {
			return nil, err
		}
	} else if fs, ok := durable.(*session.FileStorage); ok {
		svc.SessionFile = fs.Path()
	}
	svc.Durable = durable

	svc.Repository = session.NewRepository(durable, session.NewMemoryStorage(), session.WithClock(o.clock))
	svc.Inspector = session.NewInspector(svc.Repository, settings.Keycloak.ClientID, o.clock)

	oauthOpts := append([]oauth.ClientOption{oauth.WithLogger(slog.Default())}, o.oauthOpts...)
	svc.OAuth = oauth.NewClient(oauthOpts...)

	svc.Provider = auth.NewProvider(settings.Keycloak.IssuerURL(), settings.Keycloak.ClientID, settings.App.Origin)
	if err := svc.Provider.Validate(); err != nil {
		return nil, fmt.Errorf("invalid provider settings: %w", err)
	}
	svc.Flow = auth.NewFlow(svc.Provider, svc.OAuth, svc.Repository, svc.Inspector, o.flowOpts...)

	gwOpts := append([]gateway.Option{gateway.WithTimeout(settings.Gateway.Timeout)}, o.gwOpts...)
	svc.Gateway = gateway.NewClient(settings.Gateway.URL, svc.Repository, gwOpts...)

	logging.Debug("Services", "Session storage: %s", settings.Session.Storage)
	return svc, nil
}

func newDurableStorage(cfg config.SessionConfig) (session.Storage, string, error) {
	switch cfg.Storage {
	case config.StorageKeyring:
		return session.NewKeyringStorage(cfg.KeyringService), "", nil
	case config.StorageFile, "":
		fs, err := session.NewFileStorage(cfg.Path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open session file: %w", err)
		}
		return fs, fs.Path(), nil
	default:
		return nil, "", fmt.Errorf("unknown session storage %q", cfg.Storage)
	}
}

// NewWatcher creates an auth-state watcher that follows the durable session
// file when there is one.
func (s *Services) NewWatcher() *session.Watcher {
	opts := []session.WatcherOption{session.WithPollInterval(s.Settings.Session.PollInterval)}
	if s.SessionFile != "" {
		opts = append(opts, session.WithWatchFile(s.SessionFile))
	}
	return session.NewWatcher(s.Inspector, s.Repository, opts...)
}
