package app

import (
	"fmt"
	"io"
	"os"

	"ems/internal/config"
	"ems/pkg/logging"
)

// Application represents the bootstrapped ems runtime: validated settings,
// configured logging and the services built from them.
type Application struct {
	config   *Config
	settings config.Config
	services *Services
}

// NewApplication creates and initializes a new application instance with the provided configuration.
// This function performs the complete bootstrap sequence:
//
//  1. Loads configuration unless cfg.Settings is already populated
//  2. Configures logging from log.level/log.format, --debug and --quiet
//  3. Initializes session storage, the OAuth client, the login flow and the gateway client
//
// The function returns an error if any step fails.
func NewApplication(cfg *Config) (*Application, error) {
	var settings config.Config
	if cfg.Settings != nil {
		settings = *cfg.Settings
		if err := settings.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	} else {
		loaded, err := config.Load(cfg.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load ems configuration: %w", err)
		}
		settings = loaded
	}

	if err := configureLogging(cfg, settings.Log); err != nil {
		return nil, err
	}
	logging.Debug("Bootstrap", "Using issuer %s and gateway %s", settings.Keycloak.IssuerURL(), settings.Gateway.URL)

	services, err := InitializeServices(settings, cfg.ServiceOptions...)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		settings: settings,
		services: services,
	}, nil
}

func configureLogging(cfg *Config, logCfg config.LogConfig) error {
	level, err := logging.ParseLevel(logCfg.Level)
	if err != nil {
		return err
	}
	switch {
	case cfg.Debug:
		level = logging.LevelDebug
	case cfg.Quiet && level < logging.LevelWarn:
		level = logging.LevelWarn
	}

	var output io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		output = cfg.LogOutput
	}
	logging.Init(level, logging.Format(logCfg.Format), output)
	return nil
}

// Settings returns the effective configuration.
func (a *Application) Settings() config.Config {
	return a.settings
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}
