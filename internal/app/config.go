package app

import (
	"io"

	"ems/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug forces debug logging regardless of log.level.
	Debug bool

	// Quiet suppresses informational logging.
	Quiet bool

	// Custom configuration file (optional)
	ConfigPath string

	// LogOutput defaults to stderr.
	LogOutput io.Writer

	// Settings, when set, is used instead of loading ConfigPath.
	Settings *config.Config

	// ServiceOptions are passed to InitializeServices.
	ServiceOptions []ServiceOption
}

// NewConfig creates a new application configuration
func NewConfig(debug, quiet bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		Quiet:      quiet,
		ConfigPath: configPath,
	}
}
