package config

import (
	"time"

	"ems/pkg/oauth"
)

// Session storage backends.
const (
	StorageFile    = "file"
	StorageKeyring = "keyring"
)

// Config is the top-level configuration structure for ems.
type Config struct {
	Keycloak KeycloakConfig `yaml:"keycloak"`
	App      AppConfig      `yaml:"app"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Session  SessionConfig  `yaml:"session"`
	Login    LoginConfig    `yaml:"login"`
	Log      LogConfig      `yaml:"log"`
}

// KeycloakConfig locates the identity provider realm and this client.
type KeycloakConfig struct {
	URL      string `yaml:"url" env:"KEYCLOAK_URL"`
	Realm    string `yaml:"realm" env:"REALM"`
	ClientID string `yaml:"clientId" env:"CLIENT_ID"`

	// Issuer overrides the issuer derived from URL and Realm.
	Issuer string `yaml:"issuer,omitempty" env:"ISSUER"`
}

// IssuerURL returns the realm issuer.
func (k KeycloakConfig) IssuerURL() string {
	if k.Issuer != "" {
		return k.Issuer
	}
	return oauth.KeycloakIssuer(k.URL, k.Realm)
}

// AppConfig describes the application origin registered with the provider.
// The callback listener serves {origin}/auth/callback.
type AppConfig struct {
	Origin string `yaml:"origin" env:"APP_ORIGIN"`
}

// GatewayConfig locates the REST gateway.
type GatewayConfig struct {
	URL     string        `yaml:"url" env:"GATEWAY_URL"`
	Timeout time.Duration `yaml:"timeout" env:"GATEWAY_TIMEOUT"`
}

// SessionConfig selects where the session lives.
type SessionConfig struct {
	// Storage is "file" or "keyring".
	Storage string `yaml:"storage" env:"SESSION_STORAGE"`

	// Path of the session file; empty means ~/.config/ems/session.json.
	Path string `yaml:"path,omitempty" env:"SESSION_PATH"`

	// KeyringService names the keyring entry.
	KeyringService string `yaml:"keyringService" env:"KEYRING_SERVICE"`

	// PollInterval is how often the shell re-checks the session; 0 disables.
	PollInterval time.Duration `yaml:"pollInterval" env:"POLL_INTERVAL"`
}

// LoginConfig tunes the browser login.
type LoginConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"LOGIN_TIMEOUT"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Default returns the default configuration, matching a local development
// deployment of Keycloak, the gateway and the web origin.
func Default() Config {
	return Config{
		Keycloak: KeycloakConfig{
			URL:      "http://localhost:8080",
			Realm:    "employee-realm",
			ClientID: "ems-app",
		},
		App: AppConfig{
			Origin: "http://localhost:3000",
		},
		Gateway: GatewayConfig{
			URL:     "http://localhost:8888",
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			Storage:        StorageFile,
			KeyringService: "ems",
			PollInterval:   100 * time.Millisecond,
		},
		Login: LoginConfig{
			Timeout: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
