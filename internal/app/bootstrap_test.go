package app

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ems/internal/config"
	"ems/pkg/logging"
)

func TestNewApplication_LoadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	sessionPath := filepath.Join(dir, "session.json")
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
keycloak:
  realm: staff
session:
  path: `+sessionPath+`
`), 0o600))

	application, err := NewApplication(&Config{ConfigPath: configPath, LogOutput: io.Discard})
	require.NoError(t, err)

	settings := application.Settings()
	assert.Equal(t, "staff", settings.Keycloak.Realm)

	services := application.Services()
	require.NotNil(t, services)
	assert.Equal(t, sessionPath, services.SessionFile)
	assert.Equal(t, "http://localhost:8080/realms/staff", services.Provider.Issuer)
	assert.Equal(t, "http://localhost:3000/auth/callback", services.Provider.RedirectURI)
	assert.NotNil(t, services.Flow)
	assert.NotNil(t, services.Gateway)
}

func TestNewApplication_InvalidSettings(t *testing.T) {
	settings := config.Default()
	settings.Gateway.URL = "not a url"

	_, err := NewApplication(&Config{Settings: &settings, LogOutput: io.Discard})
	require.Error(t, err)

	var verrs config.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestNewApplication_MissingConfigFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EMS_SESSION_PATH", filepath.Join(dir, "session.json"))

	application, err := NewApplication(&Config{
		ConfigPath: filepath.Join(dir, "absent.yaml"),
		LogOutput:  io.Discard,
	})
	require.NoError(t, err)
	assert.Equal(t, "employee-realm", application.Settings().Keycloak.Realm)
}

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() { logging.InitForCLI(logging.LevelInfo, io.Discard) })

	tests := []struct {
		name      string
		cfg       Config
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{name: "configured level", level: "info", wantInfo: true},
		{name: "debug flag wins", cfg: Config{Debug: true}, level: "error", wantDebug: true, wantInfo: true},
		{name: "quiet raises to warn", cfg: Config{Quiet: true}, level: "info"},
		{name: "quiet keeps a stricter level", cfg: Config{Quiet: true}, level: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := tt.cfg
			cfg.LogOutput = &buf
			require.NoError(t, configureLogging(&cfg, config.LogConfig{Level: tt.level, Format: "text"}))

			logging.Debug("Test", "debug line")
			logging.Info("Test", "info line")

			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info line")))
		})
	}
}

func TestConfigureLogging_UnknownLevel(t *testing.T) {
	err := configureLogging(&Config{LogOutput: io.Discard}, config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
