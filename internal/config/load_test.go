package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)

	return path
}

func TestLoad_ValidFullConfig(t *testing.T) {
	tomlContent := `
provider = "google-drive"

[auth]
client_id = "my-client.apps.googleusercontent.com"
scopes = ["https://www.googleapis.com/auth/drive"]
state_db = "/var/lib/gdrive/state.db"

[preview]
allow_token_in_viewer_url = false

[logging]
log_level = "debug"
log_format = "json"

[network]
timeout = "45s"
user_agent = "embedder/2.0"
`

	path := writeTestConfig(t, tomlContent)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderGoogleDrive, cfg.Provider)
	assert.Equal(t, "my-client.apps.googleusercontent.com", cfg.Auth.ClientID)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/drive"}, cfg.Auth.Scopes)
	assert.Equal(t, "/var/lib/gdrive/state.db", cfg.Auth.StateDB)
	assert.False(t, cfg.Preview.AllowTokenInViewerURL)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)
	assert.Equal(t, "json", cfg.Logging.LogFormat)
	assert.Equal(t, "45s", cfg.Network.Timeout)
	assert.Equal(t, "embedder/2.0", cfg.Network.UserAgent)
}

func TestLoad_MinimalConfig_UsesDefaults(t *testing.T) {
	path := writeTestConfig(t, "")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderGoogleDrive, cfg.Provider)
	assert.Equal(t, defaultClientID, cfg.Auth.ClientID)
	assert.Equal(t, []string{defaultScope}, cfg.Auth.Scopes)
	assert.True(t, cfg.Preview.AllowTokenInViewerURL)
	assert.Equal(t, "info", cfg.Logging.LogLevel)
	assert.Equal(t, "30s", cfg.Network.Timeout)
}

func TestLoad_PartialConfig_UsesDefaults(t *testing.T) {
	path := writeTestConfig(t, `
[logging]
log_level = "warn"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.LogLevel)
	assert.Equal(t, defaultLogFormat, cfg.Logging.LogFormat)
	assert.Equal(t, defaultClientID, cfg.Auth.ClientID)
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := writeTestConfig(t, `[auth
not valid toml`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml")
	require.Error(t, err)
}

func TestLoad_ValidationError(t *testing.T) {
	path := writeTestConfig(t, `provider = "amazon-s3"`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_UnknownKey_Suggests(t *testing.T) {
	path := writeTestConfig(t, `
[logging]
log_levvel = "debug"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
	assert.Contains(t, err.Error(), "log_level")
}

func TestLoad_UnknownKey_NoSuggestion(t *testing.T) {
	path := writeTestConfig(t, `completely_unrelated_setting = true`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestLoadOrDefault_FileExists(t *testing.T) {
	path := writeTestConfig(t, `
[logging]
log_level = "debug"
`)
	cfg, err := LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)
}

func TestLoadOrDefault_FileNotFound(t *testing.T) {
	cfg, err := LoadOrDefault("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.LogLevel)
	assert.Equal(t, ProviderGoogleDrive, cfg.Provider)
}

func TestResolve_EnvConfigPath(t *testing.T) {
	path := writeTestConfig(t, `
[logging]
log_level = "debug"
`)
	cfg, err := Resolve(EnvOverrides{ConfigPath: path}, CLIOverrides{})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)
}

func TestResolve_CLIConfigPathOverridesEnv(t *testing.T) {
	path := writeTestConfig(t, `
[logging]
log_level = "error"
`)
	cfg, err := Resolve(
		EnvOverrides{ConfigPath: "/wrong/path/config.toml"},
		CLIOverrides{ConfigPath: path},
	)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.LogLevel)
}

func TestResolve_StateDBPrecedence(t *testing.T) {
	path := writeTestConfig(t, `
[auth]
state_db = "/from/file.db"
`)

	cfg, err := Resolve(EnvOverrides{ConfigPath: path, StateDB: "/from/env.db"}, CLIOverrides{})
	require.NoError(t, err)
	assert.Equal(t, "/from/env.db", cfg.Auth.StateDB)

	cfg, err = Resolve(
		EnvOverrides{ConfigPath: path, StateDB: "/from/env.db"},
		CLIOverrides{StateDB: "/from/cli.db"},
	)
	require.NoError(t, err)
	assert.Equal(t, "/from/cli.db", cfg.Auth.StateDB)
}

func TestResolve_StateDBDefaultsWhenUnset(t *testing.T) {
	path := writeTestConfig(t, "")

	cfg, err := Resolve(EnvOverrides{ConfigPath: path}, CLIOverrides{})
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Auth.StateDB)
	assert.Equal(t, "state.db", filepath.Base(cfg.Auth.StateDB))
}
