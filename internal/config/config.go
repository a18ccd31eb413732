// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for gdrive-go. It supports a four-layer
// override chain (defaults -> config file -> environment -> CLI flags), so
// CLI flags always win for one-off overrides without editing the config file.
package config

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	// Provider selects the cloud storage backend. Only Google Drive is
	// implemented; the other recognized values fail validation with a
	// "not yet supported" message.
	Provider string `toml:"provider"`

	Auth    AuthConfig    `toml:"auth"`
	Preview PreviewConfig `toml:"preview"`
	Logging LoggingConfig `toml:"logging"`
	Network NetworkConfig `toml:"network"`
}

// AuthConfig controls the OAuth2 client used for interactive grants and
// where the credential slot is persisted.
type AuthConfig struct {
	ClientID string   `toml:"client_id"`
	Scopes   []string `toml:"scopes"`
	// StateDB is the path of the SQLite database holding the credential
	// slot. Empty means the platform default data directory.
	StateDB string `toml:"state_db"`
}

// PreviewConfig controls viewer URL generation.
type PreviewConfig struct {
	// AllowTokenInViewerURL permits viewer URLs that embed the bearer token
	// as a query parameter for types Drive cannot preview natively. Anyone
	// holding such a URL can read the file, so integrators embedding
	// gdrive-go in shared surfaces should turn this off.
	AllowTokenInViewerURL bool `toml:"allow_token_in_viewer_url"`
}

// LoggingConfig controls log output behavior: level and format.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// NetworkConfig controls HTTP client behavior. The Drive client itself
// imposes no timeout; the timeout configured here is applied to the
// http.Client the CLI constructs.
type NetworkConfig struct {
	Timeout   string `toml:"timeout"`
	UserAgent string `toml:"user_agent"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings.
type CLIOverrides struct {
	ConfigPath string // --config flag (empty = use default)
	StateDB    string // --state-db flag (empty = use config/env/default)
}
