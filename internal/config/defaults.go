package config

// Default values for configuration options. These represent the "layer 0"
// of the four-layer override chain and are chosen so the CLI works without
// any config file at all.
const (
	// defaultClientID is the public OAuth2 client registered for gdrive-go.
	// Installed-application flow; there is no client secret.
	defaultClientID = "833271609645-6bhppkvmkcvbv6lrmkdp0kq3s5g14r2q.apps.googleusercontent.com"

	defaultScope     = "https://www.googleapis.com/auth/drive.readonly"
	defaultLogLevel  = "info"
	defaultLogFormat = "auto"
	defaultTimeout   = "30s"
	defaultUserAgent = "gdrive-go/0.1"
)

// DefaultConfig returns a Config populated with all default values.
// This is used both as the starting point for TOML decoding (so unset
// fields retain defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGoogleDrive,
		Auth:     defaultAuthConfig(),
		Preview:  defaultPreviewConfig(),
		Logging:  defaultLoggingConfig(),
		Network:  defaultNetworkConfig(),
	}
}

func defaultAuthConfig() AuthConfig {
	return AuthConfig{
		ClientID: defaultClientID,
		Scopes:   []string{defaultScope},
	}
}

func defaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		AllowTokenInViewerURL: true,
	}
}

func defaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}

func defaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		Timeout:   defaultTimeout,
		UserAgent: defaultUserAgent,
	}
}
