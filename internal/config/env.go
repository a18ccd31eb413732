package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig  = "GDRIVE_CONFIG"
	EnvStateDB = "GDRIVE_STATE_DB"
)

// EnvOverrides holds values derived from environment variables.
// These are resolved by ReadEnvOverrides and made available to callers.
type EnvOverrides struct {
	ConfigPath string // GDRIVE_CONFIG: override config file path
	StateDB    string // GDRIVE_STATE_DB: override state database path
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
// This does not modify the Config; callers apply the relevant fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		StateDB:    os.Getenv(EnvStateDB),
	}
}
