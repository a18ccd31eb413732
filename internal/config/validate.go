package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Recognized provider values. Only Google Drive is implemented today; the
// others are reserved so a config written for a future release fails with a
// clear message instead of "unknown provider".
const (
	ProviderGoogleDrive = "google-drive"
	ProviderOneDrive    = "microsoft-onedrive"
	ProviderDropbox     = "dropbox"
)

// Minimum HTTP timeout. Anything shorter aborts ordinary Drive calls.
const minTimeout = 1 * time.Second

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateProvider(cfg.Provider)...)
	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateNetwork(&cfg.Network)...)

	return errors.Join(errs...)
}

func validateProvider(provider string) []error {
	switch provider {
	case ProviderGoogleDrive:
		return nil
	case ProviderOneDrive, ProviderDropbox:
		return []error{fmt.Errorf("provider: %q is not yet supported; only %q is implemented",
			provider, ProviderGoogleDrive)}
	default:
		return []error{fmt.Errorf("provider: unknown value %q; supported: %s",
			provider, strings.Join([]string{ProviderGoogleDrive, ProviderOneDrive, ProviderDropbox}, ", "))}
	}
}

func validateAuth(a *AuthConfig) []error {
	var errs []error

	if a.ClientID == "" {
		errs = append(errs, errors.New("auth.client_id: must not be empty"))
	}

	if len(a.Scopes) == 0 {
		errs = append(errs, errors.New("auth.scopes: at least one scope is required"))
	}

	for _, s := range a.Scopes {
		if s == "" {
			errs = append(errs, errors.New("auth.scopes: scope must not be empty"))
		}
	}

	return errs
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func validateLogLevel(level string) []error {
	if !validLogLevels[level] {
		return []error{fmt.Errorf("log_level: must be one of debug, info, warn, error; got %q", level)}
	}

	return nil
}

var validLogFormats = map[string]bool{
	"auto": true,
	"text": true,
	"json": true,
}

func validateLogFormat(format string) []error {
	if !validLogFormats[format] {
		return []error{fmt.Errorf("log_format: must be one of auto, text, json; got %q", format)}
	}

	return nil
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	errs = append(errs, validateLogLevel(l.LogLevel)...)
	errs = append(errs, validateLogFormat(l.LogFormat)...)

	return errs
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	d, err := time.ParseDuration(n.Timeout)

	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("timeout: invalid duration %q: %w", n.Timeout, err))
	case d != 0 && d < minTimeout:
		errs = append(errs, fmt.Errorf("timeout: must be 0 (disabled) or >= %s, got %s", minTimeout, d))
	}

	if n.UserAgent == "" {
		errs = append(errs, errors.New("user_agent: must not be empty"))
	}

	return errs
}
