package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// configFilePermissions is the standard permission mode for config files.
// Owner read/write, group and others read-only.
const configFilePermissions = 0o644

// configDirPermissions is the standard permission mode for config directories.
const configDirPermissions = 0o755

// configTemplate is the default config file content written by "config init".
// All settings are present as commented-out defaults so users can discover
// every option without reading docs. The template is written once and never
// regenerated — user modifications are preserved.
const configTemplate = `# gdrive-go configuration
# Docs: https://github.com/drivedrawers/gdrive-go

# Cloud storage backend. Only "google-drive" is implemented.
# provider = "google-drive"

# [auth]
# OAuth2 public client used for the interactive browser grant.
# client_id = "` + defaultClientID + `"
# scopes = ["` + defaultScope + `"]
# Path of the SQLite database holding the credential slot.
# state_db = ""

# [preview]
# Allow viewer URLs that embed the bearer token as a query parameter.
# Anyone holding such a URL can read the file.
# allow_token_in_viewer_url = true

# [logging]
# Verbosity: debug, info, warn, error
# log_level = "info"
# Output format: auto, text, json
# log_format = "auto"

# [network]
# HTTP timeout for Drive requests. "0" disables the timeout.
# timeout = "30s"
# user_agent = "` + defaultUserAgent + `"
`

// WriteDefaultTemplate creates a new config file from the default template.
// Fails if the file already exists, so "config init" never clobbers user
// edits. The write is atomic (temp file + rename) and parent directories
// are created as needed.
func WriteDefaultTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	return atomicWriteFile(path, []byte(configTemplate))
}

// atomicWriteFile writes data to a temporary file in the same directory as
// path, then renames it to the target path. This prevents partial writes
// from corrupting the config file on crash. Parent directories are created
// as needed. Files are created with configFilePermissions (0644).
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, configDirPermissions); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tempPath := f.Name()

	// Clean up the temp file on any error path.
	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tempPath, configFilePermissions); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	succeeded = true

	return nil
}
