// Package config holds the settings keys, defaults and path helpers shared by
// the CLI commands.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands a leading ~ and $VAR references in path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}

// ConfigDir returns the directory searched for config.yaml.
func ConfigDir() string {
	return ExpandPath("~/.config/tradeflow")
}

// DefaultDatabasePath returns the database location used when database.path is unset.
func DefaultDatabasePath() string {
	return ExpandPath("~/.local/share/tradeflow/tradeflow.db")
}
