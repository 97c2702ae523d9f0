// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Variables with a fallback when unset. MANDANT_DATA_DIR holds the database
// and MANDANT_CONFIG_DIR the config file and the Sheets token.
const (
	DataDirVar   = "MANDANT_DATA_DIR"
	ConfigDirVar = "MANDANT_CONFIG_DIR"
)

// ExpandPath expands a leading ~ and $VAR references in path. MANDANT_DATA_DIR
// and MANDANT_CONFIG_DIR fall back to the XDG directories, which in turn fall
// back to ~/.local/share and ~/.config.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	home, homeErr := os.UserHomeDir()
	if homeErr == nil {
		if path == "~" {
			path = home
		} else if strings.HasPrefix(path, "~/") {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.Expand(path, func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return fallbackDir(name, home)
	})
}

// DataDir is the directory the database lives in by default.
func DataDir() string {
	return ExpandPath("$" + DataDirVar)
}

// ConfigDir is the directory searched for config.yaml.
func ConfigDir() string {
	return ExpandPath("$" + ConfigDirVar)
}

func fallbackDir(name, home string) string {
	if home == "" {
		return ""
	}
	switch name {
	case "XDG_DATA_HOME":
		return filepath.Join(home, ".local", "share")
	case "XDG_CONFIG_HOME":
		return filepath.Join(home, ".config")
	case DataDirVar:
		return filepath.Join(xdgDir("XDG_DATA_HOME", home), "mandant")
	case ConfigDirVar:
		return filepath.Join(xdgDir("XDG_CONFIG_HOME", home), "mandant")
	}
	return ""
}

func xdgDir(name, home string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallbackDir(name, home)
}
