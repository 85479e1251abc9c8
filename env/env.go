// Package env centralizes the process configuration this implementation
// reads from the environment: JYAFN_PATH and JYAFN_SOPATH (§6 Environment).
// A .env file next to an embedding binary is loaded first (if present) via
// github.com/joho/godotenv, so a host doesn't have to export real
// environment variables just to configure extension search paths.
package env

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

var loadDotenvOnce sync.Once

// loadDotenv loads a .env file from the current working directory if one
// exists. It is silent on a missing file (the common case) and also on a
// malformed one: godotenv.Load's error is discarded.
func loadDotenv() {
	loadDotenvOnce.Do(func() {
		if _, err := os.Stat(".env"); err == nil {
			_ = godotenv.Load()
		}
	})
}

const defaultExtensionDir = ".jyafn/extensions"

// ExtensionPaths returns the colon-separated directories JYAFN_PATH names,
// falling back to $HOME/.jyafn/extensions when unset.
func ExtensionPaths() []string {
	loadDotenv()
	if v := os.Getenv("JYAFN_PATH"); v != "" {
		return strings.Split(v, ":")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, defaultExtensionDir)}
}

// SharedObjectPathOverride returns JYAFN_SOPATH, the optional override for
// the core shared library location used by host bindings, or "" if unset.
func SharedObjectPathOverride() string {
	loadDotenv()
	return os.Getenv("JYAFN_SOPATH")
}
