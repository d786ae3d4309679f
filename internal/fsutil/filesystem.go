// Package fsutil provides small filesystem helpers shared by the FITS
// read/write entry points and the command-line tools.
package fsutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a path-like string to a filesystem path:
// environment-variable references ($VAR and ${VAR}) are expanded and a
// leading "~" is replaced with the user's home directory. The result
// is cleaned but not required to exist.
func ExpandPath(path string) string {
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return filepath.Clean(path)
}

// Exists checks if a file or directory exists.
func Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// EnsureDir creates a directory and all necessary parents.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
