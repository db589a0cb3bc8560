// Package filex contains small filesystem helpers for the CLI.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates dir (and parents) if missing and returns its absolute
// path. A relative dir is resolved against the working directory.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}

// SafeName reduces a remote object name to a single path element so that a
// download can never escape its target directory.
func SafeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." || base == "" {
		return "download"
	}
	return base
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
