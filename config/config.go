// Package config holds application-wide constants and the on-disk layout of Wallify.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DataDirEnv overrides the data directory when set.
const DataDirEnv = "WALLIFY_HOME"

// GetPath returns the path to the user's Wallify data directory.
// It honours WALLIFY_HOME so headless hosts can relocate state.
func GetPath() (string, error) {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting user home directory: %w", err)
	}
	return filepath.Join(homeDir, "."+strings.ToLower(AppName)), nil
}

// EnsurePath returns the data directory, creating it if needed.
func EnsurePath() (string, error) {
	dir, err := GetPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", dir, err)
	}
	return dir, nil
}

// PrefsFile returns the path of the preference store file.
func PrefsFile() (string, error) {
	dir, err := GetPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, PrefsFileName), nil
}

// ScratchDir returns the directory used for in-flight downloads.
func ScratchDir() (string, error) {
	dir, err := GetPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache"), nil
}

// ExportDir returns the directory fitted wallpapers are written to before being applied.
func ExportDir() (string, error) {
	dir, err := GetPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "current"), nil
}
