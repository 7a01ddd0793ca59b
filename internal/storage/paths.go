// Package storage persists game reviews in BadgerDB.
package storage

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "chesstactics"

// GetDataDir returns the platform-specific data directory for the application.
// - macOS: ~/Library/Application Support/chesstactics/
// - Linux: $XDG_DATA_HOME/chesstactics/ or ~/.local/share/chesstactics/
// - Windows: %APPDATA%/chesstactics/
//
// The directory is not created; Open does that for the database.
func GetDataDir() (string, error) {
	return dataDir(runtime.GOOS, os.Getenv, os.UserHomeDir)
}

// GetDatabaseDir returns the directory holding the review database.
func GetDatabaseDir() (string, error) {
	dir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "db"), nil
}

func dataDir(goos string, getenv func(string) string, home func() (string, error)) (string, error) {
	var baseDir string

	switch goos {
	case "darwin":
		homeDir, err := home()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support")

	case "windows":
		baseDir = getenv("APPDATA")
		if baseDir == "" {
			homeDir, err := home()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, "AppData", "Roaming")
		}

	default:
		// XDG only counts when absolute
		baseDir = getenv("XDG_DATA_HOME")
		if !filepath.IsAbs(baseDir) {
			homeDir, err := home()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".local", "share")
		}
	}

	if baseDir == "" {
		return "", errors.New("storage: no base directory for application data")
	}
	return filepath.Join(baseDir, appName), nil
}
