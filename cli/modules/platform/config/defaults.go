package config

import (
	"os"
	"path/filepath"
)

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	// Try current directory first
	cwd, err := os.Getwd()
	if err == nil {
		return filepath.Join(cwd, DefaultConfigFileName)
	}

	return DefaultConfigFileName
}

// GetUserConfigDir returns the user's config directory for weaver
func GetUserConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".config", "weaver"), nil
}

// GetDataDir returns the data directory for weaver
func GetDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".local", "share", "weaver"), nil
}

// DefaultLogPath returns the log file used when none is configured
func DefaultLogPath() string {
	dir, err := GetDataDir()
	if err != nil {
		return "weaver.log"
	}
	return filepath.Join(dir, "weaver.log")
}

func defaultDatabasePath() string {
	dir, err := GetDataDir()
	if err != nil {
		return "weaver.db"
	}
	return filepath.Join(dir, "weaver.db")
}

// EnsureDirectories creates all necessary directories
func EnsureDirectories() error {
	dirs := []func() (string, error){
		GetUserConfigDir,
		GetDataDir,
	}

	for _, dirFunc := range dirs {
		dir, err := dirFunc()
		if err != nil {
			continue // Skip if we can't get the directory path
		}

		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}
