package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - PUNCH_CONFIG_PATH: config file location (default: ~/.config/punch.toml)
//   - PUNCH_HOME: base directory for punch data (default: ~/.local/share/punch)
func GetDefaults() (map[string]string, error) {
	configPath, err := envOrHome("PUNCH_CONFIG_PATH", ".config", "punch.toml")
	if err != nil {
		return nil, err
	}

	baseDir, err := envOrHome("PUNCH_HOME", ".local", "share", "punch")
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// envOrHome returns the value of the environment variable env, falling back
// to the given path under the user's home directory.
func envOrHome(env string, elem ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}
