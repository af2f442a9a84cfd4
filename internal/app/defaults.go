package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - SITEREPORTS_CONFIG_PATH: config file location (default: ~/.config/sitereports.toml)
//   - SITEREPORTS_HOME: base directory for sitereports data (default: ~/.local/share/sitereports)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path":  configPath,
		"base_dir":     baseDir,
		"log_dir":      filepath.Join(baseDir, "log"),
		"instance_dir": filepath.Join(baseDir, "instance"),
	}, nil
}

// getConfigPath returns the config file path, checking SITEREPORTS_CONFIG_PATH first,
// then falling back to the default ~/.config/sitereports.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("SITEREPORTS_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "sitereports.toml"), nil
}

// getBaseDir returns the base directory for sitereports data, checking SITEREPORTS_HOME
// first, then falling back to the XDG default ~/.local/share/sitereports.
func getBaseDir() (string, error) {
	if path := os.Getenv("SITEREPORTS_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "sitereports"), nil
}
