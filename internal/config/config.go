// Package config loads the application configuration from
// ~/.koasset/config.yaml. A missing file means defaults; a malformed
// file is an error rather than silently ignored.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds user-tunable application settings. Everything has a
// working default; the file is optional.
type Config struct {
	// VaultDir is the directory holding the database, audit logs, and
	// MCP policy. Default ~/.koasset.
	VaultDir string `yaml:"vault_dir"`

	// Currency is the ISO 4217 code used to render cent values.
	Currency string `yaml:"currency"`

	// ReviewDays is the staleness window for asset review reminders.
	ReviewDays int `yaml:"review_days"`
}

// FileName is the config file name inside the vault directory's
// parent (~/.koasset/config.yaml by default).
const FileName = "config.yaml"

// Default returns the built-in configuration.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("config: cannot determine home directory: %w", err)
	}
	return &Config{
		VaultDir:   filepath.Join(home, ".koasset"),
		Currency:   "USD",
		ReviewDays: 180,
	}, nil
}

// Load reads the config file at path, falling back to defaults for
// any field left unset. A missing file returns pure defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	if file.VaultDir != "" {
		cfg.VaultDir = file.VaultDir
	}
	if file.Currency != "" {
		cfg.Currency = file.Currency
	}
	if file.ReviewDays > 0 {
		cfg.ReviewDays = file.ReviewDays
	}
	return cfg, nil
}

// DefaultPath returns the conventional config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".koasset", FileName), nil
}
