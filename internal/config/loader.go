package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default defaults-file name.
const DefaultConfigFile = ".autotagger"

// ErrConfigNotFound is returned when the defaults file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File holds defaults loaded from the YAML configuration file. Fields
// are pointers so that an absent key can be distinguished from an
// explicit zero; only present keys override built-in defaults, and CLI
// flags override both.
type File struct {
	// Threshold overrides the default minimum tag confidence.
	Threshold *float64 `yaml:"threshold"`

	// Limit overrides the default maximum tags per image.
	Limit *int `yaml:"limit"`

	// Batch overrides the default images per inference call.
	Batch *int `yaml:"batch"`

	// Model overrides the default model file path.
	Model string `yaml:"model"`

	// Cache enables the prediction cache by default.
	Cache *bool `yaml:"cache"`
}

// Apply copies the file's present values onto cfg. Flag handling runs
// after this, so explicitly set flags still win.
func (f *File) Apply(cfg *Config) {
	if f.Threshold != nil {
		cfg.Threshold = *f.Threshold
	}
	if f.Limit != nil {
		cfg.Limit = *f.Limit
	}
	if f.Batch != nil {
		cfg.BatchSize = *f.Batch
	}
	if f.Model != "" {
		cfg.ModelPath = f.Model
	}
	if f.Cache != nil {
		cfg.UseCache = *f.Cache
	}
}

// LoadConfigFile loads defaults from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers
// should handle this based on whether the path was explicitly
// specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// FindConfigFile searches for the defaults file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .autotagger in the current directory
// 3. Look for .autotagger in the user's home directory
//
// Returns the path to the file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
