package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from the YAML file at path, applies
// defaults and validates the result. Environment variables are not consulted;
// use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads path and then applies RELAY_* environment
// overrides, which take precedence over the file. The result is validated
// again after the overrides.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return withEnvOverrides(cfg)
}

// Load is the entry point used by the CLI. An empty path reads
// DefaultConfigPath if it exists and otherwise starts from the defaults.
// Environment overrides are applied in every case.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadConfigWithEnvOverrides(path)
	}

	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return LoadConfigWithEnvOverrides(DefaultConfigPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %q: %w", DefaultConfigPath, err)
	}

	return withEnvOverrides(NewDefault())
}

func withEnvOverrides(cfg *Config) (*Config, error) {
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies RELAY_SECTION_FIELD variables.
func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("RELAY_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("RELAY_LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
	if val := os.Getenv("RELAY_METRICS_ENABLED"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid RELAY_METRICS_ENABLED %q: %w", val, err)
		}
		cfg.Metrics.Enabled = b
	}
	if val := os.Getenv("RELAY_SECRETS_FILE_PATH"); val != "" {
		cfg.Secrets.FilePath = val
	}
	if val := os.Getenv("RELAY_SECRETS_ENV_PREFIX"); val != "" {
		cfg.Secrets.EnvPrefix = val
	}
	return nil
}
