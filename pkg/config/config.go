package config

import "time"

// Config is the root configuration for relay.
type Config struct {
	// Logging configures the process logger.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus provider metrics.
	Metrics MetricsConfig `yaml:"metrics"`

	// Secrets configures where API keys are read from.
	Secrets SecretsConfig `yaml:"secrets"`

	// Providers holds per-backend configuration values keyed by backend name
	// and then by config key, for example providers.google.GOOGLE_HOST.
	// Values may reference secrets as ${secret:NAME}.
	Providers map[string]map[string]string `yaml:"providers"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum level emitted.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the output encoding.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line in log entries.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	// Enabled turns on provider metrics.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "relay"
	Namespace string `yaml:"namespace"`

	// LatencyBuckets are the completion latency histogram buckets in seconds.
	// Default: [0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120]
	LatencyBuckets []float64 `yaml:"latency_buckets"`
}

// SecretsConfig contains secret lookup configuration.
type SecretsConfig struct {
	// EnvPrefix is prepended to secret names when reading the environment.
	// Empty means secrets are read from variables of the same name.
	EnvPrefix string `yaml:"env_prefix"`

	// FilePath is a directory holding one file per secret. Empty disables
	// file secrets.
	FilePath string `yaml:"file_path"`

	// Watch reloads file secrets when they change. Requires FilePath.
	Watch bool `yaml:"watch"`

	// Cache controls secret caching.
	Cache SecretsCacheConfig `yaml:"cache"`
}

// SecretsCacheConfig contains secret cache configuration.
type SecretsCacheConfig struct {
	// Disabled turns caching off.
	Disabled bool `yaml:"disabled"`

	// TTL is how long a looked-up secret is reused.
	// Default: 5m
	TTL time.Duration `yaml:"ttl"`

	// MaxSize bounds the number of cached secrets.
	// Default: 100
	MaxSize int `yaml:"max_size"`
}
