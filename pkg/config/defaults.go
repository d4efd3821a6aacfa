package config

import "time"

// Default values for configuration fields.
const (
	// DefaultConfigPath is read by Load when no path is given.
	DefaultConfigPath = "relay.yaml"

	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "text"

	DefaultMetricsNamespace = "relay"

	DefaultSecretsCacheTTL     = 5 * time.Minute
	DefaultSecretsCacheMaxSize = 100
)

// DefaultLatencyBuckets spans quick local models to slow reasoning models.
var DefaultLatencyBuckets = []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// ApplyDefaults fills zero-valued fields. It is idempotent.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Metrics.LatencyBuckets) == 0 {
		cfg.Metrics.LatencyBuckets = append([]float64(nil), DefaultLatencyBuckets...)
	}

	if cfg.Secrets.Cache.TTL == 0 {
		cfg.Secrets.Cache.TTL = DefaultSecretsCacheTTL
	}
	if cfg.Secrets.Cache.MaxSize == 0 {
		cfg.Secrets.Cache.MaxSize = DefaultSecretsCacheMaxSize
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]map[string]string)
	}
}

// NewDefault returns a configuration with every default applied.
func NewDefault() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
