package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != DefaultLoggingLevel {
		t.Errorf("expected level %q, got %q", DefaultLoggingLevel, cfg.Logging.Level)
	}
	if cfg.Logging.Format != DefaultLoggingFormat {
		t.Errorf("expected format %q, got %q", DefaultLoggingFormat, cfg.Logging.Format)
	}
	if cfg.Metrics.Enabled {
		t.Error("expected metrics disabled by default")
	}
	if cfg.Metrics.Namespace != "relay" {
		t.Errorf("expected namespace relay, got %q", cfg.Metrics.Namespace)
	}
	if len(cfg.Metrics.LatencyBuckets) != len(DefaultLatencyBuckets) {
		t.Errorf("expected default buckets, got %v", cfg.Metrics.LatencyBuckets)
	}
	if cfg.Secrets.Cache.TTL != 5*time.Minute {
		t.Errorf("expected 5m secret TTL, got %s", cfg.Secrets.Cache.TTL)
	}
	if cfg.Secrets.Cache.MaxSize != DefaultSecretsCacheMaxSize {
		t.Errorf("expected max size %d, got %d", DefaultSecretsCacheMaxSize, cfg.Secrets.Cache.MaxSize)
	}
	if cfg.Providers == nil {
		t.Error("expected providers map to be initialized")
	}
}

func TestApplyDefaults_KeepsSetValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "debug", Format: "json"},
		Metrics: MetricsConfig{Namespace: "custom", LatencyBuckets: []float64{1, 2}},
		Secrets: SecretsConfig{Cache: SecretsCacheConfig{TTL: time.Hour, MaxSize: 3}},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("expected logging kept, got %+v", cfg.Logging)
	}
	if cfg.Metrics.Namespace != "custom" || len(cfg.Metrics.LatencyBuckets) != 2 {
		t.Errorf("expected metrics kept, got %+v", cfg.Metrics)
	}
	if cfg.Secrets.Cache.TTL != time.Hour || cfg.Secrets.Cache.MaxSize != 3 {
		t.Errorf("expected cache kept, got %+v", cfg.Secrets.Cache)
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := NewDefault()
	before := len(cfg.Metrics.LatencyBuckets)

	ApplyDefaults(cfg)
	ApplyDefaults(cfg)

	if len(cfg.Metrics.LatencyBuckets) != before {
		t.Errorf("expected buckets unchanged, got %v", cfg.Metrics.LatencyBuckets)
	}

	// The default bucket slice must not be shared.
	cfg.Metrics.LatencyBuckets[0] = 99
	if DefaultLatencyBuckets[0] == 99 {
		t.Error("expected defaults to be copied")
	}
}

func TestNewDefault_Valid(t *testing.T) {
	if err := Validate(NewDefault()); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}
