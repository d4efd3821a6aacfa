package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "relay.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
logging:
  level: debug
  format: json
metrics:
  enabled: true
  latency_buckets: [1, 5, 10]
secrets:
  env_prefix: RELAY_SECRET_
  cache:
    ttl: 30s
providers:
  google:
    GOOGLE_HOST: https://proxy.example.com
  python:
    PYTHON_PROVIDER_CMD: python3 wrapper.py
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}
	if !cfg.Metrics.Enabled || len(cfg.Metrics.LatencyBuckets) != 3 {
		t.Errorf("unexpected metrics %+v", cfg.Metrics)
	}
	if cfg.Metrics.Namespace != DefaultMetricsNamespace {
		t.Errorf("expected default namespace, got %q", cfg.Metrics.Namespace)
	}
	if cfg.Secrets.EnvPrefix != "RELAY_SECRET_" {
		t.Errorf("expected env prefix, got %q", cfg.Secrets.EnvPrefix)
	}
	if cfg.Secrets.Cache.TTL != 30*time.Second {
		t.Errorf("expected 30s ttl, got %s", cfg.Secrets.Cache.TTL)
	}
	if got := cfg.Providers["google"]["GOOGLE_HOST"]; got != "https://proxy.example.com" {
		t.Errorf("expected google host, got %q", got)
	}
	if got := cfg.Providers["python"]["PYTHON_PROVIDER_CMD"]; got != "python3 wrapper.py" {
		t.Errorf("expected python command, got %q", got)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := writeConfig(t, dir, "logging: [unclosed")
	if _, err := LoadConfig(bad); err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("expected parse error, got %v", err)
	}

	invalid := writeConfig(t, dir, "logging:\n  level: loud\n")
	if _, err := LoadConfig(invalid); err == nil || !strings.Contains(err.Error(), "logging.level") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "logging:\n  level: info\n")

	t.Setenv("RELAY_LOGGING_LEVEL", "warn")
	t.Setenv("RELAY_LOGGING_FORMAT", "json")
	t.Setenv("RELAY_METRICS_ENABLED", "true")
	t.Setenv("RELAY_SECRETS_FILE_PATH", "/run/secrets")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("expected level override, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected format override, got %q", cfg.Logging.Format)
	}
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics override")
	}
	if cfg.Secrets.FilePath != "/run/secrets" {
		t.Errorf("expected file path override, got %q", cfg.Secrets.FilePath)
	}
}

func TestLoadConfigWithEnvOverrides_Invalid(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "")

	t.Setenv("RELAY_METRICS_ENABLED", "sometimes")
	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Error("expected error for unparsable boolean")
	}

	t.Setenv("RELAY_METRICS_ENABLED", "")
	t.Setenv("RELAY_LOGGING_LEVEL", "chatty")
	_, err := LoadConfigWithEnvOverrides(path)
	if err == nil || !strings.Contains(err.Error(), "after environment overrides") {
		t.Errorf("expected revalidation error, got %v", err)
	}
}

func TestLoad_DefaultPath(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected defaults without a config file, got %v", err)
	}
	if cfg.Logging.Level != DefaultLoggingLevel {
		t.Errorf("expected default level, got %q", cfg.Logging.Level)
	}

	writeConfig(t, dir, "logging:\n  level: error\n")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("failed to load default path: %v", err)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("expected level from %s, got %q", DefaultConfigPath, cfg.Logging.Level)
	}
}

func TestLoad_ExplicitMissingPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for an explicit missing path")
	}
}
