package config

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"mercator-hq/relay/pkg/providerfactory"
)

// metricNameRegex is the Prometheus metric name grammar.
var metricNameRegex = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)

// FieldError is a validation failure of one configuration field.
type FieldError struct {
	// Field is the dotted path to the field (e.g., "logging.level").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every field error found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate checks the whole configuration and returns a ValidationError
// holding every problem found, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateMetrics(&cfg.Metrics)...)
	errs = append(errs, validateSecrets(&cfg.Secrets)...)
	errs = append(errs, validateProviders(cfg.Providers)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level %q (must be debug, info, warn or error)", cfg.Level),
		})
	}

	switch cfg.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format %q (must be json or text)", cfg.Format),
		})
	}

	return errs
}

func validateMetrics(cfg *MetricsConfig) []FieldError {
	var errs []FieldError

	if !metricNameRegex.MatchString(cfg.Namespace) {
		errs = append(errs, FieldError{
			Field:   "metrics.namespace",
			Message: fmt.Sprintf("invalid metric namespace %q", cfg.Namespace),
		})
	}

	for i, b := range cfg.LatencyBuckets {
		if b <= 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("metrics.latency_buckets[%d]", i),
				Message: "bucket must be positive",
			})
		}
		if i > 0 && b <= cfg.LatencyBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("metrics.latency_buckets[%d]", i),
				Message: "buckets must be strictly increasing",
			})
		}
	}

	return errs
}

func validateSecrets(cfg *SecretsConfig) []FieldError {
	var errs []FieldError

	if cfg.Watch && cfg.FilePath == "" {
		errs = append(errs, FieldError{
			Field:   "secrets.watch",
			Message: "watching requires secrets.file_path",
		})
	}
	if cfg.Cache.TTL < 0 {
		errs = append(errs, FieldError{
			Field:   "secrets.cache.ttl",
			Message: "ttl must not be negative",
		})
	}
	if cfg.Cache.MaxSize < 0 {
		errs = append(errs, FieldError{
			Field:   "secrets.cache.max_size",
			Message: "max size must not be negative",
		})
	}

	return errs
}

// validateProviders checks section names against the registry and keys
// against each backend's declared config keys.
func validateProviders(sections map[string]map[string]string) []FieldError {
	var errs []FieldError

	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		md, ok := providerfactory.Lookup(name)
		if !ok {
			errs = append(errs, FieldError{
				Field:   "providers." + name,
				Message: fmt.Sprintf("unknown provider (supported: %s)", strings.Join(providerfactory.Names(), ", ")),
			})
			continue
		}

		allowed := make(map[string]bool, len(md.ConfigKeys))
		for _, k := range md.ConfigKeys {
			allowed[k.Name] = true
		}

		keys := make([]string, 0, len(sections[name]))
		for key := range sections[name] {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if !allowed[key] {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("providers.%s.%s", name, key),
					Message: "unknown config key",
				})
			}
		}
	}

	return errs
}
