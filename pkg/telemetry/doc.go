// Package telemetry groups the observability packages used by relay.
//
//   - logging: log/slog setup with credential redaction and request-scoped fields
//   - metrics: Prometheus counters and latency histograms for completions
//   - health: concurrent readiness checks for configured backends
//
// The relay command wires all three: logging from the configuration file,
// metrics with --metrics, and health checks behind `relay check`.
package telemetry
