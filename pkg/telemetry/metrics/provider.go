package metrics

import (
	"time"

	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/providers"

	"github.com/prometheus/client_golang/prometheus"
)

// maxModelLabels caps distinct provider/model pairs; later pairs are
// recorded under model="other".
const maxModelLabels = 1000

// ProviderMetrics tracks completion traffic per backend.
//
// Metrics (with the default "relay" namespace):
//   - relay_provider_requests_total{provider,model}
//   - relay_provider_errors_total{provider,kind}
//   - relay_provider_latency_seconds{provider,model}
//   - relay_provider_tokens_total{provider,direction}
//   - relay_provider_rate_limit_retries_total{provider}
type ProviderMetrics struct {
	// Completion calls per provider and model
	requests *prometheus.CounterVec

	// Failed calls by ProviderError kind
	errors *prometheus.CounterVec

	// Wall time of Complete, including retries
	latency *prometheus.HistogramVec

	// Input and output tokens reported by backends
	tokens *prometheus.CounterVec

	// 429 retries taken by the HTTP transport
	retries *prometheus.CounterVec

	models *CardinalityLimiter
}

// NewProviderMetrics creates provider metrics and registers them with
// registry. A nil registry means prometheus.DefaultRegisterer.
func NewProviderMetrics(cfg config.MetricsConfig, registry prometheus.Registerer) *ProviderMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = config.DefaultMetricsNamespace
	}
	buckets := cfg.LatencyBuckets
	if len(buckets) == 0 {
		buckets = config.DefaultLatencyBuckets
	}

	pm := &ProviderMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "requests_total",
				Help:      "Total number of completion requests to each provider",
			},
			[]string{"provider", "model"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "errors_total",
				Help:      "Total number of failed completions by error kind",
			},
			[]string{"provider", "kind"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "latency_seconds",
				Help:      "Completion latency in seconds, including rate-limit retries",
				Buckets:   buckets,
			},
			[]string{"provider", "model"},
		),

		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "tokens_total",
				Help:      "Total tokens reported by providers",
			},
			[]string{"provider", "direction"},
		),

		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "rate_limit_retries_total",
				Help:      "Total number of retries after a rate-limited response",
			},
			[]string{"provider"},
		),

		models: NewCardinalityLimiter(maxModelLabels),
	}

	registry.MustRegister(
		pm.requests,
		pm.errors,
		pm.latency,
		pm.tokens,
		pm.retries,
	)

	return pm
}

// modelLabel returns model, or "other" once the label budget is spent.
func (pm *ProviderMetrics) modelLabel(provider, model string) string {
	if pm.models.Allow(provider + ":" + model) {
		return model
	}
	return "other"
}

// RecordRequest counts one completion call.
func (pm *ProviderMetrics) RecordRequest(provider, model string) {
	pm.requests.WithLabelValues(provider, pm.modelLabel(provider, model)).Inc()
}

// RecordLatency observes the duration of one completion call.
func (pm *ProviderMetrics) RecordLatency(provider, model string, d time.Duration) {
	pm.latency.WithLabelValues(provider, pm.modelLabel(provider, model)).Observe(d.Seconds())
}

// RecordError counts a failed completion. Errors that carry no
// ProviderError (e.g. a cancelled context) are counted as "unknown".
func (pm *ProviderMetrics) RecordError(provider string, err error) {
	kind := "unknown"
	if k, ok := providers.KindOf(err); ok {
		kind = k.String()
	}
	pm.errors.WithLabelValues(provider, kind).Inc()
}

// RecordUsage adds reported token counts. Zero usage adds nothing.
func (pm *ProviderMetrics) RecordUsage(provider string, usage providers.Usage) {
	if usage.InputTokens > 0 {
		pm.tokens.WithLabelValues(provider, "input").Add(float64(usage.InputTokens))
	}
	if usage.OutputTokens > 0 {
		pm.tokens.WithLabelValues(provider, "output").Add(float64(usage.OutputTokens))
	}
}

// RecordRetry counts one rate-limit retry.
func (pm *ProviderMetrics) RecordRetry(provider string) {
	pm.retries.WithLabelValues(provider).Inc()
}

// RetryObserver adapts RecordRetry for providers.WithRetryObserver.
func (pm *ProviderMetrics) RetryObserver() providers.RetryObserver {
	return func(provider string, attempt int, delay time.Duration) {
		pm.RecordRetry(provider)
	}
}
