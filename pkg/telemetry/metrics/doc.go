// Package metrics provides Prometheus metrics for provider completions.
//
// ProviderMetrics owns the counters and the latency histogram. Instrument
// decorates any providers.Provider so that calls are recorded without the
// adapters knowing about Prometheus, and RetryObserver plugs the rate-limit
// retry counter into the HTTP transport:
//
//	registry := prometheus.NewRegistry()
//	pm := metrics.NewProviderMetrics(cfg.Metrics, registry)
//
//	p, err := providerfactory.Create("google", model, store,
//	    providerfactory.WithTransportOptions(providers.WithRetryObserver(pm.RetryObserver())))
//	if err != nil {
//	    return err
//	}
//	p = metrics.Instrument(p, pm)
//
// Latency buckets default to config.DefaultLatencyBuckets, which span the
// sub-second to multi-minute range of LLM generations.
//
// Model names come from callers, so the number of distinct provider/model
// label pairs is capped; pairs beyond the cap are recorded as model="other".
//
// Handler serves the registry over HTTP and WriteText dumps it in the text
// exposition format, which the CLI uses for --metrics.
package metrics
