package metrics

import (
	"context"
	"time"

	"mercator-hq/relay/pkg/providers"
)

// instrumented records ProviderMetrics around another Provider.
type instrumented struct {
	providers.Provider
	metrics *ProviderMetrics
	now     func() time.Time
}

// Instrument wraps p so every Complete call is counted, timed and has its
// token usage recorded. A nil pm returns p unchanged.
func Instrument(p providers.Provider, pm *ProviderMetrics) providers.Provider {
	if pm == nil || p == nil {
		return p
	}
	return &instrumented{Provider: p, metrics: pm, now: time.Now}
}

func (i *instrumented) Complete(ctx context.Context, system string, messages []providers.Message, tools []providers.Tool) (providers.Message, providers.ProviderUsage, error) {
	name := i.Provider.Metadata().Name
	model := i.Provider.GetModelConfig().ModelName

	i.metrics.RecordRequest(name, model)
	start := i.now()

	msg, usage, err := i.Provider.Complete(ctx, system, messages, tools)

	i.metrics.RecordLatency(name, model, i.now().Sub(start))
	if err != nil {
		i.metrics.RecordError(name, err)
		return msg, usage, err
	}

	i.metrics.RecordUsage(name, usage.Usage)
	return msg, usage, nil
}

// CloseIdleConnections forwards to the wrapped adapter when it pools
// connections.
func (i *instrumented) CloseIdleConnections() {
	if c, ok := i.Provider.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

// Unwrap returns the wrapped adapter.
func (i *instrumented) Unwrap() providers.Provider {
	return i.Provider
}
