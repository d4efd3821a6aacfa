package health

import (
	"context"
	"fmt"

	"mercator-hq/relay/pkg/providerfactory"
	"mercator-hq/relay/pkg/providers"
)

// ProbePrompt is sent by live provider checks.
const ProbePrompt = "Reply with the single word: ok"

// ProviderCheck returns a check that builds the named backend from store.
// A build failure caused by missing configuration reports unconfigured.
//
// With live set, the check also sends ProbePrompt with a one-token output
// cap, which proves the credentials are accepted. Live checks are billed
// by the backend like any other completion.
func ProviderCheck(name string, store providers.ConfigStore, live bool, opts ...providerfactory.Option) CheckFunc {
	return func(ctx context.Context) error {
		md, ok := providerfactory.Lookup(name)
		if !ok {
			return &providerfactory.UnknownProviderError{Name: name}
		}

		model := providers.ModelConfig{ModelName: md.DefaultModel, MaxTokens: 1}
		p, err := providerfactory.Create(name, model, store, opts...)
		if err != nil {
			return err
		}
		if !live {
			return nil
		}

		if c, ok := p.(interface{ CloseIdleConnections() }); ok {
			defer c.CloseIdleConnections()
		}

		_, _, err = p.Complete(ctx, "", []providers.Message{providers.NewUserMessage(ProbePrompt)}, nil)
		if err != nil {
			return fmt.Errorf("probe completion failed: %w", err)
		}
		return nil
	}
}

// RegisterProviders registers a ProviderCheck for each name. An empty list
// registers every compiled-in backend.
func RegisterProviders(c *Checker, names []string, store providers.ConfigStore, live bool, opts ...providerfactory.Option) {
	if len(names) == 0 {
		names = providerfactory.Names()
	}
	for _, name := range names {
		c.RegisterCheck(name, ProviderCheck(name, store, live, opts...))
	}
}
