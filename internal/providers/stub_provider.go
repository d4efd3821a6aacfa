package providers

import (
	"context"
	"sync"

	"mercator-hq/relay/pkg/providers"
)

// StubProvider is an in-memory Provider returning a fixed reply or error.
type StubProvider struct {
	Name  string
	Model providers.ModelConfig

	Reply providers.Message
	Usage providers.ProviderUsage
	Err   error

	mu     sync.Mutex
	calls  int
	closed int
}

// Metadata implements providers.Provider.
func (s *StubProvider) Metadata() providers.ProviderMetadata {
	return providers.ProviderMetadata{Name: s.Name, DisplayName: s.Name, DefaultModel: s.Model.ModelName}
}

// GetModelConfig implements providers.Provider.
func (s *StubProvider) GetModelConfig() providers.ModelConfig {
	return s.Model
}

// Complete implements providers.Provider.
func (s *StubProvider) Complete(ctx context.Context, system string, messages []providers.Message, tools []providers.Tool) (providers.Message, providers.ProviderUsage, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return providers.Message{}, providers.ProviderUsage{}, err
	}
	if s.Err != nil {
		return providers.Message{}, providers.ProviderUsage{}, s.Err
	}
	return s.Reply, s.Usage, nil
}

// CloseIdleConnections counts calls so tests can observe pool shutdown.
func (s *StubProvider) CloseIdleConnections() {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
}

// Calls returns the number of Complete calls.
func (s *StubProvider) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Closed returns the number of CloseIdleConnections calls.
func (s *StubProvider) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
