package providerfactory

import (
	"log/slog"
	"sort"
	"sync"

	"mercator-hq/relay/pkg/providers"
)

// Manager caches constructed adapters so long-lived callers reuse one
// transport per backend and model. It never caches completions.
//
// Manager is thread-safe and can be used concurrently.
type Manager struct {
	store     providers.ConfigStore
	opts      []Option
	providers map[managerKey]providers.Provider
	mu        sync.RWMutex
}

type managerKey struct {
	name  string
	model providers.ModelConfig
}

type idleCloser interface {
	CloseIdleConnections()
}

// NewManager creates a manager that builds adapters from store with opts.
func NewManager(store providers.ConfigStore, opts ...Option) *Manager {
	return &Manager{
		store:     store,
		opts:      opts,
		providers: make(map[managerKey]providers.Provider),
	}
}

// Get returns the adapter for name and model, building it on first use.
// Construction errors are not cached; the next call tries again.
func (m *Manager) Get(name string, model providers.ModelConfig) (providers.Provider, error) {
	key := managerKey{name: name, model: model}

	m.mu.RLock()
	p, ok := m.providers[key]
	m.mu.RUnlock()
	if ok {
		return p, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.providers[key]; ok {
		return p, nil
	}

	p, err := Create(name, model, m.store, m.opts...)
	if err != nil {
		return nil, err
	}
	m.providers[key] = p

	slog.Debug("provider added to manager",
		"name", name,
		"model", model.ModelName,
		"total_providers", len(m.providers),
	)

	return p, nil
}

// Names returns the names of backends with at least one cached adapter, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{}, len(m.providers))
	names := make([]string, 0, len(m.providers))
	for key := range m.providers {
		if _, ok := seen[key.name]; ok {
			continue
		}
		seen[key.name] = struct{}{}
		names = append(names, key.name)
	}
	sort.Strings(names)

	return names
}

// Len returns the number of cached adapters.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.providers)
}

// Reset drops every cached adapter and releases idle HTTP connections.
// Completions already in flight keep using the adapter they started with.
func (m *Manager) Reset() {
	m.mu.Lock()
	old := m.providers
	m.providers = make(map[managerKey]providers.Provider)
	m.mu.Unlock()

	for _, p := range old {
		if c, ok := p.(idleCloser); ok {
			c.CloseIdleConnections()
		}
	}

	slog.Debug("provider manager reset", "released", len(old))
}
