package providerfactory

import (
	"fmt"
	"log/slog"
	"strings"

	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/providers/anthropic"
	"mercator-hq/relay/pkg/providers/google"
	"mercator-hq/relay/pkg/providers/openai"
	"mercator-hq/relay/pkg/providers/python"
)

// UnknownProviderError is returned by Create for a name that is not compiled in.
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider: %s (supported: %s)", e.Name, strings.Join(Names(), ", "))
}

// Option tunes how Create builds an adapter. Options that do not apply to
// the selected backend are ignored.
type Option func(*options)

type options struct {
	transport []providers.TransportOption
	runner    providers.Runner
}

// WithTransportOptions passes options to the HTTP transport of HTTP-backed
// adapters, for example a retry observer feeding metrics.
func WithTransportOptions(opts ...providers.TransportOption) Option {
	return func(o *options) {
		o.transport = append(o.transport, opts...)
	}
}

// WithRunner replaces the process runner of the script-executed adapter.
func WithRunner(r providers.Runner) Option {
	return func(o *options) {
		o.runner = r
	}
}

type constructor func(store providers.ConfigStore, model providers.ModelConfig, o options) (providers.Provider, error)

type entry struct {
	metadata func() providers.ProviderMetadata
	build    constructor
}

// registry is the fixed table of compiled-in backends, in listing order.
var registry = []entry{
	{metadata: google.Metadata, build: buildGoogle},
	{metadata: python.Metadata, build: buildPython},
	{metadata: openai.OpenAI.Metadata, build: buildOpenAI(openai.OpenAI)},
	{metadata: openai.Groq.Metadata, build: buildOpenAI(openai.Groq)},
	{metadata: openai.OpenRouter.Metadata, build: buildOpenAI(openai.OpenRouter)},
	{metadata: openai.Ollama.Metadata, build: buildOpenAI(openai.Ollama)},
	{metadata: anthropic.Metadata, build: buildAnthropic},
}

// Metadata returns the descriptor of every compiled-in backend.
// It reads no configuration and has no side effects.
func Metadata() []providers.ProviderMetadata {
	out := make([]providers.ProviderMetadata, 0, len(registry))
	for _, e := range registry {
		out = append(out, e.metadata())
	}
	return out
}

// Names returns the identifiers accepted by Create, in listing order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, e := range registry {
		names = append(names, e.metadata().Name)
	}
	return names
}

// Lookup returns the descriptor for name.
func Lookup(name string) (providers.ProviderMetadata, bool) {
	for _, e := range registry {
		if md := e.metadata(); md.Name == name {
			return md, true
		}
	}
	return providers.ProviderMetadata{}, false
}

// Create builds the adapter registered under name.
//
// Constructor errors (typically *providers.ConfigError) are returned as-is.
// An unregistered name yields *UnknownProviderError.
//
// Example:
//
//	store := providers.MapConfig{"GOOGLE_API_KEY": key}
//	p, err := providerfactory.Create("google", providers.NewModelConfig("gemini-2.0-flash"), store)
func Create(name string, model providers.ModelConfig, store providers.ConfigStore, opts ...Option) (providers.Provider, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	for _, e := range registry {
		if e.metadata().Name != name {
			continue
		}

		slog.Debug("creating provider", "name", name, "model", model.ModelName)
		return e.build(store, model, o)
	}

	return nil, &UnknownProviderError{Name: name}
}

func buildGoogle(store providers.ConfigStore, model providers.ModelConfig, o options) (providers.Provider, error) {
	p, err := google.FromConfig(store, model, google.WithTransportOptions(o.transport...))
	if err != nil {
		return nil, err
	}
	return p, nil
}

func buildPython(store providers.ConfigStore, model providers.ModelConfig, o options) (providers.Provider, error) {
	var popts []python.Option
	if o.runner != nil {
		popts = append(popts, python.WithRunner(o.runner))
	}
	p, err := python.FromConfig(store, model, popts...)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func buildOpenAI(backend openai.Backend) constructor {
	return func(store providers.ConfigStore, model providers.ModelConfig, o options) (providers.Provider, error) {
		p, err := openai.NewProvider(backend, store, model, openai.WithTransportOptions(o.transport...))
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

func buildAnthropic(store providers.ConfigStore, model providers.ModelConfig, o options) (providers.Provider, error) {
	p, err := anthropic.FromConfig(store, model, anthropic.WithTransportOptions(o.transport...))
	if err != nil {
		return nil, err
	}
	return p, nil
}
