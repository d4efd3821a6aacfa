package openai

import (
	"context"
	"log/slog"

	"mercator-hq/relay/pkg/providers"
)

// Backend describes one OpenAI-compatible service. The same adapter serves
// all of them; only hosts, paths and credentials differ.
type Backend struct {
	Name        string
	DisplayName string
	Description string

	// DefaultHost is used when HostKey is not configured
	DefaultHost string

	// HostKey is the config key overriding the host
	HostKey string

	// APIKeyKey is the secret holding the bearer token ("" for keyless backends)
	APIKeyKey string

	// Path is the chat completions path relative to the host
	Path string

	DefaultModel string
	KnownModels  []string
	DocURL       string
}

// Known OpenAI-compatible backends.
var (
	OpenAI = Backend{
		Name:         "openai",
		DisplayName:  "OpenAI",
		Description:  "GPT-4 and other OpenAI models",
		DefaultHost:  "https://api.openai.com",
		HostKey:      "OPENAI_HOST",
		APIKeyKey:    "OPENAI_API_KEY",
		Path:         "v1/chat/completions",
		DefaultModel: "gpt-4o",
		KnownModels:  []string{"gpt-4o", "gpt-4o-mini", "gpt-4-turbo", "o1"},
		DocURL:       "https://platform.openai.com/docs/models",
	}

	Groq = Backend{
		Name:         "groq",
		DisplayName:  "Groq",
		Description:  "Fast inference with Groq hardware",
		DefaultHost:  "https://api.groq.com",
		HostKey:      "GROQ_HOST",
		APIKeyKey:    "GROQ_API_KEY",
		Path:         "openai/v1/chat/completions",
		DefaultModel: "llama-3.3-70b-versatile",
		KnownModels:  []string{"llama-3.3-70b-versatile", "gemma2-9b-it"},
		DocURL:       "https://console.groq.com/docs/models",
	}

	OpenRouter = Backend{
		Name:         "openrouter",
		DisplayName:  "OpenRouter",
		Description:  "Router for many model providers",
		DefaultHost:  "https://openrouter.ai",
		HostKey:      "OPENROUTER_HOST",
		APIKeyKey:    "OPENROUTER_API_KEY",
		Path:         "api/v1/chat/completions",
		DefaultModel: "anthropic/claude-3.5-sonnet",
		KnownModels:  []string{"anthropic/claude-3.5-sonnet", "openai/gpt-4o", "google/gemini-2.0-flash-001"},
		DocURL:       "https://openrouter.ai/models",
	}

	Ollama = Backend{
		Name:         "ollama",
		DisplayName:  "Ollama",
		Description:  "Local open source models",
		DefaultHost:  "http://localhost:11434",
		HostKey:      "OLLAMA_HOST",
		Path:         "v1/chat/completions",
		DefaultModel: "qwen2.5",
		KnownModels:  []string{"qwen2.5", "llama3.2", "mistral"},
		DocURL:       "https://ollama.com/library",
	}
)

// Metadata returns the static descriptor of the backend.
func (b Backend) Metadata() providers.ProviderMetadata {
	keys := make([]providers.ConfigKey, 0, 2)
	if b.APIKeyKey != "" {
		keys = append(keys, providers.NewConfigKey(b.APIKeyKey, true, true, ""))
	}
	keys = append(keys, providers.NewConfigKey(b.HostKey, false, false, b.DefaultHost))

	return providers.ProviderMetadata{
		Name:         b.Name,
		DisplayName:  b.DisplayName,
		Description:  b.Description,
		DefaultModel: b.DefaultModel,
		KnownModels:  append([]string(nil), b.KnownModels...),
		ModelDocLink: b.DocURL,
		ConfigKeys:   keys,
	}
}

// Metadata returns the descriptor of the OpenAI backend.
func Metadata() providers.ProviderMetadata {
	return OpenAI.Metadata()
}

// Provider is the OpenAI-compatible provider adapter.
type Provider struct {
	backend   Backend
	transport *providers.HTTPTransport
	format    providers.Formatter
	host      string
	apiKey    string
	model     providers.ModelConfig
}

// Option configures a Provider.
type Option func(*options)

type options struct {
	transportOpts []providers.TransportOption
	format        providers.Formatter
}

// WithTransportOptions passes options to the underlying HTTP transport.
func WithTransportOptions(opts ...providers.TransportOption) Option {
	return func(o *options) {
		o.transportOpts = append(o.transportOpts, opts...)
	}
}

// WithFormatter replaces the wire translator.
func WithFormatter(f providers.Formatter) Option {
	return func(o *options) {
		o.format = f
	}
}

// FromConfig builds an OpenAI provider.
func FromConfig(store providers.ConfigStore, model providers.ModelConfig, opts ...Option) (*Provider, error) {
	return NewProvider(OpenAI, store, model, opts...)
}

// NewProvider builds an adapter for backend from store.
// The API key (when the backend has one) is required; the host is optional.
func NewProvider(backend Backend, store providers.ConfigStore, model providers.ModelConfig, opts ...Option) (*Provider, error) {
	o := options{format: Format{}}
	for _, opt := range opts {
		opt(&o)
	}

	var apiKey string
	if backend.APIKeyKey != "" {
		key, err := store.GetSecret(backend.APIKeyKey)
		if err != nil || key == "" {
			return nil, &providers.ConfigError{
				Provider: backend.Name,
				Field:    backend.APIKeyKey,
				Message:  "API key is required",
				Cause:    err,
			}
		}
		apiKey = key
	}

	host := providers.GetOrDefault(store, backend.HostKey, backend.DefaultHost)
	if _, err := providers.ParseHost(host); err != nil {
		return nil, &providers.ConfigError{
			Provider: backend.Name,
			Field:    backend.HostKey,
			Message:  err.Error(),
			Cause:    err,
		}
	}

	p := &Provider{
		backend:   backend,
		transport: providers.NewHTTPTransport(backend.Name, o.transportOpts...),
		format:    o.format,
		host:      host,
		apiKey:    apiKey,
		model:     model,
	}

	slog.Debug("OpenAI-compatible provider initialized",
		"provider", backend.Name,
		"host", host,
		"model", model.ModelName,
	)

	return p, nil
}

// Metadata returns the backend's static descriptor.
func (p *Provider) Metadata() providers.ProviderMetadata {
	return p.backend.Metadata()
}

// GetModelConfig returns the model configuration.
func (p *Provider) GetModelConfig() providers.ModelConfig {
	return p.model
}

// CloseIdleConnections releases pooled HTTP connections.
func (p *Provider) CloseIdleConnections() {
	p.transport.CloseIdleConnections()
}

// Complete sends a chat completion request.
// Rate-limit errors are returned as-is once the retry budget is spent.
func (p *Provider) Complete(ctx context.Context, system string, messages []providers.Message, tools []providers.Tool) (providers.Message, providers.ProviderUsage, error) {
	payload, err := p.format.CreateRequest(p.model, system, messages, tools)
	if err != nil {
		return providers.Message{}, providers.ProviderUsage{}, err
	}

	response, err := p.post(ctx, payload)
	if err != nil {
		return providers.Message{}, providers.ProviderUsage{}, err
	}

	message, err := p.format.ResponseToMessage(response)
	if err != nil {
		return providers.Message{}, providers.ProviderUsage{}, err
	}

	usage, err := p.format.GetUsage(response)
	if err != nil {
		return providers.Message{}, providers.ProviderUsage{}, err
	}

	model := providers.ModelFromResponse(response)
	if model == providers.UnknownModel {
		model = p.model.ModelName
	}

	providers.EmitDebugTrace(p.backend.Name, p.model, payload, response, usage)
	return message, providers.NewProviderUsage(model, usage), nil
}

func (p *Provider) post(ctx context.Context, payload []byte) ([]byte, error) {
	endpoint, err := providers.JoinEndpoint(p.host, p.backend.Path, nil)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}

	return p.transport.Post(ctx, endpoint, payload, headers)
}
