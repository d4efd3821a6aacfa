package anthropic

import (
	"context"
	"log/slog"

	"mercator-hq/relay/pkg/providers"
)

const (
	// DefaultHost is the Anthropic API host.
	DefaultHost = "https://api.anthropic.com"

	// DefaultModel is used when the caller does not pick a model.
	DefaultModel = "claude-3-5-sonnet-latest"

	// DefaultAnthropicVersion is the API version to use
	DefaultAnthropicVersion = "2023-06-01"

	// Config keys read by FromConfig.
	APIKeyKey = "ANTHROPIC_API_KEY"
	HostKey   = "ANTHROPIC_HOST"

	messagesPath = "v1/messages"
)

// KnownModels are the models the adapter is known to work with.
var KnownModels = []string{
	"claude-3-5-sonnet-latest",
	"claude-3-5-haiku-latest",
	"claude-3-opus-latest",
}

// Metadata returns the static descriptor of the Anthropic backend.
func Metadata() providers.ProviderMetadata {
	return providers.ProviderMetadata{
		Name:         "anthropic",
		DisplayName:  "Anthropic",
		Description:  "Claude and other models from Anthropic",
		DefaultModel: DefaultModel,
		KnownModels:  append([]string(nil), KnownModels...),
		ModelDocLink: "https://docs.anthropic.com/en/docs/about-claude/models",
		ConfigKeys: []providers.ConfigKey{
			providers.NewConfigKey(APIKeyKey, true, true, ""),
			providers.NewConfigKey(HostKey, false, false, DefaultHost),
		},
	}
}

// Provider is the Anthropic provider adapter.
// It implements the providers.Provider interface for Anthropic's Messages API.
type Provider struct {
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

// FromConfig creates a new Anthropic provider instance.
func FromConfig(store providers.ConfigStore, model providers.ModelConfig, opts ...Option) (*Provider, error) {
	o := options{format: Format{}}
	for _, opt := range opts {
		opt(&o)
	}

	apiKey, err := store.GetSecret(APIKeyKey)
	if err != nil || apiKey == "" {
		return nil, &providers.ConfigError{
			Provider: "anthropic",
			Field:    APIKeyKey,
			Message:  "API key is required for Anthropic",
			Cause:    err,
		}
	}

	host := providers.GetOrDefault(store, HostKey, DefaultHost)
	if _, err := providers.ParseHost(host); err != nil {
		return nil, &providers.ConfigError{
			Provider: "anthropic",
			Field:    HostKey,
			Message:  err.Error(),
			Cause:    err,
		}
	}

	p := &Provider{
		transport: providers.NewHTTPTransport("anthropic", o.transportOpts...),
		format:    o.format,
		host:      host,
		apiKey:    apiKey,
		model:     model,
	}

	slog.Debug("Anthropic provider initialized",
		"host", host,
		"model", model.ModelName,
	)

	return p, nil
}

// Metadata returns the backend's static descriptor.
func (p *Provider) Metadata() providers.ProviderMetadata {
	return Metadata()
}

// GetModelConfig returns the model configuration.
func (p *Provider) GetModelConfig() providers.ModelConfig {
	return p.model
}

// CloseIdleConnections releases pooled HTTP connections.
func (p *Provider) CloseIdleConnections() {
	p.transport.CloseIdleConnections()
}

// Complete sends a completion request to Anthropic.
func (p *Provider) Complete(ctx context.Context, system string, messages []providers.Message, tools []providers.Tool) (providers.Message, providers.ProviderUsage, error) {
	payload, err := p.format.CreateRequest(p.model, system, messages, tools)
	if err != nil {
		return providers.Message{}, providers.ProviderUsage{}, err
	}

	endpoint, err := providers.JoinEndpoint(p.host, messagesPath, nil)
	if err != nil {
		return providers.Message{}, providers.ProviderUsage{}, err
	}

	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": DefaultAnthropicVersion,
	}

	response, err := p.transport.Post(ctx, endpoint, payload, headers)
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

	providers.EmitDebugTrace("anthropic", p.model, payload, response, usage)
	return message, providers.NewProviderUsage(model, usage), nil
}
