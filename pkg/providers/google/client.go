package google

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"mercator-hq/relay/pkg/providers"
)

const (
	// DefaultHost is the Gemini API host.
	DefaultHost = "https://generativelanguage.googleapis.com"

	// DefaultModel is used when the caller does not pick a model.
	DefaultModel = "gemini-2.0-flash"

	// DocURL lists the available Gemini models.
	DocURL = "https://ai.google/get-started/our-models/"

	// Config keys read by FromConfig.
	APIKeyKey = "GOOGLE_API_KEY"
	HostKey   = "GOOGLE_HOST"
)

// KnownModels are the models the adapter is known to work with.
var KnownModels = []string{
	"models/gemini-1.5-pro-latest",
	"models/gemini-1.5-pro",
	"models/gemini-1.5-flash-latest",
	"models/gemini-1.5-flash",
	"models/gemini-2.0-flash",
	"models/gemini-2.0-flash-lite-preview-02-05",
	"models/gemini-2.0-flash-thinking-exp-01-21",
	"models/gemini-2.0-pro-exp-02-05",
}

// ErrMsgRateLimited replaces a rate-limit error once retries are exhausted.
const ErrMsgRateLimited = "Gemini rate limit exceeded. Please try again later."

// Metadata returns the static descriptor of the Gemini backend.
func Metadata() providers.ProviderMetadata {
	return providers.ProviderMetadata{
		Name:         "google",
		DisplayName:  "Google Gemini",
		Description:  "Gemini models from Google AI",
		DefaultModel: DefaultModel,
		KnownModels:  append([]string(nil), KnownModels...),
		ModelDocLink: DocURL,
		ConfigKeys: []providers.ConfigKey{
			providers.NewConfigKey(APIKeyKey, true, true, ""),
			providers.NewConfigKey(HostKey, false, false, DefaultHost),
		},
	}
}

// Provider is the Gemini provider adapter.
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

// FromConfig builds a Gemini provider. GOOGLE_API_KEY is required;
// GOOGLE_HOST defaults to the public API host.
func FromConfig(store providers.ConfigStore, model providers.ModelConfig, opts ...Option) (*Provider, error) {
	o := options{format: Format{}}
	for _, opt := range opts {
		opt(&o)
	}

	apiKey, err := store.GetSecret(APIKeyKey)
	if err != nil || apiKey == "" {
		return nil, &providers.ConfigError{
			Provider: "google",
			Field:    APIKeyKey,
			Message:  "API key is required",
			Cause:    err,
		}
	}

	host := providers.GetOrDefault(store, HostKey, DefaultHost)
	if _, err := providers.ParseHost(host); err != nil {
		return nil, &providers.ConfigError{
			Provider: "google",
			Field:    HostKey,
			Message:  err.Error(),
			Cause:    err,
		}
	}

	slog.Debug("Gemini provider initialized", "host", host, "model", model.ModelName)

	return &Provider{
		transport: providers.NewHTTPTransport("google", o.transportOpts...),
		format:    o.format,
		host:      host,
		apiKey:    apiKey,
		model:     model,
	}, nil
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

// Complete sends a generateContent request.
//
// The served model is the response's modelVersion when present, otherwise the
// configured model. A rate-limit error that survives the retry loop is
// reported as a KindOther error.
func (p *Provider) Complete(ctx context.Context, system string, messages []providers.Message, tools []providers.Tool) (providers.Message, providers.ProviderUsage, error) {
	payload, err := p.format.CreateRequest(p.model, system, messages, tools)
	if err != nil {
		return providers.Message{}, providers.ProviderUsage{}, err
	}

	response, err := p.post(ctx, payload)
	if err != nil {
		if errors.Is(err, providers.ErrRateLimitExceeded) {
			slog.Warn("Gemini rate limit exceeded", "error", err)
			return providers.Message{}, providers.ProviderUsage{}, providers.OtherError(ErrMsgRateLimited)
		}
		return providers.Message{}, providers.ProviderUsage{}, err
	}

	message, err := p.format.ResponseToMessage(providers.UnescapeJSONValues(response))
	if err != nil {
		return providers.Message{}, providers.ProviderUsage{}, err
	}

	usage, err := p.format.GetUsage(response)
	if err != nil {
		return providers.Message{}, providers.ProviderUsage{}, err
	}

	model := p.model.ModelName
	if v := gjson.GetBytes(response, "modelVersion"); v.Exists() {
		// A non-string modelVersion reports an empty model name
		model = ""
		if v.Type == gjson.String {
			model = v.Str
		}
	}

	providers.EmitDebugTrace("google", p.model, payload, response, usage)
	return message, providers.NewProviderUsage(model, usage), nil
}

// post sends payload to the generateContent endpoint of the configured model.
// Model names listed with a "models/" prefix map onto the same path segment.
func (p *Provider) post(ctx context.Context, payload []byte) ([]byte, error) {
	name := strings.TrimPrefix(p.model.ModelName, "models/")
	endpoint, err := providers.JoinEndpoint(p.host,
		"v1beta/models/"+name+":generateContent",
		url.Values{"key": {p.apiKey}})
	if err != nil {
		return nil, err
	}

	return p.transport.Post(ctx, endpoint, payload, nil)
}
