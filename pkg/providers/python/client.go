package python

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/providers/openai"
)

const (
	// DefaultCommand is the interpreter and script run for every completion.
	DefaultCommand = "./venv/bin/python ./scripts/wrapper.py"

	// DefaultModel is the only model the bundled script serves.
	DefaultModel = "gemini-2.0-flash-thinking-exp"

	// DocURL documents the API behind the bundled script.
	DocURL = "https://ai.google.dev/gemini-api/docs"

	// DefaultVenvDir is the environment created on first use.
	DefaultVenvDir = "venv"

	// DefaultSystemPython creates the environment.
	DefaultSystemPython = "/usr/bin/python3"

	// DefaultTimeout bounds one script run.
	DefaultTimeout = 10 * time.Minute

	defaultInterpreter = "./venv/bin/python"
	defaultScript      = "./scripts/wrapper.py"
)

// Config keys read by the process adapter.
const (
	CommandKey      = "PYTHON_PROVIDER_CMD"
	VenvKey         = "PYTHON_PROVIDER_VENV"
	SystemPythonKey = "PYTHON_PROVIDER_SYSTEM_PYTHON"
	TimeoutKey      = "PYTHON_PROVIDER_TIMEOUT"
	APIKeyKey       = "GOOGLE_API_KEY"
)

// Packages are installed into a freshly created environment.
var Packages = []string{"google-genai"}

// Metadata returns the static descriptor of the process backend.
func Metadata() providers.ProviderMetadata {
	return providers.ProviderMetadata{
		Name:         "python",
		DisplayName:  "Python Provider",
		Description:  "Provider using a command-line Python script (with venv support) for the Gemini API",
		DefaultModel: DefaultModel,
		KnownModels:  []string{DefaultModel},
		ModelDocLink: DocURL,
		ConfigKeys: []providers.ConfigKey{
			providers.NewConfigKey(CommandKey, false, false, DefaultCommand),
			providers.NewConfigKey(VenvKey, false, false, DefaultVenvDir),
			providers.NewConfigKey(SystemPythonKey, false, false, DefaultSystemPython),
			providers.NewConfigKey(TimeoutKey, false, false, DefaultTimeout.String()),
			providers.NewConfigKey(APIKeyKey, false, true, ""),
		},
	}
}

// Provider runs completions through an external script.
//
// The script receives the OpenAI-format request as its --prompt argument and
// must print a single JSON value on stdout. Its environment is bootstrapped on
// first use.
type Provider struct {
	store        providers.ConfigStore
	runner       providers.Runner
	format       providers.Formatter
	command      string
	venvDir      string
	systemPython string
	timeout      time.Duration
	model        providers.ModelConfig
}

// Option configures a Provider.
type Option func(*Provider)

// WithRunner replaces the process runner.
func WithRunner(r providers.Runner) Option {
	return func(p *Provider) {
		p.runner = r
	}
}

// WithFormatter replaces the wire translator.
func WithFormatter(f providers.Formatter) Option {
	return func(p *Provider) {
		p.format = f
	}
}

// FromConfig builds the process adapter. It touches neither the network nor
// the secret store; the API key is read when a completion runs.
func FromConfig(store providers.ConfigStore, model providers.ModelConfig, opts ...Option) (*Provider, error) {
	timeout := DefaultTimeout
	if raw := providers.GetOrDefault(store, TimeoutKey, ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			if err == nil {
				err = errors.New("timeout must be positive")
			}
			return nil, &providers.ConfigError{
				Provider: "python",
				Field:    TimeoutKey,
				Message:  "invalid duration " + raw,
				Cause:    err,
			}
		}
		timeout = d
	}

	p := &Provider{
		store:        store,
		runner:       providers.ExecRunner{},
		format:       openai.Format{},
		command:      providers.GetOrDefault(store, CommandKey, DefaultCommand),
		venvDir:      providers.GetOrDefault(store, VenvKey, DefaultVenvDir),
		systemPython: providers.GetOrDefault(store, SystemPythonKey, DefaultSystemPython),
		timeout:      timeout,
		model:        model,
	}
	for _, opt := range opts {
		opt(p)
	}

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

// Complete runs the script with the serialized request.
// Missing or malformed usage in the script output is reported as zero usage.
func (p *Provider) Complete(ctx context.Context, system string, messages []providers.Message, tools []providers.Tool) (providers.Message, providers.ProviderUsage, error) {
	payload, err := p.format.CreateRequest(p.model, system, messages, tools)
	if err != nil {
		return providers.Message{}, providers.ProviderUsage{}, err
	}

	response, err := p.execute(ctx, string(payload))
	if err != nil {
		return providers.Message{}, providers.ProviderUsage{}, err
	}

	message, err := p.format.ResponseToMessage(response)
	if err != nil {
		return providers.Message{}, providers.ProviderUsage{}, err
	}

	usage, err := p.format.GetUsage(response)
	if err != nil {
		if !providers.IsKind(err, providers.KindUsageError) {
			return providers.Message{}, providers.ProviderUsage{}, err
		}
		slog.Debug("script reported no usable usage", "provider", "python", "error", err)
		usage = providers.Usage{}
	}

	providers.EmitDebugTrace("python", p.model, payload, response, usage)
	return message, providers.NewProviderUsage(providers.ModelFromResponse(response), usage), nil
}

// execute bootstraps the environment, runs the script with prompt and parses
// its stdout as a single JSON value.
func (p *Provider) execute(ctx context.Context, prompt string) (json.RawMessage, error) {
	if err := p.ensureVenv(ctx); err != nil {
		return nil, err
	}

	interpreter, script := defaultInterpreter, defaultScript
	parts := strings.Fields(p.command)
	if len(parts) > 0 {
		interpreter = parts[0]
	}
	if len(parts) > 1 {
		script = parts[1]
	}

	args := []string{script, "--prompt", prompt}
	if key, err := p.store.GetSecret(APIKeyKey); err == nil && key != "" {
		args = append(args, "--api-key", key)
	}

	slog.Debug("executing provider script",
		"provider", "python",
		"interpreter", interpreter,
		"script", script,
		"prompt_bytes", len(prompt),
	)

	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result, err := p.runner.Run(runCtx, providers.Command{Path: interpreter, Args: args})
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, providers.RequestFailedWithCause(ctx.Err(), "command cancelled: %v", ctx.Err())
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return nil, providers.RequestFailedWithCause(runCtx.Err(), "command timed out after %s", p.timeout)
		default:
			return nil, providers.RequestFailedWithCause(err, "command failed: %s", failureText(result, err))
		}
	}

	var response json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(result.Stdout), &response); err != nil {
		return nil, providers.RequestFailedWithCause(err, "failed to parse JSON: %v", err)
	}
	return response, nil
}

// failureText prefers the process's stderr over the Go error.
func failureText(result providers.CommandResult, err error) string {
	if stderr := strings.TrimSpace(string(result.Stderr)); stderr != "" {
		return stderr
	}
	return err.Error()
}
