package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/providerfactory"
	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/telemetry/logging"
	"mercator-hq/relay/pkg/telemetry/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type completeFlags struct {
	provider    string
	model       string
	system      string
	prompt      string
	temperature float64
	maxTokens   int
	output      string
	metrics     bool
}

// completionResult is what `relay complete` prints.
type completionResult struct {
	RequestID string            `json:"request_id"`
	Provider  string            `json:"provider"`
	Model     string            `json:"model"`
	Message   providers.Message `json:"message"`
	Usage     providers.Usage   `json:"usage"`
	Duration  string            `json:"duration"`
}

// WriteText prints the reply followed by a summary line.
func (r completionResult) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintln(w, strings.TrimRight(r.Message.Content, "\n")); err != nil {
		return err
	}
	for _, call := range r.Message.ToolCalls {
		fmt.Fprintf(w, "tool call %s: %s(%s)\n", call.ID, call.Function.Name, call.Function.Arguments)
	}
	_, err := fmt.Fprintf(w, "\n[%s %s] tokens: %d in / %d out / %d total, %s\n",
		r.Provider, r.Model, r.Usage.InputTokens, r.Usage.OutputTokens, r.Usage.TotalTokens, r.Duration)
	return err
}

func newCompleteCmd(a *app) *cobra.Command {
	f := &completeFlags{}

	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Send one prompt to a backend",
		Long: `Send a single user prompt, with an optional system prompt, to a backend
and print the reply, the model that served it, and token usage.

Rate-limited requests are retried with exponential backoff; each retry is
reported on stderr. Ctrl-C cancels the request.

Examples:
  # Use the backend's default model
  relay complete --provider google --prompt "Name three rivers"

  # Pick a model and a system prompt
  relay complete --provider openai --model gpt-4o-mini --system "Be terse" --prompt "hi"

  # Print Prometheus metrics for the call on stderr
  relay complete --provider groq --prompt "hi" --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runComplete(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.provider, "provider", "p", "", "backend name (see `relay providers`)")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "model name (default: the backend's default model)")
	cmd.Flags().StringVarP(&f.system, "system", "s", "", "system prompt")
	cmd.Flags().StringVar(&f.prompt, "prompt", "", "user prompt")
	cmd.Flags().Float64Var(&f.temperature, "temperature", 0, "sampling temperature (0 uses the backend default)")
	cmd.Flags().IntVar(&f.maxTokens, "max-tokens", 0, "maximum generated tokens (0 uses the backend default)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "text", "output format: text, json")
	cmd.Flags().BoolVar(&f.metrics, "metrics", false, "print Prometheus metrics to stderr after the call (also enabled by metrics.enabled)")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

func (a *app) runComplete(cmd *cobra.Command, f *completeFlags) error {
	format, err := cli.ParseOutputFormat(f.output)
	if err != nil {
		return cli.NewConfigError("output", err.Error())
	}

	md, ok := providerfactory.Lookup(f.provider)
	if !ok {
		return &providerfactory.UnknownProviderError{Name: f.provider}
	}
	model := providers.ModelConfig{
		ModelName:   f.model,
		Temperature: f.temperature,
		MaxTokens:   f.maxTokens,
	}
	if model.ModelName == "" {
		model.ModelName = md.DefaultModel
	}

	requestID := uuid.NewString()
	ctx := logging.WithRequestID(cmd.Context(), requestID)
	ctx = logging.WithProvider(ctx, md.Name)
	ctx = logging.WithModel(ctx, model.ModelName)

	secretManager, err := config.NewSecretManager(a.cfg.Secrets)
	if err != nil {
		return cli.WrapConfigError("secrets", err)
	}
	defer secretManager.Close()

	store := config.NewStore(a.cfg, secretManager)

	var (
		registry *prometheus.Registry
		pm       *metrics.ProviderMetrics
	)
	if f.metrics || a.cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		pm = metrics.NewProviderMetrics(a.cfg.Metrics, registry)
	}

	reporter := cli.NewRetryReporter(cmd.ErrOrStderr())
	var retryObserver providers.RetryObserver = reporter.Observe
	if pm != nil {
		retryObserver = cli.ChainRetryObservers(retryObserver, pm.RetryObserver())
	}

	p, err := providerfactory.Create(md.Name, model, store,
		providerfactory.WithTransportOptions(providers.WithRetryObserver(retryObserver)))
	if err != nil {
		return err
	}
	p = metrics.Instrument(p, pm)

	slog.DebugContext(ctx, "sending completion", "prompt_chars", len(f.prompt))

	start := time.Now()
	msg, usage, err := p.Complete(ctx, f.system, []providers.Message{providers.NewUserMessage(f.prompt)}, nil)
	elapsed := time.Since(start)
	if err != nil {
		slog.ErrorContext(ctx, "completion failed", "error", err, "retries", reporter.Retries())
		if registry != nil {
			if werr := metrics.WriteText(cmd.ErrOrStderr(), registry); werr != nil {
				slog.WarnContext(ctx, "failed to write metrics", "error", werr)
			}
		}
		return cli.NewCommandError("complete", err)
	}

	slog.InfoContext(ctx, "completion finished",
		"served_model", usage.Model,
		"total_tokens", usage.Usage.TotalTokens,
		"duration", elapsed,
	)

	result := completionResult{
		RequestID: requestID,
		Provider:  md.Name,
		Model:     usage.Model,
		Message:   msg,
		Usage:     usage.Usage,
		Duration:  elapsed.Round(time.Millisecond).String(),
	}
	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result); err != nil {
		return err
	}

	// metrics.enabled in the config has the same effect as --metrics
	if registry != nil {
		return metrics.WriteText(cmd.ErrOrStderr(), registry)
	}
	return nil
}
