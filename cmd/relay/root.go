package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/telemetry/logging"

	"github.com/spf13/cobra"
)

// app holds state shared by subcommands once the root command has run.
type app struct {
	// Global flags
	cfgFile  string
	logLevel string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "relay",
		Short: "Relay - one completion interface over many LLM backends",
		Long: `Relay sends conversations to LLM backends through a single interface.

Supported backends include Google Gemini, OpenAI and OpenAI-compatible
services (Groq, OpenRouter, Ollama), Anthropic, and a local Python script.
Credentials come from the environment, a secrets directory, or the
configuration file.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path (default: ./"+config.DefaultConfigPath+" if present)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newProvidersCmd(),
		newCompleteCmd(a),
		newCheckCmd(a),
		newVersionCmd(),
		newCompletionCmd(rootCmd),
	)

	return rootCmd
}

// setup loads configuration and installs the default logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return cli.WrapConfigError("", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
		Writer:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return cli.WrapConfigError("logging", err)
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	return nil
}

// Execute runs the root command under a SIGINT-aware context and returns
// the process exit code.
func Execute() int {
	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}
