package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/providerfactory"
	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/telemetry/health"

	"github.com/spf13/cobra"
)

// checkReport renders a health.Report for `relay check`.
type checkReport health.Report

// WriteText prints one row per backend followed by the overall status.
func (r checkReport) WriteText(w io.Writer) error {
	report := health.Report(r)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tSTATUS\tDETAIL")
	for _, name := range report.Names() {
		result := report.Checks[name]
		detail := result.Message
		if detail == "" {
			detail = result.Duration.Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, result.Status, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\noverall: %s\n", report.Status)
	return err
}

func newCheckCmd(a *app) *cobra.Command {
	var (
		names   []string
		live    bool
		timeout time.Duration
		output  string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check which backends are configured",
		Long: `Check that backends can be built from the current configuration.

Without --live no request leaves the machine: a backend is "ok" when its
required keys resolve and "unconfigured" otherwise. With --live each backend
also answers a one-token probe completion, which the backend bills.

The command fails when a backend named with --provider is not ok.

Examples:
  # Which backends have credentials?
  relay check

  # Prove the Anthropic key is accepted
  relay check --provider anthropic --live`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return cli.NewConfigError("output", err.Error())
			}
			for _, name := range names {
				if _, ok := providerfactory.Lookup(name); !ok {
					return &providerfactory.UnknownProviderError{Name: name}
				}
			}

			secretManager, err := config.NewSecretManager(a.cfg.Secrets)
			if err != nil {
				return cli.WrapConfigError("secrets", err)
			}
			defer secretManager.Close()

			store := config.NewStore(a.cfg, secretManager)
			reporter := cli.NewRetryReporter(cmd.ErrOrStderr())

			checker := health.New(timeout)
			health.RegisterProviders(checker, names, store, live,
				providerfactory.WithTransportOptions(providers.WithRetryObserver(reporter.Observe)))

			report := checker.Run(cmd.Context())
			if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), checkReport(report)); err != nil {
				return err
			}

			if len(names) > 0 && !report.Healthy() {
				return cli.NewCommandError("check", fmt.Errorf("%d of %d providers not ok", countFailed(report), len(report.Checks)))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&names, "provider", "p", nil, "backends to check (default: all)")
	cmd.Flags().BoolVar(&live, "live", false, "send a one-token probe completion to each backend")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "per-backend timeout")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json")

	return cmd
}

func countFailed(report health.Report) int {
	n := 0
	for _, result := range report.Checks {
		if result.Status != health.StatusOK {
			n++
		}
	}
	return n
}
