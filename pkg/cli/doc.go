/*
Package cli provides command-line helpers used by the relay command.

Output Formatting:

Results are printed as text or JSON depending on --output. Values that
implement Texter control their own text rendering:

	format, err := cli.ParseOutputFormat(flag)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, result); err != nil {
		return err
	}

Retry Reporting:

RetryReporter tells the user when a backend rate-limits a completion and
the transport is backing off:

	reporter := cli.NewRetryReporter(os.Stderr)
	opts := providers.WithRetryObserver(reporter.Observe)

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Exit Codes:

ExitCode maps the error returned by a command to the process exit status.
*/
package cli
