package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/providerfactory"
	"mercator-hq/relay/pkg/providers"

	"github.com/spf13/cobra"
)

// providerList renders registry metadata for `relay providers`.
type providerList []providers.ProviderMetadata

// WriteText prints one row per backend.
func (l providerList) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDEFAULT MODEL\tREQUIRED\tDESCRIPTION")
	for _, md := range l {
		required := strings.Join(md.RequiredKeys(), ",")
		if required == "" {
			required = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", md.Name, md.DefaultModel, required, md.Description)
	}
	return tw.Flush()
}

func newProvidersCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List supported backends",
		Long: `List every compiled-in backend with its default model and the
configuration keys it requires. No credentials are needed.

Examples:
  # Table output
  relay providers

  # Full descriptors, including optional keys and known models
  relay providers --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return cli.NewConfigError("output", err.Error())
			}
			return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), providerList(providerfactory.Metadata()))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json")

	return cmd
}
