package main

import (
	"encoding/json"
	"strings"

	"github.com/corp-resolver/app/models"
	"github.com/spf13/cobra"
)

func newResolveCmd(flags *rootFlags) *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "resolve <name>...",
		Short: "Resolve company names to corp codes",
		Long: `Resolve each argument to a DART corp code and print the results as JSON.

A name that cannot be resolved confidently prints corp_code null together with
the candidate names a reviewer can choose from.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, app, cleanup, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			results := make([]*models.ResolutionResult, 0, len(args))
			for _, name := range args {
				results = append(results, app.Resolver.Resolve(ctx, strings.TrimSpace(name)))
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			if !compact {
				enc.SetIndent("", "  ")
			}
			if len(results) == 1 {
				return enc.Encode(results[0])
			}
			return enc.Encode(results)
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "Print compact JSON")
	return cmd
}
