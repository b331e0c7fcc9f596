package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRefreshCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refetch the registry from DART and rewrite the snapshot",
		Long: `Download corpCode.xml from OpenDART, replace the local snapshot and print
the new snapshot version. Requires dart.api_key (DART_API_KEY).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, app, cleanup, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			table, err := app.Store.Reload(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "version=%s entries=%d listed=%d\n",
				table.Version(), table.Len(), table.ListedCount())
			return nil
		},
	}
}
