package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/corp-resolver/internal/matcher"
	"github.com/corp-resolver/internal/normalizer"
	"github.com/spf13/cobra"
)

func newSearchCmd(flags *rootFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Show the top fuzzy candidates for a query",
		Long: `Score the query against the local registry snapshot and print the best
distinct names, highest score first. Does not call DART or the LLM.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, app, cleanup, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			table, err := app.Store.Table(ctx)
			if err != nil {
				return err
			}

			query := normalizer.Normalize(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("query rỗng sau khi chuẩn hóa")
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SCORE\tCORP_CODE\tNAME\tSTOCK_CODE")
			for _, c := range app.Matcher.TopK(query, table, limit) {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.Score, c.Entry.Code, c.Entry.Name, c.Entry.StockCode)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", matcher.DefaultTopK, "Number of candidates")
	return cmd
}
