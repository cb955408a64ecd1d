package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abelbrown/trendwire/internal/pipeline"
)

var flagHistory bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Fetch every source and report per-adapter results",
	Long: `Run a fresh aggregate fetch and print item counts, timings and errors
for each adapter. With --history, print the recorded health of each adapter
from the local database instead of fetching.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()
		out := cmd.OutOrStdout()

		if flagHistory {
			st, err := a.requireStore()
			if err != nil {
				return err
			}
			statuses, err := st.SourceStatuses(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading source history: %w", err)
			}
			total, err := st.ItemCount(cmd.Context())
			if err != nil {
				return fmt.Errorf("counting items: %w", err)
			}
			renderSourceHistory(out, statuses)
			fmt.Fprintf(out, "\n%s\n", subtleStyle.Render(fmt.Sprintf("%d distinct items recorded", total)))
			return nil
		}

		res, err := a.svc.Trending(cmd.Context(), pipeline.TrendingOptions{ForceRefresh: true})
		if err != nil {
			return err
		}
		renderSourceStats(out, a.svc.Aggregator().Stats())
		fmt.Fprintf(out, "\n%s\n", subtleStyle.Render(fmt.Sprintf("%d items total", len(res.Items))))
		return nil
	},
}

func init() {
	sourcesCmd.Flags().BoolVar(&flagHistory, "history", false, "show recorded adapter health instead of fetching")
}
