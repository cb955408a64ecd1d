package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently seen trending items from the local database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.requireStore()
		if err != nil {
			return err
		}
		items, err := st.RecentItems(cmd.Context(), flagHistoryLimit)
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}
		total, err := st.ItemCount(cmd.Context())
		if err != nil {
			return fmt.Errorf("counting items: %w", err)
		}
		renderHistory(cmd.OutOrStdout(), items, total)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "maximum items")
}
