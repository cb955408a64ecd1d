package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagArtKind  string
	flagArtLimit int
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Browse saved sections, topic lists and summaries",
}

var artifactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved artifacts, newest first",
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

		arts, err := st.List(cmd.Context(), flagArtKind, flagArtLimit)
		if err != nil {
			return fmt.Errorf("listing artifacts: %w", err)
		}
		renderArtifacts(cmd.OutOrStdout(), arts)
		return nil
	},
}

var artifactsShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print one saved artifact",
	Args:  cobra.ExactArgs(1),
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

		art, err := st.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), art.Value)
		return nil
	},
}

var artifactsDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete one saved artifact",
	Args:  cobra.ExactArgs(1),
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

		if err := st.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
		return nil
	},
}

func init() {
	artifactsListCmd.Flags().StringVarP(&flagArtKind, "kind", "k", "", "only this kind: section, topics, summary")
	artifactsListCmd.Flags().IntVarP(&flagArtLimit, "limit", "n", 50, "maximum artifacts (0 for all)")
	artifactsCmd.AddCommand(artifactsListCmd, artifactsShowCmd, artifactsDeleteCmd)
}
