package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abelbrown/trendwire/internal/brain"
	"github.com/abelbrown/trendwire/internal/pipeline"
)

var (
	flagGenJSON     bool
	flagGenAudience []string
	flagTopic       string
	flagNotes       string
	flagFromTop     int
	flagCount       int
	flagSumLimit    int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draft newsletter copy with the configured model",
}

var generateSectionCmd = &cobra.Command{
	Use:   "section",
	Short: "Write one newsletter section about a topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		req := pipeline.SectionRequest{Topic: flagTopic, Notes: flagNotes}
		if len(flagGenAudience) > 0 {
			req.Audience = flagGenAudience[0]
		}
		if flagFromTop > 0 {
			tr, err := a.svc.Trending(cmd.Context(), pipeline.TrendingOptions{
				Audiences: flagGenAudience,
				Ranked:    true,
				Limit:     flagFromTop,
			})
			if err != nil {
				return err
			}
			req.Sources = tr.Items
		}

		sec, err := a.svc.WriteSection(cmd.Context(), req)
		if err != nil {
			return explainGenError(err)
		}
		if flagGenJSON {
			return writeJSON(cmd.OutOrStdout(), sec)
		}
		renderSection(cmd.OutOrStdout(), sec)
		return nil
	},
}

var generateTopicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Suggest newsletter topics from the trending list",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		tl, err := a.svc.SuggestTopics(cmd.Context(), flagGenAudience, flagCount)
		if err != nil {
			return explainGenError(err)
		}
		if flagGenJSON {
			return writeJSON(cmd.OutOrStdout(), tl.Topics)
		}
		renderTopics(cmd.OutOrStdout(), tl)
		return nil
	},
}

var generateSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the trending list into themes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := a.svc.SummarizeTrending(cmd.Context(), flagGenAudience, flagSumLimit)
		if err != nil {
			return explainGenError(err)
		}
		if flagGenJSON {
			return writeJSON(cmd.OutOrStdout(), sum)
		}
		renderSummary(cmd.OutOrStdout(), sum)
		return nil
	},
}

// explainGenError points at key setup when no model could be reached.
func explainGenError(err error) error {
	if errors.Is(err, brain.ErrProviderUnavailable) || errors.Is(err, brain.ErrNoProvider) {
		return fmt.Errorf("%w\nset ANTHROPIC_API_KEY, OPENAI_API_KEY or GOOGLE_API_KEY, or pass --keys", err)
	}
	return err
}

func init() {
	generateCmd.PersistentFlags().BoolVar(&flagGenJSON, "json", false, "print the decoded result as JSON")
	generateCmd.PersistentFlags().StringSliceVarP(&flagGenAudience, "audience", "a", nil, "audience IDs (comma separated)")

	generateSectionCmd.Flags().StringVarP(&flagTopic, "topic", "t", "", "section topic")
	generateSectionCmd.Flags().StringVar(&flagNotes, "notes", "", "extra guidance for the writer")
	generateSectionCmd.Flags().IntVar(&flagFromTop, "from-trending", 0, "cite the top N ranked trending items")
	_ = generateSectionCmd.MarkFlagRequired("topic")

	generateTopicsCmd.Flags().IntVarP(&flagCount, "count", "n", 5, "number of topics")
	generateSummaryCmd.Flags().IntVarP(&flagSumLimit, "limit", "n", 20, "trending items to summarize")

	generateCmd.AddCommand(generateSectionCmd, generateTopicsCmd, generateSummaryCmd)
}
