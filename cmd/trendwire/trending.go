package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/trendwire/internal/export"
	"github.com/abelbrown/trendwire/internal/pipeline"
)

var (
	flagAudiences []string
	flagRanked    bool
	flagLimit     int
	flagRefresh   bool
	flagFormat    string
)

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Show what is trending across all sources",
	Long: `Fetch (or reuse) the aggregate trending list, optionally filtered to
audiences and ranked by relevance.

Formats: table (default), json, rss, atom. rss and atom emit a feed of the
selected items; json emits the items with score breakdowns when --ranked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		limit := a.cfg.Trending.Limit
		if cmd.Flags().Changed("limit") {
			limit = flagLimit
		}
		audiences := flagAudiences
		if len(audiences) == 0 {
			audiences = a.cfg.Trending.Audiences
		}

		res, err := a.svc.Trending(cmd.Context(), pipeline.TrendingOptions{
			Audiences:    audiences,
			Ranked:       flagRanked,
			Limit:        limit,
			ForceRefresh: flagRefresh,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch flagFormat {
		case "", "table":
			renderTrending(out, res)
			return nil
		case "json":
			if flagRanked {
				return writeJSON(out, res.Scored)
			}
			return writeJSON(out, res.Items)
		}

		f, err := export.ParseFormat(flagFormat)
		if err != nil {
			return fmt.Errorf("--format: %w", err)
		}
		updated := res.FetchedAt
		if updated.IsZero() {
			updated = time.Now()
		}
		return export.Write(out, f, export.DefaultMeta(updated), res.Items)
	},
}

func init() {
	f := trendingCmd.Flags()
	f.StringSliceVarP(&flagAudiences, "audience", "a", nil, "audience IDs to filter by (comma separated)")
	f.BoolVarP(&flagRanked, "ranked", "r", false, "sort by relevance score")
	f.IntVarP(&flagLimit, "limit", "n", 0, "maximum items (0 for all; default from config)")
	f.BoolVar(&flagRefresh, "refresh", false, "bypass the cache and fetch now")
	f.StringVarP(&flagFormat, "format", "f", "table", "output format: table, json, rss, atom")
}
