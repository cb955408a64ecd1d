package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abelbrown/trendwire/internal/config"
	"github.com/abelbrown/trendwire/internal/pipeline"
)

var flagForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagConfig
		if path == "" {
			path = config.ConfigPath()
		}
		if _, err := os.Stat(path); err == nil && !flagForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		if err := config.DefaultConfig().Save(path); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with keys redacted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, headingStyle.Render("Models"))
		for _, name := range cfg.GetEnabledModels() {
			marker := ""
			if name == cfg.Models.Preferred {
				marker = " (preferred)"
			}
			fmt.Fprintf(out, "  %s%s\n", name, marker)
		}
		if avail := pipeline.BuildProvider(cfg).ListAvailable(); len(avail) > 0 {
			fmt.Fprintf(out, "  %s\n", subtleStyle.Render("available: "+strings.Join(avail, ", ")))
		} else {
			fmt.Fprintf(out, "  %s\n", staleStyle.Render("no provider is available; generation is disabled"))
		}
		fmt.Fprintln(out, headingStyle.Render("Search"))
		fmt.Fprintf(out, "  brave key %s, ttl %s, timeout %s\n", keyState(cfg.Search.BraveAPIKey), cfg.SearchTTL(), cfg.SearchTimeout())
		fmt.Fprintln(out, headingStyle.Render("Trending"))
		fmt.Fprintf(out, "  ttl %s, stale grace %s, limit %d\n", cfg.TrendingTTL(), cfg.StaleGrace(), cfg.Trending.Limit)
		fmt.Fprintln(out, headingStyle.Render("Storage"))
		if cfg.Storage.Enabled {
			fmt.Fprintf(out, "  %s\n", cfg.DBPath())
		} else {
			fmt.Fprintln(out, "  disabled")
		}
		return nil
	},
}

func keyState(k string) string {
	if k == "" {
		return "unset"
	}
	return "set"
}

func init() {
	configInitCmd.Flags().BoolVar(&flagForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
}
