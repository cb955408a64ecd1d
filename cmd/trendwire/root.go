package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abelbrown/trendwire/internal/config"
	"github.com/abelbrown/trendwire/internal/logging"
	"github.com/abelbrown/trendwire/internal/otel"
	"github.com/abelbrown/trendwire/internal/pipeline"
	"github.com/abelbrown/trendwire/internal/search"
	"github.com/abelbrown/trendwire/internal/store"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagConfig  string
	flagKeys    string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:          "trendwire",
	Short:        "Trending developer news and newsletter drafting",
	Long:         "trendwire aggregates Hacker News, Reddit, GitHub, arXiv, DEV and Lobsters, ranks what is trending for each audience, and drafts newsletter copy with a tool-using language model.",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "trendwire %s (commit: %s)\n", version, commit)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "path to config file (default ~/.trendwire/config.yaml)")
	pf.StringVar(&flagKeys, "keys", "", "dotenv file with API keys (overrides config and environment)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "log to stderr at debug level")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(trendingCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(extractJSONCmd)
	rootCmd.AddCommand(sanitizeCmd)
	rootCmd.AddCommand(artifactsCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// app holds everything a command needs. Close releases it.
type app struct {
	cfg     *config.Config
	events  *otel.Logger
	store   *store.Store // nil when storage is disabled
	gateway *search.Gateway
	svc     *pipeline.Service
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagKeys != "" {
		if err := cfg.LoadKeysFromFile(flagKeys); err != nil {
			return nil, fmt.Errorf("loading keys: %w", err)
		}
	}
	return cfg, nil
}

// openApp loads config, starts logging and wires the pipeline.
func openApp(withStore bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if flagVerbose {
		logging.InitWriter(os.Stderr, "debug")
	} else if err := logging.Init(cfg.Logging.Dir, cfg.Logging.Level); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, events: otel.NewNullLogger()}
	if path := cfg.EventsPath(); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating events dir: %w", err)
		}
		ev, err := otel.OpenFile(path)
		if err != nil {
			logging.Warn("event log disabled", "path", path, "error", err)
		} else {
			a.events.Close()
			a.events = ev
		}
	}
	a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStartup, Comp: "cli", Msg: version})

	// One gateway serves both the model's web_search tool and direct lookups,
	// so they share a cache.
	a.gateway = pipeline.BuildGateway(cfg, a.events)
	opts := []pipeline.Option{pipeline.WithSearcher(a.gateway)}
	if withStore && cfg.Storage.Enabled {
		path := cfg.DBPath()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			a.Close()
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		st, err := store.Open(path)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.store = st
		opts = append(opts, pipeline.WithArtifactStore(st), pipeline.WithHistory(st))
	}

	a.svc = pipeline.FromConfig(cfg, a.events, opts...)
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logging.Warn("closing store", "error", err)
		}
	}
	a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindShutdown, Comp: "cli"})
	a.events.Close()
	logging.Close()
}

// requireStore errors when artifact storage is off.
func (a *app) requireStore() (*store.Store, error) {
	if a.store == nil {
		return nil, fmt.Errorf("storage is disabled (set storage.enabled in %s)", config.ConfigPath())
	}
	return a.store, nil
}
