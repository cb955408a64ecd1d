// Package config loads trendwire's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the persistent application configuration
type Config struct {
	Models     ModelConfig      `yaml:"models"`
	Search     SearchConfig     `yaml:"search"`
	Trending   TrendingConfig   `yaml:"trending"`
	Sources    SourcesConfig    `yaml:"sources"`
	Generation GenerationConfig `yaml:"generation"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ModelConfig holds AI model settings
type ModelConfig struct {
	Preferred string        `yaml:"preferred,omitempty"` // provider name tried first
	Claude    ModelSettings `yaml:"claude"`
	OpenAI    ModelSettings `yaml:"openai"`
	Gemini    ModelSettings `yaml:"gemini"`
	Grok      ModelSettings `yaml:"grok"`
	Ollama    ModelSettings `yaml:"ollama"`
}

// ModelSettings for a single AI provider
type ModelSettings struct {
	Enabled  bool   `yaml:"enabled"`
	APIKey   string `yaml:"api_key,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"` // For Ollama or custom endpoints
	Model    string `yaml:"model,omitempty"`
	Priority int    `yaml:"priority"` // Lower = higher priority for fallback
}

// SearchConfig configures the web search gateway.
type SearchConfig struct {
	BraveAPIKey string `yaml:"brave_api_key,omitempty"`
	TTL         string `yaml:"ttl"`
	Timeout     string `yaml:"timeout"`
	MaxResults  int    `yaml:"max_results"`
}

// TrendingConfig configures the aggregate cache and defaults.
type TrendingConfig struct {
	TTL        string   `yaml:"ttl"`
	StaleGrace string   `yaml:"stale_grace"` // how long an expired list may still be served
	Limit      int      `yaml:"limit"`
	Audiences  []string `yaml:"audiences,omitempty"`
}

// SourceToggle enables one adapter.
type SourceToggle struct {
	Enabled bool `yaml:"enabled"`
}

// SourcesConfig selects and tunes the adapters. Empty lists mean the
// adapter's built-in defaults.
type SourcesConfig struct {
	HackerNews SourceToggle `yaml:"hackernews"`
	Reddit     struct {
		Enabled    bool     `yaml:"enabled"`
		Subreddits []string `yaml:"subreddits,omitempty"`
	} `yaml:"reddit"`
	GitHub struct {
		Enabled bool   `yaml:"enabled"`
		Token   string `yaml:"token,omitempty"`
	} `yaml:"github"`
	Arxiv struct {
		Enabled    bool     `yaml:"enabled"`
		Categories []string `yaml:"categories,omitempty"`
	} `yaml:"arxiv"`
	DevTo    SourceToggle `yaml:"devto"`
	Lobsters SourceToggle `yaml:"lobsters"`
}

// GenerationConfig bounds the generation loop.
type GenerationConfig struct {
	MaxRounds int    `yaml:"max_rounds"`
	MaxTokens int    `yaml:"max_tokens"`
	Timeout   string `yaml:"timeout"`
}

// StorageConfig locates the artifact database.
type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path,omitempty"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Dir        string `yaml:"dir,omitempty"`
	EventsFile string `yaml:"events_file,omitempty"` // JSONL pipeline events; empty disables
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{
		Models: ModelConfig{
			Claude: ModelSettings{
				Enabled:  true,
				Priority: 1,
				Model:    "claude-sonnet-4-5-20250929",
			},
			OpenAI: ModelSettings{
				Enabled:  true,
				Priority: 2,
				Model:    "gpt-5.2",
			},
			Gemini: ModelSettings{
				Enabled:  true,
				Priority: 3,
				Model:    "gemini-2.5-flash",
			},
			Grok: ModelSettings{
				Enabled:  false,
				Priority: 4,
				Model:    "grok-4-1-fast-non-reasoning",
			},
			Ollama: ModelSettings{
				Enabled:  false,
				Priority: 5,
				Endpoint: "http://localhost:11434",
				Model:    "llama3.2",
			},
		},
		Search: SearchConfig{
			TTL:        "15m",
			Timeout:    "10s",
			MaxResults: 5,
		},
		Trending: TrendingConfig{
			TTL:        "1h",
			StaleGrace: "6h",
			Limit:      30,
		},
		Generation: GenerationConfig{
			MaxRounds: 2,
			MaxTokens: 2048,
			Timeout:   "2m",
		},
		Storage: StorageConfig{Enabled: true},
		Logging: LoggingConfig{Level: "info"},
	}
	cfg.Sources.HackerNews.Enabled = true
	cfg.Sources.Reddit.Enabled = true
	cfg.Sources.GitHub.Enabled = true
	cfg.Sources.Arxiv.Enabled = true
	cfg.Sources.DevTo.Enabled = true
	cfg.Sources.Lobsters.Enabled = true
	return cfg
}

// Dir returns ~/.trendwire.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".trendwire")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads config from path (ConfigPath when empty) over the defaults,
// then fills missing keys from the environment. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.AutoPopulateFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to path (ConfigPath when empty).
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600) // Restrictive permissions for API keys
}

// AutoPopulateFromEnv fills in API keys from environment variables. Keys
// already set in the file win.
func (c *Config) AutoPopulateFromEnv() {
	c.applyKeys(func(name string) string { return os.Getenv(name) }, false)
}

// LoadKeysFromFile loads keys from a dotenv or shell script file
// (KEY=value or export KEY=value). Keys in the file override the config.
func (c *Config) LoadKeysFromFile(path string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("reading keys file: %w", err)
	}
	c.applyKeys(func(name string) string { return env[name] }, true)
	return nil
}

func (c *Config) applyKeys(lookup func(string) string, override bool) {
	set := func(dst *string, names ...string) {
		if *dst != "" && !override {
			return
		}
		for _, n := range names {
			if v := lookup(n); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&c.Models.Claude.APIKey, "ANTHROPIC_API_KEY", "CLAUDE_API_KEY")
	set(&c.Models.OpenAI.APIKey, "OPENAI_API_KEY")
	set(&c.Models.Gemini.APIKey, "GOOGLE_API_KEY", "GEMINI_API_KEY")
	set(&c.Models.Grok.APIKey, "XAI_API_KEY")
	set(&c.Search.BraveAPIKey, "BRAVE_API_KEY", "BRAVE_SEARCH_API_KEY")
	set(&c.Sources.GitHub.Token, "GITHUB_TOKEN")
}

// Validate checks durations, limits and endpoints.
func (c *Config) Validate() error {
	for name, d := range map[string]string{
		"search.ttl":           c.Search.TTL,
		"search.timeout":       c.Search.Timeout,
		"trending.ttl":         c.Trending.TTL,
		"trending.stale_grace": c.Trending.StaleGrace,
		"generation.timeout":   c.Generation.Timeout,
	} {
		if d == "" {
			continue
		}
		v, err := time.ParseDuration(d)
		if err != nil {
			return fmt.Errorf("%s: invalid duration %q: %w", name, d, err)
		}
		if v < 0 {
			return fmt.Errorf("%s: negative duration %q", name, d)
		}
	}
	if c.Generation.MaxRounds < 0 {
		return fmt.Errorf("generation.max_rounds: must be >= 0, got %d", c.Generation.MaxRounds)
	}
	if c.Trending.Limit < 0 {
		return fmt.Errorf("trending.limit: must be >= 0, got %d", c.Trending.Limit)
	}
	if ep := c.Models.Ollama.Endpoint; c.Models.Ollama.Enabled && ep != "" {
		u, err := url.Parse(ep)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("models.ollama.endpoint: invalid url %q", ep)
		}
	}
	if p := c.Models.Preferred; p != "" {
		if _, ok := c.modelSettings()[p]; !ok {
			return fmt.Errorf("models.preferred: unknown provider %q", p)
		}
	}
	return nil
}

func (c *Config) modelSettings() map[string]ModelSettings {
	return map[string]ModelSettings{
		"claude": c.Models.Claude,
		"openai": c.Models.OpenAI,
		"gemini": c.Models.Gemini,
		"grok":   c.Models.Grok,
		"ollama": c.Models.Ollama,
	}
}

// GetEnabledModels returns models that are enabled and have API keys,
// ordered by priority.
func (c *Config) GetEnabledModels() []string {
	var models []string
	for name, m := range c.modelSettings() {
		if !m.Enabled {
			continue
		}
		if name != "ollama" && m.APIKey == "" {
			continue
		}
		models = append(models, name)
	}
	settings := c.modelSettings()
	sort.Slice(models, func(i, j int) bool {
		pi, pj := settings[models[i]].Priority, settings[models[j]].Priority
		if pi != pj {
			return pi < pj
		}
		return models[i] < models[j]
	})
	return models
}

// DBPath returns the artifact database path.
func (c *Config) DBPath() string {
	if c.Storage.DBPath != "" {
		return expandHome(c.Storage.DBPath)
	}
	return filepath.Join(Dir(), "trendwire.db")
}

// EventsPath returns the JSONL events path, or "" when disabled.
func (c *Config) EventsPath() string {
	return expandHome(c.Logging.EventsFile)
}

func expandHome(p string) string {
	if len(p) >= 2 && p[:2] == "~/" {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, p[2:])
	}
	return p
}

func durationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// TrendingTTL is how long an aggregate is fresh.
func (c *Config) TrendingTTL() time.Duration { return durationOr(c.Trending.TTL, time.Hour) }

// StaleGrace is how long past expiry an aggregate may still be served.
// "0s" disables stale serving.
func (c *Config) StaleGrace() time.Duration {
	if d, err := time.ParseDuration(c.Trending.StaleGrace); err == nil && d == 0 {
		return 0
	}
	return durationOr(c.Trending.StaleGrace, 6*time.Hour)
}

func (c *Config) SearchTTL() time.Duration     { return durationOr(c.Search.TTL, 15*time.Minute) }
func (c *Config) SearchTimeout() time.Duration { return durationOr(c.Search.Timeout, 10*time.Second) }

func (c *Config) GenerationTimeout() time.Duration {
	return durationOr(c.Generation.Timeout, 2*time.Minute)
}
