package pipeline

import (
	"github.com/abelbrown/trendwire/internal/brain"
	"github.com/abelbrown/trendwire/internal/cache"
	"github.com/abelbrown/trendwire/internal/config"
	"github.com/abelbrown/trendwire/internal/feeds"
	"github.com/abelbrown/trendwire/internal/feeds/arxiv"
	"github.com/abelbrown/trendwire/internal/feeds/devto"
	"github.com/abelbrown/trendwire/internal/feeds/github"
	"github.com/abelbrown/trendwire/internal/feeds/hackernews"
	"github.com/abelbrown/trendwire/internal/feeds/lobsters"
	"github.com/abelbrown/trendwire/internal/feeds/reddit"
	"github.com/abelbrown/trendwire/internal/otel"
	"github.com/abelbrown/trendwire/internal/search"
)

// BuildSources returns the enabled adapters in fixed category order.
func BuildSources(cfg *config.Config) []feeds.Source {
	sc := cfg.Sources
	var sources []feeds.Source
	if sc.HackerNews.Enabled {
		sources = append(sources, hackernews.New())
	}
	if sc.Reddit.Enabled {
		sources = append(sources, reddit.New(sc.Reddit.Subreddits...))
	}
	if sc.GitHub.Enabled {
		sources = append(sources, github.New(sc.GitHub.Token))
	}
	if sc.Arxiv.Enabled {
		sources = append(sources, arxiv.New(sc.Arxiv.Categories...))
	}
	if sc.DevTo.Enabled {
		sources = append(sources, devto.New())
	}
	if sc.Lobsters.Enabled {
		sources = append(sources, lobsters.New())
	}
	return sources
}

// BuildProvider registers every enabled model provider by priority.
func BuildProvider(cfg *config.Config) *brain.ProviderManager {
	m := cfg.Models
	pm := brain.NewProviderManager()
	for _, name := range cfg.GetEnabledModels() {
		switch name {
		case "claude":
			pm.AddProvider(brain.NewClaudeProvider(m.Claude.APIKey, m.Claude.Model))
		case "openai":
			pm.AddProvider(brain.NewOpenAIProvider(m.OpenAI.APIKey, m.OpenAI.Model))
		case "gemini":
			pm.AddProvider(brain.NewGeminiProvider(m.Gemini.APIKey, m.Gemini.Model))
		case "grok":
			pm.AddProvider(brain.NewGrokProvider(m.Grok.APIKey, m.Grok.Model))
		case "ollama":
			pm.AddProvider(brain.NewOllamaProvider(m.Ollama.Endpoint, m.Ollama.Model))
		}
	}
	pm.SetPreferred(m.Preferred)
	return pm
}

// BuildGateway builds the search gateway over its own query cache.
func BuildGateway(cfg *config.Config, events *otel.Logger) *search.Gateway {
	return search.NewGateway(search.Config{
		APIKey:     cfg.Search.BraveAPIKey,
		TTL:        cfg.SearchTTL(),
		Timeout:    cfg.SearchTimeout(),
		MaxResults: cfg.Search.MaxResults,
	}, cache.NewKeyed[string](), search.WithEventLogger(events))
}

// FromConfig assembles a Service from configuration. Extra options (store,
// history, a shared search gateway) are applied last; without a searcher
// option the service gets its own gateway.
func FromConfig(cfg *config.Config, events *otel.Logger, opts ...Option) *Service {
	agg := feeds.NewAggregator(BuildSources(cfg)...)
	agg.SetEventLogger(events)

	base := []Option{
		WithTTL(cfg.TrendingTTL(), cfg.StaleGrace()),
		WithProvider(BuildProvider(cfg)),
		WithGeneration(cfg.Generation.MaxRounds, cfg.Generation.MaxTokens, cfg.GenerationTimeout()),
		WithEventLogger(events),
	}
	s := NewService(agg, cache.NewSlot[[]feeds.Item](), append(base, opts...)...)
	if s.searcher == nil {
		s.searcher = BuildGateway(cfg, events)
	}
	return s
}
