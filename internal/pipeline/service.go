// Package pipeline is trendwire's inbound surface: cached trending lists and
// the generation callers built on the tool-use loop.
package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/abelbrown/trendwire/internal/brain"
	"github.com/abelbrown/trendwire/internal/cache"
	"github.com/abelbrown/trendwire/internal/feeds"
	"github.com/abelbrown/trendwire/internal/otel"
)

const (
	DefaultTrendingTTL = time.Hour
	DefaultStaleGrace  = 6 * time.Hour
	DefaultGenTimeout  = 2 * time.Minute

	// refreshTimeout bounds one aggregate run, including background ones.
	refreshTimeout = 60 * time.Second
)

// ArtifactStore persists generated artifacts. *store.Store implements it.
type ArtifactStore interface {
	Save(ctx context.Context, key, kind, value string) error
}

// HistoryRecorder keeps trending history and adapter health. *store.Store
// implements it.
type HistoryRecorder interface {
	SaveItems(ctx context.Context, items []feeds.Item, seen time.Time) (int, error)
	UpdateSourceStatus(ctx context.Context, st feeds.SourceStats) error
}

// Service ties the aggregator, caches, search gateway and model together.
type Service struct {
	agg        *feeds.Aggregator
	trending   *cache.Slot[[]feeds.Item]
	ttl        time.Duration
	staleGrace time.Duration
	audiences  []feeds.Audience

	provider   brain.Provider
	searcher   brain.Searcher
	maxRounds  int
	maxTokens  int
	genTimeout time.Duration

	artifacts ArtifactStore
	history   HistoryRecorder
	events    *otel.Logger
	now       func() time.Time

	group singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithTTL sets how long an aggregate is fresh and how long past expiry it may
// still be served while a refresh runs. A zero grace disables stale serving.
func WithTTL(ttl, staleGrace time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
		if staleGrace >= 0 {
			s.staleGrace = staleGrace
		}
	}
}

// WithAudiences replaces the audience catalog.
func WithAudiences(a []feeds.Audience) Option {
	return func(s *Service) { s.audiences = a }
}

// WithProvider sets the language model.
func WithProvider(p brain.Provider) Option {
	return func(s *Service) { s.provider = p }
}

// WithSearcher enables the web_search tool.
func WithSearcher(sr brain.Searcher) Option {
	return func(s *Service) { s.searcher = sr }
}

// WithGeneration bounds each generation call. Zero values keep defaults.
func WithGeneration(maxRounds, maxTokens int, timeout time.Duration) Option {
	return func(s *Service) {
		s.maxRounds = maxRounds
		if maxTokens > 0 {
			s.maxTokens = maxTokens
		}
		if timeout > 0 {
			s.genTimeout = timeout
		}
	}
}

// WithArtifactStore saves every structured generation output.
func WithArtifactStore(st ArtifactStore) Option {
	return func(s *Service) { s.artifacts = st }
}

// WithHistory records each fresh aggregate.
func WithHistory(h HistoryRecorder) Option {
	return func(s *Service) { s.history = h }
}

// WithEventLogger records pipeline events.
func WithEventLogger(l *otel.Logger) Option {
	return func(s *Service) { s.events = l }
}

// WithClock replaces time.Now. Pass the same clock to the trending cache.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a service over agg and the coarse trending cache. A nil
// cache gets a private one.
func NewService(agg *feeds.Aggregator, trending *cache.Slot[[]feeds.Item], opts ...Option) *Service {
	if trending == nil {
		trending = cache.NewSlot[[]feeds.Item]()
	}
	s := &Service{
		agg:        agg,
		trending:   trending,
		ttl:        DefaultTrendingTTL,
		staleGrace: DefaultStaleGrace,
		audiences:  feeds.DefaultAudiences,
		maxTokens:  2048,
		genTimeout: DefaultGenTimeout,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Aggregator returns the underlying aggregator.
func (s *Service) Aggregator() *feeds.Aggregator { return s.agg }

// Audiences returns the audience catalog in use.
func (s *Service) Audiences() []feeds.Audience { return s.audiences }
