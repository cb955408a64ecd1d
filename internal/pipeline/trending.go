package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/abelbrown/trendwire/internal/cache"
	"github.com/abelbrown/trendwire/internal/feeds"
	"github.com/abelbrown/trendwire/internal/logging"
	"github.com/abelbrown/trendwire/internal/otel"
	"github.com/abelbrown/trendwire/internal/ranking"
)

const trendingKey = "trending"

// TrendingOptions selects and shapes a trending list.
type TrendingOptions struct {
	Audiences    []string // audience IDs; empty keeps every item
	Ranked       bool     // sort by relevance score
	Limit        int      // 0 keeps every item
	ForceRefresh bool     // bypass the cache
}

// TrendingResult is a trending list with cache metadata for display.
type TrendingResult struct {
	Items     []feeds.Item
	Scored    []ranking.Scored // set when Ranked
	Cached    bool
	IsStale   bool
	CacheAge  time.Duration
	FetchedAt time.Time
}

// Trending returns the current trending list. A fresh cached aggregate is
// served without network calls. An expired one still inside the stale grace
// is served with IsStale set while one background refresh repopulates the
// cache. Anything else refreshes synchronously.
func (s *Service) Trending(ctx context.Context, opts TrendingOptions) (TrendingResult, error) {
	items, meta, cached, stale, err := s.load(ctx, opts.ForceRefresh)
	if err != nil {
		return TrendingResult{}, err
	}

	res := TrendingResult{
		Cached:    cached,
		IsStale:   stale,
		CacheAge:  meta.Age,
		FetchedAt: meta.CachedAt,
	}

	items = feeds.FilterByAudience(items, s.audiences, opts.Audiences...)
	if opts.Ranked {
		scored := ranking.Rank(items, ranking.NewContext(s.now(), s.audiences))
		if opts.Limit > 0 && len(scored) > opts.Limit {
			scored = scored[:opts.Limit]
		}
		res.Scored = scored
		items = make([]feeds.Item, len(scored))
		for i, sc := range scored {
			items[i] = sc.Item
		}
	} else if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}
	res.Items = items
	return res, nil
}

// Invalidate drops the cached aggregate. The next Trending call fetches.
func (s *Service) Invalidate() {
	s.trending.Invalidate()
	logging.Info("trending cache invalidated")
}

func (s *Service) load(ctx context.Context, force bool) (items []feeds.Item, meta cache.Metadata, cached, stale bool, err error) {
	if !force {
		// One read so value and metadata describe the same entry.
		v, m, ok := s.trending.Stale()
		switch {
		case ok && !m.Expired:
			s.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindCacheHit, Comp: "pipeline", Count: len(v)})
			return v, m, true, false, nil
		case ok && s.withinGrace(m):
			s.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindCacheStale, Comp: "pipeline", Count: len(v), Msg: m.Age.String()})
			logging.Info("serving stale trending list", "age", m.Age, "ttl", m.TTL)
			s.refreshAsync(ctx)
			return v, m, true, true, nil
		}
	}

	s.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindCacheMiss, Comp: "pipeline"})
	items, err = s.refresh(ctx)
	if err != nil {
		return nil, cache.Metadata{}, false, false, err
	}
	return items, cache.Metadata{CachedAt: s.now()}, false, false, nil
}

func (s *Service) withinGrace(m cache.Metadata) bool {
	if s.staleGrace <= 0 {
		return false
	}
	return m.Age-m.TTL < s.staleGrace
}

// refresh aggregates once, coalescing concurrent callers. The aggregate runs
// on a context detached from ctx so an abandoned caller still fills the cache.
func (s *Service) refresh(ctx context.Context) ([]feeds.Item, error) {
	ch := s.group.DoChan(trendingKey, func() (any, error) {
		return s.aggregate(context.WithoutCancel(ctx)), nil
	})
	select {
	case r := <-ch:
		return r.Val.([]feeds.Item), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("trending refresh: %w", ctx.Err())
	}
}

// refreshAsync starts a refresh unless one is already running.
func (s *Service) refreshAsync(ctx context.Context) {
	s.group.DoChan(trendingKey, func() (any, error) {
		return s.aggregate(context.WithoutCancel(ctx)), nil
	})
}

func (s *Service) aggregate(ctx context.Context) []feeds.Item {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	items := s.agg.Aggregate(ctx)
	if len(items) == 0 {
		// Keep whatever is cached; an empty list would hide it for a full TTL.
		logging.Warn("aggregate returned no items; cache not updated")
		return items
	}
	s.trending.Set(items, s.ttl)
	s.record(ctx, items)
	return items
}

func (s *Service) record(ctx context.Context, items []feeds.Item) {
	if s.history == nil {
		return
	}
	if _, err := s.history.SaveItems(ctx, items, s.now()); err != nil {
		logging.Warn("failed to record trending history", "error", err)
	}
	for _, st := range s.agg.Stats() {
		if err := s.history.UpdateSourceStatus(ctx, st); err != nil {
			logging.Warn("failed to record source status", "source", st.Name, "error", err)
		}
	}
}
