package feeds

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/trendwire/internal/logging"
	"github.com/abelbrown/trendwire/internal/otel"
)

// SourceStats describes the most recent fetch of one adapter.
type SourceStats struct {
	Name        string
	Category    Category
	ItemCount   int
	Duration    time.Duration
	LastError   error
	LastFetched time.Time
}

// Aggregator fans a fetch out to every registered source and merges the
// results in registration order.
type Aggregator struct {
	sources []Source
	events  *otel.Logger

	mu    sync.RWMutex
	stats map[string]SourceStats
}

// NewAggregator registers sources in the order their items should appear.
func NewAggregator(sources ...Source) *Aggregator {
	return &Aggregator{
		sources: sources,
		stats:   make(map[string]SourceStats, len(sources)),
	}
}

// SetEventLogger attaches an event logger for fetch events.
func (a *Aggregator) SetEventLogger(l *otel.Logger) {
	a.events = l
}

// Aggregate fetches every source concurrently. One source failing never
// cancels or affects the others; if all fail the result is empty, not nil.
func (a *Aggregator) Aggregate(ctx context.Context) []Item {
	slots := make([][]Item, len(a.sources))

	// No WithContext: a failed source must not cancel its siblings.
	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			slots[i] = a.fetchOne(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, s := range slots {
		total += len(s)
	}
	items := make([]Item, 0, total)
	for _, s := range slots {
		items = append(items, s...)
	}
	logging.Debug("aggregate complete", "sources", len(a.sources), "items", len(items))
	return items
}

func (a *Aggregator) fetchOne(ctx context.Context, src Source) []Item {
	name := src.Name()
	a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFetchStart, Comp: "aggregator", Source: name})
	start := time.Now()

	var (
		items []Item
		err   error
	)
	if es, ok := src.(ErrorSource); ok {
		items, err = es.TryFetch(ctx)
		if err != nil {
			logging.Warn("source fetch failed", "source", name, "error", err)
			items = nil
		}
	} else {
		items = src.Fetch(ctx)
	}
	dur := time.Since(start)

	if err != nil {
		a.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindFetchError, Comp: "aggregator", Source: name, Dur: dur, Err: err.Error()})
	} else {
		a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFetchComplete, Comp: "aggregator", Source: name, Dur: dur, Count: len(items)})
	}

	a.mu.Lock()
	a.stats[name] = SourceStats{
		Name:        name,
		Category:    src.Category(),
		ItemCount:   len(items),
		Duration:    dur,
		LastError:   err,
		LastFetched: start,
	}
	a.mu.Unlock()

	return items
}

// Stats returns per-source results of the latest Aggregate, in registration
// order. Sources never fetched have a zero LastFetched.
func (a *Aggregator) Stats() []SourceStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]SourceStats, 0, len(a.sources))
	for _, src := range a.sources {
		st, ok := a.stats[src.Name()]
		if !ok {
			st = SourceStats{Name: src.Name(), Category: src.Category()}
		}
		out = append(out, st)
	}
	return out
}
