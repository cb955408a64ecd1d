// Package coord keeps a long-running trendwire process warm.
package coord

import (
	"context"
	"sync"
	"time"

	"github.com/abelbrown/trendwire/internal/logging"
	"github.com/abelbrown/trendwire/internal/otel"
	"github.com/abelbrown/trendwire/internal/pipeline"
)

// DefaultPurgeInterval is the time between search cache sweeps.
const DefaultPurgeInterval = 5 * time.Minute

// refresher is the part of pipeline.Service the coordinator drives.
type refresher interface {
	Trending(ctx context.Context, opts pipeline.TrendingOptions) (pipeline.TrendingResult, error)
}

// purger drops expired cache entries. *search.Gateway implements it.
type purger interface {
	Purge() int
}

// Coordinator refreshes the trending list on a ticker so readers always hit
// the cache, and sweeps expired search results.
// Uses context cancellation as the only stop mechanism.
type Coordinator struct {
	trending     refresher
	search       purger // optional
	refreshEvery time.Duration
	purgeEvery   time.Duration
	events       *otel.Logger
	wg           sync.WaitGroup
}

// New creates a Coordinator. A nil search disables sweeping; non-positive
// intervals get defaults (one hour and DefaultPurgeInterval).
func New(trending refresher, search purger, refreshEvery, purgeEvery time.Duration, events *otel.Logger) *Coordinator {
	if refreshEvery <= 0 {
		refreshEvery = pipeline.DefaultTrendingTTL
	}
	if purgeEvery <= 0 {
		purgeEvery = DefaultPurgeInterval
	}
	return &Coordinator{
		trending:     trending,
		search:       search,
		refreshEvery: refreshEvery,
		purgeEvery:   purgeEvery,
		events:       events,
	}
}

// Start refreshes immediately, then on every tick until ctx is cancelled.
func (c *Coordinator) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		c.refresh(ctx)

		refreshTicker := time.NewTicker(c.refreshEvery)
		defer refreshTicker.Stop()

		var purgeC <-chan time.Time
		if c.search != nil {
			purgeTicker := time.NewTicker(c.purgeEvery)
			defer purgeTicker.Stop()
			purgeC = purgeTicker.C
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-refreshTicker.C:
				c.refresh(ctx)
			case <-purgeC:
				c.purge()
			}
		}
	}()
}

// Wait blocks until the background goroutine exits.
// Call after cancelling the context passed to Start.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	res, err := c.trending.Trending(ctx, pipeline.TrendingOptions{ForceRefresh: true})
	if err != nil {
		logging.Warn("coord: trending refresh failed", "error", err)
		c.events.Error(otel.KindFetchError, "coord", err)
		return
	}
	logging.Info("coord: trending refreshed", "items", len(res.Items), "took", time.Since(start).Round(time.Millisecond))
}

func (c *Coordinator) purge() {
	if n := c.search.Purge(); n > 0 {
		logging.Debug("coord: purged search cache", "entries", n)
	}
}
