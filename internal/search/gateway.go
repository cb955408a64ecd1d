// Package search answers web lookups for the generation loop.
//
// Lookup always returns usable text. Successful results are formatted and
// cached by literal query; every failure mode yields the canned Fallback
// block and is never cached, so the next call tries the network again.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/abelbrown/trendwire/internal/cache"
	"github.com/abelbrown/trendwire/internal/feeds"
	"github.com/abelbrown/trendwire/internal/logging"
	"github.com/abelbrown/trendwire/internal/otel"
)

// Config holds gateway settings.
type Config struct {
	APIKey     string
	TTL        time.Duration // how long a successful result is reused
	Timeout    time.Duration // per lookup
	MaxResults int
}

// Result is the text handed to the model plus how it was produced.
type Result struct {
	Text    string
	Outcome Outcome
	Cached  bool
}

// Gateway fronts a search provider with a query cache.
type Gateway struct {
	provider Provider
	cache    *cache.Keyed[string]
	ttl      time.Duration
	timeout  time.Duration
	events   *otel.Logger
	group    singleflight.Group
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithProvider replaces the Brave provider built from Config.
func WithProvider(p Provider) Option {
	return func(g *Gateway) { g.provider = p }
}

// WithEventLogger records search events.
func WithEventLogger(l *otel.Logger) Option {
	return func(g *Gateway) { g.events = l }
}

// NewGateway builds a gateway over the given query cache. A nil cache gets a
// private one.
func NewGateway(cfg Config, c *cache.Keyed[string], opts ...Option) *Gateway {
	if c == nil {
		c = cache.NewKeyed[string]()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	g := &Gateway{
		provider: NewBrave(cfg.APIKey, cfg.MaxResults),
		cache:    c,
		ttl:      cfg.TTL,
		timeout:  cfg.Timeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Search returns result text for query, never an error.
func (g *Gateway) Search(ctx context.Context, query string) string {
	return g.Lookup(ctx, query).Text
}

// Lookup is Search with the outcome attached.
func (g *Gateway) Lookup(ctx context.Context, query string) Result {
	if text, ok := g.cache.Get(query); ok {
		g.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindCacheHit, Comp: "search", Query: query})
		return Result{Text: text, Outcome: OutcomeOK, Cached: true}
	}

	if strings.TrimSpace(query) == "" {
		return g.fallback(query, OutcomeEmpty, nil)
	}
	if !g.provider.Available() {
		return g.fallback(query, OutcomeNoCredentials, nil)
	}

	// The fetch runs detached so a caller giving up neither fails the other
	// waiters nor stops the result from reaching the cache.
	ch := g.group.DoChan(query, func() (any, error) {
		return g.fetch(context.WithoutCancel(ctx), query), nil
	})
	select {
	case r := <-ch:
		return r.Val.(Result)
	case <-ctx.Done():
		return g.fallback(query, classify(nil, ctx.Err()), ctx.Err())
	}
}

// Forget drops the cached result for query so the next lookup goes to the
// provider.
func (g *Gateway) Forget(query string) {
	g.cache.Invalidate(query)
}

// Purge drops expired cached results and reports how many went.
func (g *Gateway) Purge() int {
	return g.cache.Purge()
}

func (g *Gateway) fetch(ctx context.Context, query string) Result {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	g.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSearchStart, Comp: "search", Query: query, Source: g.provider.Name()})
	start := time.Now()
	hits, err := g.provider.Search(ctx, query)

	outcome := classify(hits, err)
	if outcome != OutcomeOK {
		return g.fallback(query, outcome, err)
	}

	text := Format(query, hits)
	g.cache.Set(query, text, g.ttl)
	g.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSearchComplete, Comp: "search", Query: query, Count: len(hits), Dur: time.Since(start), Outcome: string(outcome)})
	return Result{Text: text, Outcome: OutcomeOK}
}

func (g *Gateway) fallback(query string, outcome Outcome, err error) Result {
	p := policies[outcome]
	kv := []any{"query", query, "outcome", string(outcome)}
	if err != nil {
		kv = append(kv, "error", err)
	}
	logging.Log(p.level, p.message, kv...)

	ev := otel.Event{Level: otel.LevelWarn, Kind: otel.KindSearchFallback, Comp: "search", Query: query, Outcome: string(outcome), Msg: p.message}
	if err != nil {
		ev.Err = err.Error()
	}
	g.events.Emit(ev)

	return Result{Text: Fallback(query), Outcome: outcome}
}

// Format renders hits as the numbered block the model sees.
func Format(query string, hits []Hit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n", query)
	for i, h := range hits {
		fmt.Fprintf(&b, "\n%d. %s\n   URL: %s\n", i+1, feeds.PlainText(h.Title, 0), h.URL)
		if d := feeds.PlainText(h.Description, 300); d != "" {
			fmt.Fprintf(&b, "   %s\n", d)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
