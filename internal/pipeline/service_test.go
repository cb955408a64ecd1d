package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abelbrown/trendwire/internal/brain"
	"github.com/abelbrown/trendwire/internal/cache"
	"github.com/abelbrown/trendwire/internal/feeds"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type stubSource struct {
	name  string
	cat   feeds.Category
	items []feeds.Item
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (s *stubSource) Name() string             { return s.name }
func (s *stubSource) Category() feeds.Category { return s.cat }
func (s *stubSource) Fetch(ctx context.Context) []feeds.Item {
	return feeds.Swallow(ctx, s.name, s.TryFetch)
}

func (s *stubSource) TryFetch(ctx context.Context) ([]feeds.Item, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return append([]feeds.Item(nil), s.items...), nil
}

// sixSources returns one stub per category with two items each. The titles
// listed in devops get a devops keyword.
func sixSources(devops ...string) []*stubSource {
	tagged := map[string]string{}
	keywords := []string{"Kubernetes", "Docker", "Terraform", "Prometheus"}
	for i, id := range devops {
		tagged[id] = keywords[i%len(keywords)]
	}

	var out []*stubSource
	for _, cat := range feeds.Categories {
		s := &stubSource{name: string(cat), cat: cat}
		for n := 1; n <= 2; n++ {
			id := fmt.Sprintf("%s-%d", cat, n)
			title := fmt.Sprintf("Item %d from %s", n, cat)
			if kw, ok := tagged[id]; ok {
				title = kw + " notes " + title
			}
			s.items = append(s.items, feeds.Item{ID: id, Title: title, Category: cat, URL: "https://example.com/" + id})
		}
		out = append(out, s)
	}
	return out
}

func asSources(stubs []*stubSource) []feeds.Source {
	out := make([]feeds.Source, len(stubs))
	for i, s := range stubs {
		out[i] = s
	}
	return out
}

func totalCalls(stubs []*stubSource) int {
	n := 0
	for _, s := range stubs {
		n += int(s.calls.Load())
	}
	return n
}

func newTestService(stubs []*stubSource, clock *fakeClock, opts ...Option) *Service {
	agg := feeds.NewAggregator(asSources(stubs)...)
	slot := cache.NewSlot[[]feeds.Item](cache.WithClock(clock.Now))
	return NewService(agg, slot, append([]Option{WithClock(clock.Now)}, opts...)...)
}

func ids(items []feeds.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTrendingEndToEnd(t *testing.T) {
	stubs := sixSources("reddit-2", "arxiv-1", "lobsters-2")
	svc := newTestService(stubs, newFakeClock())

	res, err := svc.Trending(context.Background(), TrendingOptions{})
	if err != nil {
		t.Fatalf("Trending() failed: %v", err)
	}
	want := []string{
		"hackernews-1", "hackernews-2", "reddit-1", "reddit-2", "github-1", "github-2",
		"arxiv-1", "arxiv-2", "devto-1", "devto-2", "lobsters-1", "lobsters-2",
	}
	if got := ids(res.Items); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected items %v, got %v", want, got)
	}

	filtered, err := svc.Trending(context.Background(), TrendingOptions{Audiences: []string{"devops"}})
	if err != nil {
		t.Fatalf("Trending(devops) failed: %v", err)
	}
	wantFiltered := []string{"reddit-2", "arxiv-1", "lobsters-2"}
	if got := ids(filtered.Items); strings.Join(got, ",") != strings.Join(wantFiltered, ",") {
		t.Errorf("expected filtered %v, got %v", wantFiltered, got)
	}
	if !filtered.Cached {
		t.Error("second call should be served from cache")
	}
}

func TestTrendingCacheHitSkipsSources(t *testing.T) {
	stubs := sixSources()
	clock := newFakeClock()
	svc := newTestService(stubs, clock)

	first, _ := svc.Trending(context.Background(), TrendingOptions{})
	if first.Cached || first.IsStale {
		t.Errorf("first = cached %v stale %v, want fresh fetch", first.Cached, first.IsStale)
	}
	if !first.FetchedAt.Equal(clock.Now()) {
		t.Errorf("expected FetchedAt %v, got %v", clock.Now(), first.FetchedAt)
	}

	clock.Advance(30 * time.Minute)
	second, _ := svc.Trending(context.Background(), TrendingOptions{})
	if !second.Cached || second.IsStale {
		t.Errorf("second = cached %v stale %v, want fresh hit", second.Cached, second.IsStale)
	}
	if second.CacheAge != 30*time.Minute {
		t.Errorf("expected CacheAge 30m, got %v", second.CacheAge)
	}
	if got := totalCalls(stubs); got != 6 {
		t.Errorf("expected source calls 6, got %d", got)
	}

	forced, _ := svc.Trending(context.Background(), TrendingOptions{ForceRefresh: true})
	if forced.Cached {
		t.Error("ForceRefresh result marked cached")
	}
	if got := totalCalls(stubs); got != 12 {
		t.Errorf("expected source calls after force 12, got %d", got)
	}
}

func TestTrendingServesStaleAndRefreshes(t *testing.T) {
	stubs := sixSources()
	clock := newFakeClock()
	svc := newTestService(stubs, clock, WithTTL(time.Hour, 6*time.Hour))

	svc.Trending(context.Background(), TrendingOptions{})
	clock.Advance(90 * time.Minute)

	stale, err := svc.Trending(context.Background(), TrendingOptions{})
	if err != nil {
		t.Fatalf("Trending() failed: %v", err)
	}
	if !stale.Cached || !stale.IsStale {
		t.Errorf("cached %v stale %v, want both true", stale.Cached, stale.IsStale)
	}
	if stale.CacheAge != 90*time.Minute {
		t.Errorf("expected CacheAge 90m, got %v", stale.CacheAge)
	}
	if len(stale.Items) != 12 {
		t.Errorf("expected stale items 12, got %d", len(stale.Items))
	}

	waitFor(t, "background refresh", func() bool {
		m, ok := svc.trending.Metadata()
		return ok && !m.Expired
	})
	if got := totalCalls(stubs); got != 12 {
		t.Errorf("expected source calls 12, got %d", got)
	}

	fresh, _ := svc.Trending(context.Background(), TrendingOptions{})
	if fresh.IsStale || !fresh.Cached {
		t.Errorf("after refresh: cached %v stale %v", fresh.Cached, fresh.IsStale)
	}
}

func TestTrendingBeyondGraceRefreshesSynchronously(t *testing.T) {
	stubs := sixSources()
	clock := newFakeClock()
	svc := newTestService(stubs, clock, WithTTL(time.Hour, 2*time.Hour))

	svc.Trending(context.Background(), TrendingOptions{})
	clock.Advance(4 * time.Hour)

	res, _ := svc.Trending(context.Background(), TrendingOptions{})
	if res.Cached || res.IsStale {
		t.Errorf("cached %v stale %v, want synchronous refresh", res.Cached, res.IsStale)
	}
	if got := totalCalls(stubs); got != 12 {
		t.Errorf("expected source calls 12, got %d", got)
	}
}

func TestTrendingStaleDisabled(t *testing.T) {
	stubs := sixSources()
	clock := newFakeClock()
	svc := newTestService(stubs, clock, WithTTL(time.Hour, 0))

	svc.Trending(context.Background(), TrendingOptions{})
	clock.Advance(61 * time.Minute)
	res, _ := svc.Trending(context.Background(), TrendingOptions{})
	if res.IsStale {
		t.Error("stale served with zero grace")
	}
}

func TestInvalidateForcesFetch(t *testing.T) {
	stubs := sixSources()
	svc := newTestService(stubs, newFakeClock())
	ctx := context.Background()

	if _, err := svc.Trending(ctx, TrendingOptions{}); err != nil {
		t.Fatalf("Trending failed: %v", err)
	}
	svc.Invalidate()
	res, err := svc.Trending(ctx, TrendingOptions{})
	if err != nil {
		t.Fatalf("Trending failed: %v", err)
	}
	if res.Cached {
		t.Error("expected a fresh fetch after Invalidate, got a cached list")
	}
	if got := totalCalls(stubs); got != 12 {
		t.Errorf("expected 12 source calls, got %d", got)
	}
}

func TestTrendingAllSourcesFail(t *testing.T) {
	stubs := sixSources()
	for _, s := range stubs {
		s.err = errors.New("offline")
	}
	svc := newTestService(stubs, newFakeClock())

	res, err := svc.Trending(context.Background(), TrendingOptions{})
	if err != nil {
		t.Fatalf("Trending() failed: %v", err)
	}
	if res.Items == nil || len(res.Items) != 0 {
		t.Errorf("expected items empty non-nil, got %v", res.Items)
	}

	// Empty results are not cached.
	svc.Trending(context.Background(), TrendingOptions{})
	if got := totalCalls(stubs); got != 12 {
		t.Errorf("expected source calls 12, got %d", got)
	}
}

func TestTrendingAbandonedCallerStillFillsCache(t *testing.T) {
	stubs := sixSources()
	for _, s := range stubs {
		s.delay = 50 * time.Millisecond
	}
	svc := newTestService(stubs, newFakeClock())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := svc.Trending(ctx, TrendingOptions{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	waitFor(t, "cache fill", func() bool {
		_, ok := svc.trending.Get()
		return ok
	})
}

func TestTrendingCoalescesConcurrentRefreshes(t *testing.T) {
	stubs := sixSources()
	for _, s := range stubs {
		s.delay = 20 * time.Millisecond
	}
	svc := newTestService(stubs, newFakeClock())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Trending(context.Background(), TrendingOptions{}); err != nil {
				t.Errorf("Trending() failed: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := totalCalls(stubs); got != 6 {
		t.Errorf("expected source calls 6 (one aggregate), got %d", got)
	}
}

func TestTrendingRankedLimit(t *testing.T) {
	stubs := sixSources()
	clock := newFakeClock()
	today := clock.Now().Format(time.RFC3339)
	stubs[5].items[1].Date = today
	stubs[5].items[1].Summary = "1,200 upvotes · 300 comments"
	stubs[2].items[0].Date = today

	svc := newTestService(stubs, clock)
	res, err := svc.Trending(context.Background(), TrendingOptions{Ranked: true, Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 3 || len(res.Scored) != 3 {
		t.Fatalf("expected 3 items and 3 scores, got %d/%d", len(res.Items), len(res.Scored))
	}
	if res.Items[0].ID != "lobsters-2" || res.Items[1].ID != "github-1" {
		t.Errorf("ranked = %v", ids(res.Items))
	}
	if res.Scored[0].Score < res.Scored[1].Score {
		t.Errorf("scores not descending: %v, %v", res.Scored[0].Score, res.Scored[1].Score)
	}
}

type fakeHistory struct {
	mu       sync.Mutex
	saved    int
	statuses []feeds.SourceStats
}

func (h *fakeHistory) SaveItems(ctx context.Context, items []feeds.Item, seen time.Time) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saved += len(items)
	return len(items), nil
}

func (h *fakeHistory) UpdateSourceStatus(ctx context.Context, st feeds.SourceStats) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, st)
	return nil
}

func TestTrendingRecordsHistory(t *testing.T) {
	stubs := sixSources()
	stubs[1].err = errors.New("429")
	h := &fakeHistory{}
	svc := newTestService(stubs, newFakeClock(), WithHistory(h))

	svc.Trending(context.Background(), TrendingOptions{})
	if h.saved != 10 {
		t.Errorf("expected saved 10, got %d", h.saved)
	}
	if len(h.statuses) != 6 || h.statuses[1].LastError == nil {
		t.Errorf("statuses = %+v", h.statuses)
	}
}

var _ brain.Provider = (*fakeProvider)(nil)
