package ranking

import (
	"testing"
	"time"

	"github.com/abelbrown/trendwire/internal/feeds"
)

var now = time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)

// quiet has no keywords from any vocabulary used below.
var quiet = []feeds.Audience{{ID: "none", Keywords: []string{"zzzz"}}}

func testContext() *Context {
	return NewContext(now, quiet)
}

func TestRecency(t *testing.T) {
	tests := []struct {
		name string
		date string
		want float64
	}{
		{"same day early", "2026-10-17T00:05:00Z", 30},
		{"same day date only", "2026-10-17", 30},
		{"yesterday", "2026-10-16T23:59:00Z", 20},
		{"yesterday rfc1123", "Fri, 16 Oct 2026 08:00:00 GMT", 20},
		{"three days", "2026-10-14 09:30:00", 10},
		{"seven days", "2026-10-10T15:00:00Z", 10},
		{"eight days", "2026-10-09T09:00:00Z", 0},
		{"tomorrow", "2026-10-18T10:00:00Z", 0},
		{"empty", "", 0},
		{"garbage", "last Tuesday", 0},
		{"nano", "2026-10-17T01:02:03.456789Z", 30},
	}
	r := RecencyRanker{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Score(feeds.Item{Date: tt.date}, testContext()); got != tt.want {
				t.Errorf("recency(%q) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestRecencyUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	ctx := NewContext(time.Date(2026, 10, 17, 8, 0, 0, 0, loc), quiet)
	// 02:00 UTC on the 17th is still the 16th in UTC-8.
	if got := (RecencyRanker{}).Score(feeds.Item{Date: "2026-10-17T02:00:00Z"}, ctx); got != RecencyYesterday {
		t.Errorf("expected recency %v, got %v", RecencyYesterday, got)
	}
}

func TestRecencyZonelessDatesUseNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	ctx := NewContext(time.Date(2026, 10, 17, 8, 0, 0, 0, loc), quiet)

	tests := []struct {
		date string
		want float64
	}{
		{"2026-10-17", RecencySameDay},
		{"2026-10-17 07:00:00", RecencySameDay},
		{"2026-10-16", RecencyYesterday},
		{"2026-10-16 23:30:00", RecencyYesterday},
	}
	for _, tt := range tests {
		if got := (RecencyRanker{}).Score(feeds.Item{Date: tt.date}, ctx); got != tt.want {
			t.Errorf("recency(%q) = %v, want %v", tt.date, got, tt.want)
		}
	}
}

func TestEngagement(t *testing.T) {
	tests := []struct {
		summary string
		want    float64
	}{
		{"2480 stars · Rust · fast", 20},
		{"1,200 upvotes · 50 comments", 20},
		{"412 upvotes · 88 comments", 12},
		{"100 reactions", 12},
		{"99 points", 4},
		{"1 star", 4},
		{"0 reactions · nothing yet", 0},
		{"no numbers here", 0},
		{"88 comments only", 0},
		{"", 0},
	}
	r := EngagementRanker{}
	for _, tt := range tests {
		if got := r.Score(feeds.Item{Summary: tt.summary}, testContext()); got != tt.want {
			t.Errorf("engagement(%q) = %v, want %v", tt.summary, got, tt.want)
		}
	}
}

func TestEngagementFirstMatchWins(t *testing.T) {
	n, ok := Engagement("12 upvotes and 5,000 stars")
	if !ok || n != 12 {
		t.Errorf("Engagement = %d, %v; want 12, true", n, ok)
	}
}

func TestPracticalCountsOccurrences(t *testing.T) {
	item := feeds.Item{Title: "A tutorial for a new library", Summary: "Another tutorial"}
	if got := NewPracticalRanker().Score(item, testContext()); got != 9 {
		t.Errorf("expected practical 9, got %v", got)
	}
}

func TestDomainAcrossAudiences(t *testing.T) {
	ctx := NewContext(now, []feeds.Audience{
		{ID: "ai", Keywords: []string{"llm"}},
		{ID: "db", Keywords: []string{"sqlite", "llm"}},
	})
	item := feeds.Item{Title: "Running an LLM inside SQLite"}
	// llm counts once per vocabulary, sqlite once.
	if got := (DomainRanker{}).Score(item, ctx); got != 15 {
		t.Errorf("expected domain 15, got %v", got)
	}
}

func TestSourceTypeBonus(t *testing.T) {
	r := NewSourceTypeRanker()
	for cat, want := range map[feeds.Category]float64{
		feeds.CategoryGitHub:     2,
		feeds.CategoryArxiv:      2,
		feeds.CategoryReddit:     0,
		feeds.CategoryHackerNews: 0,
	} {
		if got := r.Score(feeds.Item{Category: cat}, testContext()); got != want {
			t.Errorf("source bonus for %s = %v, want %v", cat, got, want)
		}
	}
}

func TestBreakdownSums(t *testing.T) {
	item := feeds.Item{
		Title:    "Open source LLM benchmark",
		Summary:  "350 stars · Python",
		Date:     "2026-10-17T09:00:00Z",
		Category: feeds.CategoryGitHub,
	}
	ctx := NewContext(now, []feeds.Audience{{ID: "ai", Keywords: []string{"llm"}}})
	b := ScoreWithBreakdown(item, ctx)

	if b.Recency != 30 || b.Engagement != 12 || b.Practical != 6 || b.Domain != 5 || b.SourceType != 2 {
		t.Errorf("breakdown = %+v", b)
	}
	if b.Total != 55 {
		t.Errorf("expected Total 55, got %v", b.Total)
	}
	if got := Score(item, ctx); got != b.Total {
		t.Errorf("expected Score %v, got %v", b.Total, got)
	}
}

func TestOrderingContract(t *testing.T) {
	ctx := NewContext(now, []feeds.Audience{{ID: "ai", Keywords: []string{"llm"}}})

	// Week-old item with nothing else beats a dateless item with one domain hit.
	recent := feeds.Item{Title: "plain", Date: "2026-10-11T12:00:00Z"}
	keyword := feeds.Item{Title: "llm"}
	if Score(recent, ctx) <= Score(keyword, ctx) {
		t.Errorf("recency step should outweigh one domain keyword: %v vs %v", Score(recent, ctx), Score(keyword, ctx))
	}

	practicalHit := feeds.Item{Title: "tutorial", Category: feeds.CategoryReddit}
	bonusOnly := feeds.Item{Title: "plain", Category: feeds.CategoryArxiv}
	if Score(practicalHit, ctx) <= Score(bonusOnly, ctx) {
		t.Error("one keyword hit should outweigh the source-type bonus")
	}
}

func TestScoreIsPure(t *testing.T) {
	item := feeds.Item{Title: "LLM tutorial", Summary: "1500 stars", Date: "2026-10-16", Category: feeds.CategoryArxiv}
	ctx := NewContext(now, nil)
	first := ScoreWithBreakdown(item, ctx)
	for i := 0; i < 5; i++ {
		if got := ScoreWithBreakdown(item, ctx); got != first {
			t.Fatalf("run %d = %+v, want %+v", i, got, first)
		}
	}
}

func TestRankStableTies(t *testing.T) {
	items := []feeds.Item{
		{ID: "a", Title: "plain"},
		{ID: "b", Title: "tutorial"},
		{ID: "c", Title: "plain"},
		{ID: "d", Title: "plain"},
	}
	ranked := Rank(items, testContext())
	want := []string{"b", "a", "c", "d"}
	for i, id := range want {
		if ranked[i].Item.ID != id {
			t.Errorf("rank %d = %q, want %q", i, ranked[i].Item.ID, id)
		}
	}
	if ranked[0].Score != ranked[0].Breakdown.Total {
		t.Error("Score and Breakdown.Total disagree")
	}
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{
		"2026-10-17T09:00:00Z",
		"2026-10-17T09:00:00.123+02:00",
		"2026-10-17",
		"Sat, 17 Oct 2026 09:00:00 +0000",
		"Sat, 17 Oct 2026 09:00:00 UTC",
		"2026-10-17 09:00:00",
	} {
		if _, ok := ParseDate(s, nil); !ok {
			t.Errorf("ParseDate(%q) failed", s)
		}
	}
	if _, ok := ParseDate("17/10/2026", nil); ok {
		t.Error("ParseDate should reject unknown layouts")
	}

	loc := time.FixedZone("UTC+9", 9*60*60)
	got, ok := ParseDate("2026-10-17 09:00:00", loc)
	if !ok || !got.Equal(time.Date(2026, 10, 17, 9, 0, 0, 0, loc)) {
		t.Errorf("expected zoneless date in loc 09:00 UTC+9, got %v", got)
	}
	got, ok = ParseDate("2026-10-17T09:00:00Z", loc)
	if !ok || !got.Equal(time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("expected zoned date 09:00 UTC, got %v", got)
	}
}
