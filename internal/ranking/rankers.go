package ranking

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abelbrown/trendwire/internal/feeds"
)

// Recency bonuses by calendar distance from Now.
const (
	RecencySameDay   = 30
	RecencyYesterday = 20
	RecencyThisWeek  = 10
)

// dateLayouts are tried in order when parsing Item.Date.
var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
}

// ParseDate parses an item date in any accepted layout. Layouts without a
// zone are read in loc; a nil loc means UTC.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// RecencyRanker rewards items published today, yesterday or this week.
// Dates are compared as calendar days in Now's location.
type RecencyRanker struct{}

func (RecencyRanker) Name() string { return "recency" }

func (RecencyRanker) Score(item feeds.Item, ctx *Context) float64 {
	now := ctx.Now
	t, ok := ParseDate(item.Date, now.Location())
	if !ok {
		return 0
	}
	t = t.In(now.Location())

	if sameDay(t, now) {
		return RecencySameDay
	}
	if t.After(now) {
		return 0
	}
	if sameDay(t, now.AddDate(0, 0, -1)) {
		return RecencyYesterday
	}
	if now.Sub(t) <= 7*24*time.Hour {
		return RecencyThisWeek
	}
	return 0
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// engagementRe finds the first "<count> <signal>" in a summary.
var engagementRe = regexp.MustCompile(`(?i)\b(\d{1,3}(?:,\d{3})+|\d+)\s+(star|upvote|point|reaction)s?\b`)

// EngagementRanker reads the engagement count adapters put in the summary.
type EngagementRanker struct{}

func (EngagementRanker) Name() string { return "engagement" }

func (EngagementRanker) Score(item feeds.Item, _ *Context) float64 {
	n, ok := Engagement(item.Summary)
	switch {
	case !ok:
		return 0
	case n >= 1000:
		return 20
	case n >= 100:
		return 12
	case n > 0:
		return 4
	}
	return 0
}

// Engagement extracts the first engagement count from a summary.
func Engagement(summary string) (int, bool) {
	m := engagementRe.FindStringSubmatch(summary)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

// PracticalKeywords mark actionable content.
var PracticalKeywords = []string{
	"tutorial", "guide", "how to", "how-to", "library", "framework", "api", "sdk",
	"tool", "tools", "open source", "open-source", "release", "released", "benchmark",
	"cli", "example", "examples", "walkthrough", "cheatsheet", "introducing",
}

// PracticalRanker awards a small bonus per practical keyword occurrence.
type PracticalRanker struct {
	PerHit   float64
	keywords *feeds.AudienceMatcher
}

func NewPracticalRanker() *PracticalRanker {
	return &PracticalRanker{
		PerHit:   3,
		keywords: feeds.NewAudienceMatcher(feeds.Audience{ID: "practical", Keywords: PracticalKeywords}),
	}
}

func (r *PracticalRanker) Name() string { return "practical" }

func (r *PracticalRanker) Score(item feeds.Item, _ *Context) float64 {
	return r.PerHit * float64(r.keywords.Count(item.Title+" "+item.Summary))
}

// DomainRanker awards DomainPerHit per keyword occurrence in every audience
// vocabulary, so one item can score for several audiences at once.
type DomainRanker struct{}

// DomainPerHit is the bonus for one audience keyword occurrence.
const DomainPerHit = 5

func (DomainRanker) Name() string { return "domain" }

func (DomainRanker) Score(item feeds.Item, ctx *Context) float64 {
	text := item.Title + " " + item.Summary
	hits := 0
	for _, m := range ctx.audienceMatchers() {
		hits += m.Count(text)
	}
	return float64(DomainPerHit * hits)
}

// SourceTypeRanker favours categories with structured, citable content.
type SourceTypeRanker struct {
	Bonus map[feeds.Category]float64
}

func NewSourceTypeRanker() *SourceTypeRanker {
	return &SourceTypeRanker{Bonus: map[feeds.Category]float64{
		feeds.CategoryGitHub: 2,
		feeds.CategoryArxiv:  2,
	}}
}

func (r *SourceTypeRanker) Name() string { return "source_type" }

func (r *SourceTypeRanker) Score(item feeds.Item, _ *Context) float64 {
	return r.Bonus[item.Category]
}
