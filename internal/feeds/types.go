package feeds

import (
	"context"
	"time"
)

// Category identifies which adapter produced an item.
type Category string

const (
	CategoryHackerNews Category = "hackernews"
	CategoryReddit     Category = "reddit"
	CategoryGitHub     Category = "github"
	CategoryArxiv      Category = "arxiv"
	CategoryDevTo      Category = "devto"
	CategoryLobsters   Category = "lobsters"
)

// Categories lists every category in adapter order.
var Categories = []Category{
	CategoryHackerNews,
	CategoryReddit,
	CategoryGitHub,
	CategoryArxiv,
	CategoryDevTo,
	CategoryLobsters,
}

// Item is one trending entry from any source. Items are values; adapters
// never touch them again after returning.
type Item struct {
	ID          string // "<category>-<native id>"
	Title       string
	URL         string
	Author      string
	Publication string // "Hacker News", "r/golang", "arXiv"
	Date        string // RFC3339, or empty when the source gives no time
	Category    Category
	Summary     string // engagement counts ride here, e.g. "412 upvotes · 88 comments"
	Tags        []string
}

// Source is implemented by every adapter.
type Source interface {
	Name() string
	Category() Category

	// Fetch returns the current items. Failures are logged and produce an
	// empty result, never an error.
	Fetch(ctx context.Context) []Item
}

// ErrorSource is implemented by adapters that can also report why a fetch
// came back empty. The Aggregator uses it for stats and events.
type ErrorSource interface {
	Source
	TryFetch(ctx context.Context) ([]Item, error)
}

// FormatDate renders t as an Item date, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
