// Package export renders trending items as syndication feeds.
package export

import (
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	gfeeds "github.com/gorilla/feeds"

	"github.com/abelbrown/trendwire/internal/feeds"
	"github.com/abelbrown/trendwire/internal/ranking"
)

// Format is an output feed format.
type Format string

const (
	FormatRSS  Format = "rss"
	FormatAtom Format = "atom"
	FormatJSON Format = "json"
)

// ParseFormat accepts rss, atom or json, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatRSS, FormatAtom, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown feed format %q (valid: rss, atom, json)", s)
}

// Meta describes the feed itself.
type Meta struct {
	Title       string
	Link        string
	Description string
	Updated     time.Time
}

// DefaultMeta is the channel description used by the CLI.
func DefaultMeta(updated time.Time) Meta {
	return Meta{
		Title:       "trendwire: trending in software",
		Link:        "https://github.com/abelbrown/trendwire",
		Description: "What developers are reading today across Hacker News, Reddit, GitHub, arXiv, DEV and Lobsters",
		Updated:     updated,
	}
}

// Build converts items to a feed. Items without a parseable date use the
// feed's update time.
func Build(meta Meta, items []feeds.Item) *gfeeds.Feed {
	if meta.Updated.IsZero() {
		meta.Updated = time.Now()
	}
	feed := &gfeeds.Feed{
		Title:       meta.Title,
		Link:        &gfeeds.Link{Href: meta.Link, Rel: "self", Type: "text/html"},
		Description: meta.Description,
		Id:          meta.Link,
		Created:     meta.Updated,
		Updated:     meta.Updated,
	}

	for _, it := range items {
		created, ok := ranking.ParseDate(it.Date, meta.Updated.Location())
		if !ok {
			created = meta.Updated
		}
		id := it.ID
		if id == "" {
			id = it.URL
		}
		item := &gfeeds.Item{
			Title:       it.Title,
			Link:        &gfeeds.Link{Href: it.URL, Rel: "alternate", Type: "text/html"},
			Id:          id,
			Description: describe(it),
			Created:     created,
		}
		if it.Author != "" {
			item.Author = &gfeeds.Author{Name: it.Author}
		}
		feed.Items = append(feed.Items, item)
	}
	return feed
}

func describe(it feeds.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p><strong>%s</strong>", html.EscapeString(string(it.Category)))
	if it.Publication != "" {
		fmt.Fprintf(&b, " · %s", html.EscapeString(it.Publication))
	}
	b.WriteString("</p>")
	if it.Summary != "" {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(it.Summary))
	}
	if len(it.Tags) > 0 {
		fmt.Fprintf(&b, "<p>Tags: %s</p>", html.EscapeString(strings.Join(it.Tags, ", ")))
	}
	return b.String()
}

// Write renders items to w in format f.
func Write(w io.Writer, f Format, meta Meta, items []feeds.Item) error {
	feed := Build(meta, items)
	switch f {
	case FormatRSS:
		return feed.WriteRss(w)
	case FormatAtom:
		return feed.WriteAtom(w)
	case FormatJSON:
		return feed.WriteJSON(w)
	}
	return fmt.Errorf("unknown feed format %q", f)
}
