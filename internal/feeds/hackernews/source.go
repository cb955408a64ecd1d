// Package hackernews reads the Hacker News front page through the Algolia API.
package hackernews

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/abelbrown/trendwire/internal/feeds"
	"github.com/abelbrown/trendwire/internal/httpclient"
)

const defaultEndpoint = "https://hn.algolia.com/api/v1/search?tags=front_page&hitsPerPage=60"

// DefaultTopics keeps developer and AI stories off a general front page.
var DefaultTopics = regexp.MustCompile(`(?i)\b(ai|llms?|gpt|claude|gemini|openai|anthropic|model|agents?|` +
	`programming|developer|code|coding|compiler|rust|go|golang|python|javascript|typescript|` +
	`linux|kernel|database|postgres|sqlite|api|open[- ]source|github|release|framework|library|security|cloud|kubernetes)\b`)

type hit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	CreatedAt   string `json:"created_at"`
	StoryText   string `json:"story_text"`
}

type response struct {
	Hits []hit `json:"hits"`
}

// Source fetches front-page stories.
type Source struct {
	endpoint string
	client   *http.Client
	topics   *regexp.Regexp
}

// New creates a Hacker News source filtered by DefaultTopics.
func New() *Source {
	return &Source{
		endpoint: defaultEndpoint,
		client:   httpclient.Default(),
		topics:   DefaultTopics,
	}
}

// WithTopics replaces the title filter. A nil pattern keeps every story.
func (s *Source) WithTopics(re *regexp.Regexp) *Source {
	s.topics = re
	return s
}

func (s *Source) Name() string             { return "Hacker News" }
func (s *Source) Category() feeds.Category { return feeds.CategoryHackerNews }

func (s *Source) Fetch(ctx context.Context) []feeds.Item {
	return feeds.Swallow(ctx, s.Name(), s.TryFetch)
}

func (s *Source) TryFetch(ctx context.Context) ([]feeds.Item, error) {
	var resp response
	if err := httpclient.GetJSON(ctx, s.client, s.endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("hacker news: %w", err)
	}
	return s.parse(resp), nil
}

func (s *Source) parse(resp response) []feeds.Item {
	items := make([]feeds.Item, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		title := strings.TrimSpace(h.Title)
		if title == "" || h.ObjectID == "" {
			continue
		}
		if s.topics != nil && !s.topics.MatchString(title) {
			continue
		}

		link := h.URL
		if link == "" {
			link = "https://news.ycombinator.com/item?id=" + h.ObjectID
		}

		summary := fmt.Sprintf("%d upvotes · %d comments", h.Points, h.NumComments)
		if text := feeds.PlainText(h.StoryText, 200); text != "" {
			summary += " · " + text
		}

		items = append(items, feeds.Item{
			ID:          "hackernews-" + h.ObjectID,
			Title:       title,
			URL:         link,
			Author:      h.Author,
			Publication: "Hacker News",
			Date:        h.CreatedAt,
			Category:    feeds.CategoryHackerNews,
			Summary:     summary,
		})
	}
	return items
}
