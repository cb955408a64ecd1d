// Package devto reads the top DEV Community articles.
package devto

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/abelbrown/trendwire/internal/feeds"
	"github.com/abelbrown/trendwire/internal/httpclient"
)

const defaultEndpoint = "https://dev.to/api/articles"

type article struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	PublishedAt string   `json:"published_at"`
	Reactions   int      `json:"public_reactions_count"`
	Comments    int      `json:"comments_count"`
	TagList     []string `json:"tag_list"`
	User        struct {
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"user"`
}

// Source fetches articles ranked by reactions over the last days.
type Source struct {
	endpoint string
	days     int
	perPage  int
	client   *http.Client
}

// New creates a DEV source covering the top articles of the last day.
func New() *Source {
	return &Source{
		endpoint: defaultEndpoint,
		days:     1,
		perPage:  30,
		client:   httpclient.Default(),
	}
}

func (s *Source) Name() string             { return "DEV" }
func (s *Source) Category() feeds.Category { return feeds.CategoryDevTo }

func (s *Source) Fetch(ctx context.Context) []feeds.Item {
	return feeds.Swallow(ctx, s.Name(), s.TryFetch)
}

func (s *Source) TryFetch(ctx context.Context) ([]feeds.Item, error) {
	url := fmt.Sprintf("%s?top=%d&per_page=%d", s.endpoint, s.days, s.perPage)
	var articles []article
	if err := httpclient.GetJSON(ctx, s.client, url, nil, &articles); err != nil {
		return nil, fmt.Errorf("dev.to: %w", err)
	}
	return parse(articles), nil
}

func parse(articles []article) []feeds.Item {
	items := make([]feeds.Item, 0, len(articles))
	for _, a := range articles {
		if a.ID == 0 || a.Title == "" {
			continue
		}

		summary := fmt.Sprintf("%d reactions", a.Reactions)
		if d := feeds.PlainText(a.Description, 200); d != "" {
			summary += " · " + d
		}

		author := a.User.Name
		if author == "" {
			author = a.User.Username
		}

		items = append(items, feeds.Item{
			ID:          "devto-" + strconv.Itoa(a.ID),
			Title:       a.Title,
			URL:         a.URL,
			Author:      author,
			Publication: "DEV Community",
			Date:        a.PublishedAt,
			Category:    feeds.CategoryDevTo,
			Summary:     summary,
			Tags:        a.TagList,
		})
	}
	return items
}
