// Package github finds recently created repositories that are gathering stars.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/abelbrown/trendwire/internal/feeds"
	"github.com/abelbrown/trendwire/internal/httpclient"
)

const defaultEndpoint = "https://api.github.com/search/repositories"

type repo struct {
	ID          int64    `json:"id"`
	FullName    string   `json:"full_name"`
	HTMLURL     string   `json:"html_url"`
	Description string   `json:"description"`
	Stars       int      `json:"stargazers_count"`
	Language    string   `json:"language"`
	CreatedAt   string   `json:"created_at"`
	Topics      []string `json:"topics"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type searchResponse struct {
	Items []repo `json:"items"`
}

// Source queries repository search for repos created in the last window.
type Source struct {
	endpoint string
	token    string
	window   time.Duration
	perPage  int
	client   *http.Client
	now      func() time.Time
}

// New creates a GitHub source. The token is optional and only raises the
// rate limit.
func New(token string) *Source {
	return &Source{
		endpoint: defaultEndpoint,
		token:    token,
		window:   7 * 24 * time.Hour,
		perPage:  30,
		client:   httpclient.Default(),
		now:      time.Now,
	}
}

func (s *Source) Name() string             { return "GitHub" }
func (s *Source) Category() feeds.Category { return feeds.CategoryGitHub }

func (s *Source) Fetch(ctx context.Context) []feeds.Item {
	return feeds.Swallow(ctx, s.Name(), s.TryFetch)
}

func (s *Source) TryFetch(ctx context.Context) ([]feeds.Item, error) {
	since := s.now().Add(-s.window).UTC().Format("2006-01-02")
	q := url.Values{}
	q.Set("q", "created:>"+since)
	q.Set("sort", "stars")
	q.Set("order", "desc")
	q.Set("per_page", strconv.Itoa(s.perPage))

	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if s.token != "" {
		headers["Authorization"] = "Bearer " + s.token
	}

	var resp searchResponse
	if err := httpclient.GetJSON(ctx, s.client, s.endpoint+"?"+q.Encode(), headers, &resp); err != nil {
		return nil, fmt.Errorf("github: %w", err)
	}
	return parse(resp), nil
}

func parse(resp searchResponse) []feeds.Item {
	items := make([]feeds.Item, 0, len(resp.Items))
	for _, r := range resp.Items {
		if r.ID == 0 || r.FullName == "" {
			continue
		}

		parts := []string{fmt.Sprintf("%d stars", r.Stars)}
		if r.Language != "" {
			parts = append(parts, r.Language)
		}
		if d := feeds.PlainText(r.Description, 200); d != "" {
			parts = append(parts, d)
		}

		items = append(items, feeds.Item{
			ID:          "github-" + strconv.FormatInt(r.ID, 10),
			Title:       r.FullName,
			URL:         r.HTMLURL,
			Author:      r.Owner.Login,
			Publication: "GitHub",
			Date:        r.CreatedAt,
			Category:    feeds.CategoryGitHub,
			Summary:     strings.Join(parts, " · "),
			Tags:        r.Topics,
		})
	}
	return items
}
