// Package reddit reads the daily top posts of a set of subreddits.
package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/trendwire/internal/feeds"
	"github.com/abelbrown/trendwire/internal/httpclient"
	"github.com/abelbrown/trendwire/internal/logging"
)

const defaultBase = "https://www.reddit.com"

// DefaultSubreddits are polled when none are configured.
var DefaultSubreddits = []string{"programming", "MachineLearning", "LocalLLaMA", "golang", "webdev", "devops"}

type listing struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Selftext    string  `json:"selftext"`
	IsSelf      bool    `json:"is_self"`
	Stickied    bool    `json:"stickied"`
	Over18      bool    `json:"over_18"`
}

// Source polls subreddits one after another, paced by a limiter.
type Source struct {
	base       string
	subreddits []string
	limit      int
	client     *http.Client
	limiter    *rate.Limiter
}

// New creates a reddit source. With no subreddits DefaultSubreddits is used.
func New(subreddits ...string) *Source {
	if len(subreddits) == 0 {
		subreddits = DefaultSubreddits
	}
	return &Source{
		base:       defaultBase,
		subreddits: subreddits,
		limit:      15,
		client:     httpclient.Default(),
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

func (s *Source) Name() string             { return "Reddit" }
func (s *Source) Category() feeds.Category { return feeds.CategoryReddit }

func (s *Source) Fetch(ctx context.Context) []feeds.Item {
	return feeds.Swallow(ctx, s.Name(), s.TryFetch)
}

// TryFetch collects every subreddit that answered. It fails only when none did.
func (s *Source) TryFetch(ctx context.Context) ([]feeds.Item, error) {
	var (
		items []feeds.Item
		errs  []error
	)
	for _, sub := range s.subreddits {
		if err := s.limiter.Wait(ctx); err != nil {
			errs = append(errs, err)
			break
		}
		got, err := s.fetchSubreddit(ctx, sub)
		if err != nil {
			logging.Debug("subreddit fetch failed", "subreddit", sub, "error", err)
			errs = append(errs, fmt.Errorf("r/%s: %w", sub, err))
			continue
		}
		items = append(items, got...)
	}
	if len(items) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("reddit: %w", errors.Join(errs...))
	}
	return items, nil
}

func (s *Source) fetchSubreddit(ctx context.Context, sub string) ([]feeds.Item, error) {
	url := fmt.Sprintf("%s/r/%s/top.json?t=day&limit=%d", s.base, sub, s.limit)
	var l listing
	if err := httpclient.GetJSON(ctx, s.client, url, nil, &l); err != nil {
		return nil, err
	}
	return parse(l), nil
}

func parse(l listing) []feeds.Item {
	items := make([]feeds.Item, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		p := child.Data
		title := strings.TrimSpace(p.Title)
		if p.ID == "" || title == "" || p.Stickied || p.Over18 {
			continue
		}

		permalink := "https://www.reddit.com" + p.Permalink
		link := p.URL
		if p.IsSelf || link == "" {
			link = permalink
		}

		summary := fmt.Sprintf("%d upvotes · %d comments", p.Score, p.NumComments)
		if text := feeds.PlainText(p.Selftext, 200); text != "" {
			summary += " · " + text
		}

		var date string
		if p.CreatedUTC > 0 {
			date = feeds.FormatDate(time.Unix(int64(p.CreatedUTC), 0))
		}

		items = append(items, feeds.Item{
			ID:          "reddit-" + p.ID,
			Title:       title,
			URL:         link,
			Author:      p.Author,
			Publication: "r/" + p.Subreddit,
			Date:        date,
			Category:    feeds.CategoryReddit,
			Summary:     summary,
		})
	}
	return items
}
