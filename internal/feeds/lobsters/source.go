// Package lobsters reads the lobste.rs hottest page.
package lobsters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/abelbrown/trendwire/internal/feeds"
	"github.com/abelbrown/trendwire/internal/httpclient"
)

const defaultEndpoint = "https://lobste.rs/hottest.json"

// submitter accepts both shapes lobste.rs has served for submitter_user:
// a bare username or an object with a username field.
type submitter string

func (s *submitter) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*s = submitter(name)
		return nil
	}
	var obj struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("submitter_user: %w", err)
	}
	*s = submitter(obj.Username)
	return nil
}

type story struct {
	ShortID      string    `json:"short_id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	CommentsURL  string    `json:"comments_url"`
	Score        int       `json:"score"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    string    `json:"created_at"`
	Description  string    `json:"description"`
	Submitter    submitter `json:"submitter_user"`
	Tags         []string  `json:"tags"`
}

// Source fetches the hottest stories.
type Source struct {
	endpoint string
	client   *http.Client
}

// New creates a lobste.rs source.
func New() *Source {
	return &Source{
		endpoint: defaultEndpoint,
		client:   httpclient.Default(),
	}
}

func (s *Source) Name() string             { return "Lobsters" }
func (s *Source) Category() feeds.Category { return feeds.CategoryLobsters }

func (s *Source) Fetch(ctx context.Context) []feeds.Item {
	return feeds.Swallow(ctx, s.Name(), s.TryFetch)
}

func (s *Source) TryFetch(ctx context.Context) ([]feeds.Item, error) {
	var stories []story
	if err := httpclient.GetJSON(ctx, s.client, s.endpoint, nil, &stories); err != nil {
		return nil, fmt.Errorf("lobsters: %w", err)
	}
	return parse(stories), nil
}

func parse(stories []story) []feeds.Item {
	items := make([]feeds.Item, 0, len(stories))
	for _, st := range stories {
		if st.ShortID == "" || st.Title == "" {
			continue
		}

		link := st.URL
		if link == "" {
			link = st.CommentsURL
		}

		summary := fmt.Sprintf("%d upvotes · %d comments", st.Score, st.CommentCount)
		if d := feeds.PlainText(st.Description, 200); d != "" {
			summary += " · " + d
		}

		date := st.CreatedAt
		if t, err := time.Parse(time.RFC3339, st.CreatedAt); err == nil {
			date = feeds.FormatDate(t)
		}

		items = append(items, feeds.Item{
			ID:          "lobsters-" + st.ShortID,
			Title:       st.Title,
			URL:         link,
			Author:      string(st.Submitter),
			Publication: "Lobsters",
			Date:        date,
			Category:    feeds.CategoryLobsters,
			Summary:     summary,
			Tags:        st.Tags,
		})
	}
	return items
}
