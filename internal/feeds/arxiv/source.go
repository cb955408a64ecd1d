// Package arxiv reads the newest submissions in a set of arXiv categories
// from the export API's Atom feed.
package arxiv

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/abelbrown/trendwire/internal/feeds"
	"github.com/abelbrown/trendwire/internal/httpclient"
)

const defaultEndpoint = "https://export.arxiv.org/api/query"

// DefaultCategories cover AI, ML, NLP and software engineering.
var DefaultCategories = []string{"cs.AI", "cs.LG", "cs.CL", "cs.SE"}

// Source queries the arXiv export API.
type Source struct {
	endpoint   string
	categories []string
	max        int
	client     *http.Client
	parser     *gofeed.Parser
}

// New creates an arXiv source. With no categories DefaultCategories is used.
func New(categories ...string) *Source {
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	return &Source{
		endpoint:   defaultEndpoint,
		categories: categories,
		max:        30,
		client:     httpclient.Default(),
		parser:     gofeed.NewParser(),
	}
}

func (s *Source) Name() string             { return "arXiv" }
func (s *Source) Category() feeds.Category { return feeds.CategoryArxiv }

func (s *Source) Fetch(ctx context.Context) []feeds.Item {
	return feeds.Swallow(ctx, s.Name(), s.TryFetch)
}

func (s *Source) query() string {
	terms := make([]string, len(s.categories))
	for i, c := range s.categories {
		terms[i] = "cat:" + c
	}
	q := url.Values{}
	q.Set("search_query", strings.Join(terms, " OR "))
	q.Set("sortBy", "submittedDate")
	q.Set("sortOrder", "descending")
	q.Set("max_results", strconv.Itoa(s.max))
	return s.endpoint + "?" + q.Encode()
}

func (s *Source) TryFetch(ctx context.Context) ([]feeds.Item, error) {
	body, err := httpclient.Get(ctx, s.client, s.query(), map[string]string{"Accept": "application/atom+xml"})
	if err != nil {
		return nil, fmt.Errorf("arxiv: %w", err)
	}
	feed, err := s.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("arxiv: parse atom: %w", err)
	}
	return parse(feed), nil
}

// paperID turns "http://arxiv.org/abs/2410.01234v2" into "2410.01234v2".
func paperID(guid string) string {
	if i := strings.LastIndex(guid, "/abs/"); i >= 0 {
		return guid[i+len("/abs/"):]
	}
	return guid
}

func parse(feed *gofeed.Feed) []feeds.Item {
	items := make([]feeds.Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		id := paperID(entry.GUID)
		title := strings.Join(strings.Fields(entry.Title), " ")
		if id == "" || title == "" {
			continue
		}

		authors := make([]string, 0, len(entry.Authors))
		for _, a := range entry.Authors {
			if a != nil && a.Name != "" {
				authors = append(authors, a.Name)
			}
		}

		var date string
		if entry.PublishedParsed != nil {
			date = feeds.FormatDate(*entry.PublishedParsed)
		} else if entry.UpdatedParsed != nil {
			date = feeds.FormatDate(*entry.UpdatedParsed)
		}

		link := entry.Link
		if link == "" {
			link = "https://arxiv.org/abs/" + id
		}

		items = append(items, feeds.Item{
			ID:          "arxiv-" + id,
			Title:       title,
			URL:         link,
			Author:      strings.Join(authors, ", "),
			Publication: "arXiv",
			Date:        date,
			Category:    feeds.CategoryArxiv,
			Summary:     feeds.PlainText(entry.Description, 300),
			Tags:        entry.Categories,
		})
	}
	return items
}
