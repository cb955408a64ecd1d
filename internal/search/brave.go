package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/trendwire/internal/httpclient"
)

// Hit is one web result.
type Hit struct {
	Title       string
	URL         string
	Description string
}

// Provider runs a web search.
type Provider interface {
	Name() string
	Available() bool
	Search(ctx context.Context, query string) ([]Hit, error)
}

// errShape marks a 200 response whose body was not the expected shape.
var errShape = errors.New("unexpected response shape")

// Brave searches with the Brave Search web API.
type Brave struct {
	apiKey   string
	endpoint string
	count    int
	client   *http.Client
	limiter  *rate.Limiter
}

// NewBrave creates a Brave provider returning up to count results.
func NewBrave(apiKey string, count int) *Brave {
	if count <= 0 {
		count = 5
	}
	return &Brave{
		apiKey:   apiKey,
		endpoint: "https://api.search.brave.com/res/v1/web/search",
		count:    count,
		client:   httpclient.Default(),
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

func (b *Brave) Name() string { return "brave" }

// Available reports whether an API key is configured.
func (b *Brave) Available() bool { return b.apiKey != "" }

type braveResponse struct {
	Web *struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (b *Brave) Search(ctx context.Context, query string) ([]Hit, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(b.count))

	body, err := httpclient.Get(ctx, b.client, b.endpoint+"?"+q.Encode(), map[string]string{
		"Accept":               "application/json",
		"X-Subscription-Token": b.apiKey,
	})
	if err != nil {
		return nil, err
	}

	var resp braveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", errShape, err)
	}
	if resp.Web == nil {
		return nil, fmt.Errorf("%w: no web section", errShape)
	}

	hits := make([]Hit, 0, len(resp.Web.Results))
	for _, r := range resp.Web.Results {
		if strings.TrimSpace(r.Title) == "" || r.URL == "" {
			continue
		}
		hits = append(hits, Hit{Title: r.Title, URL: r.URL, Description: r.Description})
	}
	return hits, nil
}
