package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/trendwire/internal/coord"
	"github.com/abelbrown/trendwire/internal/export"
	"github.com/abelbrown/trendwire/internal/feeds"
	"github.com/abelbrown/trendwire/internal/logging"
	"github.com/abelbrown/trendwire/internal/pipeline"
	"github.com/abelbrown/trendwire/internal/ranking"
	"github.com/abelbrown/trendwire/internal/search"
	"github.com/abelbrown/trendwire/internal/store"
)

var (
	flagAddr         string
	flagRefreshEvery time.Duration
	flagPurgeEvery   time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep the trending cache warm and serve it over HTTP",
	Long: `Run until interrupted. The trending list is refreshed in the background
before its cache entry expires, expired search results are swept, and the
current state is served as JSON and as RSS, Atom and JSON feeds.

Endpoints:
  GET    /api/trending?audience=a,b&ranked=1&limit=n&refresh=1
  DELETE /api/trending          drop the cached list
  GET    /api/search?q=query
  DELETE /api/search?q=query    forget one cached search
  GET    /api/audiences
  GET    /api/sources
  GET    /api/history?limit=n   needs storage enabled
  GET    /feed.rss, /feed.atom, /feed.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		every := flagRefreshEvery
		if !cmd.Flags().Changed("refresh-every") {
			every = a.cfg.TrendingTTL() * 3 / 4
		}
		c := coord.New(a.svc, a.gateway, every, flagPurgeEvery, a.events)
		c.Start(ctx)

		srv := &http.Server{
			Addr:              flagAddr,
			Handler:           newServer(a).routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		errc := make(chan error, 1)
		go func() { errc <- srv.ListenAndServe() }()
		logging.Info("serving", "addr", flagAddr, "refresh_every", every)
		fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s (refresh every %s)\n", flagAddr, every)

		var serveErr error
		select {
		case <-ctx.Done():
		case serveErr = <-errc:
		}
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("http shutdown", "error", err)
		}
		c.Wait()

		if errors.Is(serveErr, http.ErrServerClosed) {
			return nil
		}
		return serveErr
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&flagAddr, "addr", ":8080", "listen address")
	f.DurationVar(&flagRefreshEvery, "refresh-every", 0, "trending refresh interval (default 3/4 of the trending TTL)")
	f.DurationVar(&flagPurgeEvery, "purge-every", coord.DefaultPurgeInterval, "search cache sweep interval")
}

// searchCache is the part of the search gateway the server exposes.
type searchCache interface {
	Lookup(ctx context.Context, query string) search.Result
	Forget(query string)
}

type server struct {
	svc       *pipeline.Service
	search    searchCache
	store     *store.Store // nil when storage is disabled
	audiences []string     // default audience filter for feeds
	limit     int          // default trending limit
}

func newServer(a *app) *server {
	return &server{
		svc:       a.svc,
		search:    a.gateway,
		store:     a.store,
		audiences: a.cfg.Trending.Audiences,
		limit:     a.cfg.Trending.Limit,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/trending", withJSON(s.handleTrending))
	mux.HandleFunc("/api/search", withJSON(s.handleSearch))
	mux.HandleFunc("/api/audiences", withJSON(s.handleAudiences))
	mux.HandleFunc("/api/sources", withJSON(s.handleSources))
	mux.HandleFunc("/api/history", withJSON(s.handleHistory))
	mux.HandleFunc("/feed.rss", s.handleFeed(export.FormatRSS))
	mux.HandleFunc("/feed.atom", s.handleFeed(export.FormatAtom))
	mux.HandleFunc("/feed.json", s.handleFeed(export.FormatJSON))
	return logRequest(mux)
}

type trendingResponse struct {
	Items     []feeds.Item     `json:"items"`
	Scored    []ranking.Scored `json:"scored,omitempty"`
	Cached    bool             `json:"cached"`
	IsStale   bool             `json:"is_stale"`
	CacheAge  string           `json:"cache_age"`
	FetchedAt time.Time        `json:"fetched_at"`
}

func (s *server) handleTrending(w http.ResponseWriter, r *http.Request) (any, int, error) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodDelete:
		s.svc.Invalidate()
		return map[string]any{"invalidated": true}, http.StatusOK, nil
	default:
		return nil, http.StatusMethodNotAllowed, errors.New("method not allowed")
	}

	q := r.URL.Query()
	audiences := splitList(q["audience"])
	if len(audiences) == 0 {
		audiences = s.audiences
	}
	res, err := s.svc.Trending(r.Context(), pipeline.TrendingOptions{
		Audiences:    audiences,
		Ranked:       parseBool(q.Get("ranked")),
		Limit:        parseLimit(q.Get("limit"), s.limit, 0, 1000),
		ForceRefresh: parseBool(q.Get("refresh")),
	})
	if err != nil {
		return nil, http.StatusBadGateway, err
	}
	return trendingResponse{
		Items:     res.Items,
		Scored:    res.Scored,
		Cached:    res.Cached,
		IsStale:   res.IsStale,
		CacheAge:  res.CacheAge.Round(time.Second).String(),
		FetchedAt: res.FetchedAt,
	}, http.StatusOK, nil
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) (any, int, error) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		return nil, http.StatusBadRequest, errors.New("missing q")
	}
	switch r.Method {
	case http.MethodGet:
		res := s.search.Lookup(r.Context(), query)
		return map[string]any{
			"query":   query,
			"outcome": res.Outcome,
			"cached":  res.Cached,
			"text":    res.Text,
		}, http.StatusOK, nil
	case http.MethodDelete:
		s.search.Forget(query)
		return map[string]any{"forgotten": query}, http.StatusOK, nil
	default:
		return nil, http.StatusMethodNotAllowed, errors.New("method not allowed")
	}
}

func (s *server) handleAudiences(w http.ResponseWriter, r *http.Request) (any, int, error) {
	if r.Method != http.MethodGet {
		return nil, http.StatusMethodNotAllowed, errors.New("method not allowed")
	}
	return map[string]any{"audiences": s.svc.Audiences()}, http.StatusOK, nil
}

type sourceStatus struct {
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	ItemCount   int       `json:"item_count"`
	DurationMS  int64     `json:"duration_ms"`
	LastError   string    `json:"last_error,omitempty"`
	LastFetched time.Time `json:"last_fetched"`
}

func (s *server) handleSources(w http.ResponseWriter, r *http.Request) (any, int, error) {
	if r.Method != http.MethodGet {
		return nil, http.StatusMethodNotAllowed, errors.New("method not allowed")
	}
	stats := s.svc.Aggregator().Stats()
	out := make([]sourceStatus, len(stats))
	for i, st := range stats {
		out[i] = sourceStatus{
			Name:        st.Name,
			Category:    string(st.Category),
			ItemCount:   st.ItemCount,
			DurationMS:  st.Duration.Milliseconds(),
			LastFetched: st.LastFetched,
		}
		if st.LastError != nil {
			out[i].LastError = st.LastError.Error()
		}
	}
	return map[string]any{"sources": out}, http.StatusOK, nil
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) (any, int, error) {
	if r.Method != http.MethodGet {
		return nil, http.StatusMethodNotAllowed, errors.New("method not allowed")
	}
	if s.store == nil {
		return nil, http.StatusNotFound, errors.New("storage is disabled")
	}
	limit := parseLimit(r.URL.Query().Get("limit"), 50, 1, 1000)
	items, err := s.store.RecentItems(r.Context(), limit)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	total, err := s.store.ItemCount(r.Context())
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return map[string]any{"total": total, "items": items}, http.StatusOK, nil
}

var feedContentTypes = map[export.Format]string{
	export.FormatRSS:  "application/rss+xml; charset=utf-8",
	export.FormatAtom: "application/atom+xml; charset=utf-8",
	export.FormatJSON: "application/feed+json; charset=utf-8",
}

func (s *server) handleFeed(f export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		res, err := s.svc.Trending(r.Context(), pipeline.TrendingOptions{
			Audiences: s.audiences,
			Limit:     s.limit,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		updated := res.FetchedAt
		if updated.IsZero() {
			updated = time.Now()
		}
		w.Header().Set("Content-Type", feedContentTypes[f])
		if err := export.Write(w, f, export.DefaultMeta(updated), res.Items); err != nil {
			logging.Warn("writing feed", "format", f, "error", err)
		}
	}
}

func withJSON(handler func(http.ResponseWriter, *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, status, err := handler(w, r)
		if err != nil {
			respondJSON(w, status, map[string]any{
				"error": err.Error(),
			})
			return
		}
		respondJSON(w, status, payload)
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Debug("http", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

func parseLimit(value string, fallback, min, max int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	if parsed < min {
		return min
	}
	if parsed > max {
		return max
	}
	return parsed
}

func parseBool(value string) bool {
	b, _ := strconv.ParseBool(value)
	return b
}

// splitList flattens repeated and comma separated query values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
