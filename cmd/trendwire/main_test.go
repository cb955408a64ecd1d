package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/trendwire/internal/contract"
	"github.com/abelbrown/trendwire/internal/feeds"
	"github.com/abelbrown/trendwire/internal/pipeline"
	"github.com/abelbrown/trendwire/internal/ranking"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	flagDecode = false
	flagForce = false
	flagConfig = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "trendwire dev") {
		t.Errorf("version output = %q", out)
	}
}

func TestSanitizeCommand(t *testing.T) {
	out, err := run(t, "", "sanitize", "Ship 🚀 it", "  now ✨")
	if err != nil {
		t.Fatalf("sanitize failed: %v", err)
	}
	if got := strings.TrimSpace(out); got != "Ship it now" {
		t.Errorf("expected sanitize %q, got %q", "Ship it now", got)
	}
}

func TestExtractJSONCommand(t *testing.T) {
	reply := "Here you go:\n```json\n{\"title\": \"Go 1.26\"}\n```\nEnjoy."

	out, err := run(t, reply, "extract-json")
	if err != nil {
		t.Fatalf("extract-json failed: %v", err)
	}
	if got := strings.TrimSpace(out); got != `{"title": "Go 1.26"}` {
		t.Errorf("extract-json = %q", got)
	}

	out, err = run(t, reply, "extract-json", "--decode")
	if err != nil {
		t.Fatalf("extract-json --decode failed: %v", err)
	}
	if !strings.Contains(out, `"title": "Go 1.26"`) {
		t.Errorf("decoded output = %q", out)
	}

	_, err = run(t, "no json here", "extract-json", "--decode")
	if !errors.Is(err, contract.ErrMalformedOutput) {
		t.Errorf("expected malformed input error ErrMalformedOutput, got %v", err)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if _, err := run(t, "", "config", "init", "--config", path); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := run(t, "", "config", "init", "--config", path); err == nil {
		t.Error("expected an error on second init without --force")
	}
	if _, err := run(t, "", "config", "init", "--config", path, "--force"); err != nil {
		t.Errorf("init --force failed: %v", err)
	}
}

func TestConfigShowListsProviders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if _, err := run(t, "", "config", "init", "--config", path); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	out, err := run(t, "", "config", "show", "--config", path)
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"Models", "Search", "Trending", "Storage"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q section, got:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "available: ") && !strings.Contains(out, "no provider is available") {
		t.Errorf("expected a provider availability line, got:\n%s", out)
	}
}

func TestRenderTrending(t *testing.T) {
	item := feeds.Item{
		ID: "lobsters-abc", Title: "Structured concurrency in Go", URL: "https://lobste.rs/s/abc",
		Author: "ana", Publication: "Lobsters", Category: feeds.CategoryLobsters, Summary: "40 upvotes · 12 comments",
	}
	res := pipeline.TrendingResult{
		Items:    []feeds.Item{item},
		Scored:   []ranking.Scored{{Item: item, Score: 37}},
		Cached:   true,
		IsStale:  true,
		CacheAge: 90 * time.Minute,
	}

	var buf bytes.Buffer
	renderTrending(&buf, res)
	out := buf.String()
	for _, want := range []string{"Trending · 1 items", "stale", "1h30m", "37", "Structured concurrency in Go", "ana", "https://lobste.rs/s/abc"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{2*time.Hour + 3*time.Minute, "2h03m"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.d); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
