package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSharedClients(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() should return the same client")
	}
	if Default().Transport != LongTimeout().Transport {
		t.Error("clients should share one transport")
	}
	if LongTimeout().Timeout <= Default().Timeout {
		t.Error("LongTimeout should outlast Default")
	}
}

func TestGetJSONSendsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != UserAgent {
			t.Errorf("expected User-Agent %q, got %q", UserAgent, got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected Authorization %q, got %q", "Bearer tok", got)
		}
		w.Write([]byte(`{"name":"trendwire","count":3}`))
	}))
	defer server.Close()

	var out struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	err := GetJSON(context.Background(), server.Client(), server.URL, map[string]string{"Authorization": "Bearer tok"}, &out)
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Name != "trendwire" || out.Count != 3 {
		t.Errorf("decoded %+v", out)
	}
}

func TestGetJSONStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer server.Close()

	var out map[string]any
	err := GetJSON(context.Background(), nil, server.URL, nil, &out)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected error *StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected StatusCode 429, got %d", se.StatusCode)
	}
	if se.Body != "slow down" {
		t.Errorf("Body = %q", se.Body)
	}
}

func TestGetJSONBadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	var out map[string]any
	if err := GetJSON(context.Background(), nil, server.URL, nil, &out); err == nil {
		t.Error("expected decode error")
	}
}
