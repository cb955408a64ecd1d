// Package httpclient provides the shared HTTP clients used by every outbound
// caller, so source adapters, the search gateway and model providers reuse one
// connection pool.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// UserAgent identifies trendwire to public APIs. Reddit rejects generic agents.
const UserAgent = "trendwire/0.3 (+https://github.com/abelbrown/trendwire)"

// DefaultTimeout bounds a single source or search call.
const DefaultTimeout = 15 * time.Second

// maxBody caps how much of a response GetJSON will read.
const maxBody = 8 << 20

var (
	transport     *http.Transport
	transportOnce sync.Once

	defaultClient *http.Client
	longClient    *http.Client
	clientOnce    sync.Once
)

func sharedTransport() *http.Transport {
	transportOnce.Do(func() {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          64,
			MaxIdleConnsPerHost:   8,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
		}
	})
	return transport
}

func initClients() {
	clientOnce.Do(func() {
		t := sharedTransport()
		defaultClient = &http.Client{Transport: t, Timeout: 30 * time.Second}
		longClient = &http.Client{Transport: t, Timeout: 120 * time.Second}
	})
}

// Default returns the shared client for source and search calls.
func Default() *http.Client {
	initClients()
	return defaultClient
}

// LongTimeout returns the shared client for model API calls.
func LongTimeout() *http.Client {
	initClients()
	return longClient
}

// StatusError is returned by GetJSON for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// GetJSON issues a GET with the trendwire User-Agent plus any extra headers,
// bounded by DefaultTimeout, and decodes the JSON body into v.
func GetJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, v any) error {
	body, err := Get(ctx, client, url, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// Get is GetJSON without the decoding step.
func Get(ctx context.Context, client *http.Client, url string, headers map[string]string) ([]byte, error) {
	if client == nil {
		client = Default()
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
