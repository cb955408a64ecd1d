package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProviderUnavailable is returned when a provider has no credentials.
	ErrProviderUnavailable = errors.New("model provider not configured")

	// ErrNoProvider is returned when no registered provider is available.
	ErrNoProvider = errors.New("no model provider available")
)

// Provider is a language model API that supports tool calls.
type Provider interface {
	// Name returns the provider name (e.g., "claude", "openai")
	Name() string

	// Available returns true if the provider is configured and ready
	Available() bool

	// Complete sends the conversation and returns the model's next turn
	Complete(ctx context.Context, req Request) (Reply, error)
}

// APIError is a non-2xx answer from a provider endpoint.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// ProviderManager picks among providers, preferring one by name.
// It is itself a Provider.
type ProviderManager struct {
	providers []Provider
	preferred string
}

// NewProviderManager creates a manager over the given providers.
func NewProviderManager(providers ...Provider) *ProviderManager {
	return &ProviderManager{providers: providers}
}

// AddProvider registers p after the existing providers.
func (pm *ProviderManager) AddProvider(p Provider) {
	pm.providers = append(pm.providers, p)
}

// SetPreferred sets the preferred provider by name.
func (pm *ProviderManager) SetPreferred(name string) {
	pm.preferred = name
}

// GetAvailable returns the preferred provider if it is available, otherwise
// the first available one, otherwise nil.
func (pm *ProviderManager) GetAvailable() Provider {
	if pm.preferred != "" {
		if p := pm.GetByName(pm.preferred); p != nil {
			return p
		}
	}
	for _, p := range pm.providers {
		if p.Available() {
			return p
		}
	}
	return nil
}

// GetByName returns the named provider if it is available.
func (pm *ProviderManager) GetByName(name string) Provider {
	for _, p := range pm.providers {
		if p.Name() == name && p.Available() {
			return p
		}
	}
	return nil
}

// ListAvailable returns names of all available providers.
func (pm *ProviderManager) ListAvailable() []string {
	var names []string
	for _, p := range pm.providers {
		if p.Available() {
			names = append(names, p.Name())
		}
	}
	return names
}

func (pm *ProviderManager) Name() string {
	if p := pm.GetAvailable(); p != nil {
		return p.Name()
	}
	return "none"
}

func (pm *ProviderManager) Available() bool {
	return pm.GetAvailable() != nil
}

// Complete forwards to the provider GetAvailable picks.
func (pm *ProviderManager) Complete(ctx context.Context, req Request) (Reply, error) {
	p := pm.GetAvailable()
	if p == nil {
		names := make([]string, len(pm.providers))
		for i, p := range pm.providers {
			names[i] = p.Name()
		}
		return Reply{}, fmt.Errorf("%w (registered: %s)", ErrNoProvider, strings.Join(names, ", "))
	}
	return p.Complete(ctx, req)
}
