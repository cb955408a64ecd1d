package feeds

import (
	"context"

	"github.com/abelbrown/trendwire/internal/logging"
)

// Swallow runs fetch and converts a failure into an empty result, logging the
// error under the adapter's name. Adapters implement Fetch with it.
func Swallow(ctx context.Context, name string, fetch func(context.Context) ([]Item, error)) []Item {
	items, err := fetch(ctx)
	if err != nil {
		logging.Warn("source fetch failed", "source", name, "error", err)
		return nil
	}
	return items
}
