// Package otel records structured run events for trendwire.
//
// Events are typed structs written as JSONL lines. The Logger encodes them on
// the caller's goroutine and hands the bytes to a single writer goroutine, so
// emitting never blocks a fetch or a generation round.
package otel

import (
	"encoding/json"
	"time"
)

// Level is the event severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind names an event as "<subsystem>.<action>".
type EventKind string

const (
	// Source aggregation
	KindFetchStart    EventKind = "fetch.start"
	KindFetchComplete EventKind = "fetch.complete"
	KindFetchError    EventKind = "fetch.error"

	// Trending cache
	KindCacheHit   EventKind = "cache.hit"
	KindCacheMiss  EventKind = "cache.miss"
	KindCacheStale EventKind = "cache.stale"

	// Web search gateway
	KindSearchStart    EventKind = "search.start"
	KindSearchComplete EventKind = "search.complete"
	KindSearchFallback EventKind = "search.fallback"

	// Generation loop
	KindGenStart    EventKind = "gen.start"
	KindGenTool     EventKind = "gen.tool"
	KindGenCeiling  EventKind = "gen.ceiling"
	KindGenComplete EventKind = "gen.complete"

	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Event is one observability record. Kind is required; Time and RunID are
// filled in by the Logger.
type Event struct {
	Time    time.Time      `json:"t"`
	Level   Level          `json:"level,omitempty"`
	Kind    EventKind      `json:"kind"`
	Comp    string         `json:"comp,omitempty"` // "pipeline", "search", "brain", "cli"
	RunID   string         `json:"run_id,omitempty"`
	Dur     time.Duration  `json:"-"`
	DurMs   float64        `json:"dur_ms,omitempty"`
	Count   int            `json:"count,omitempty"`
	Source  string         `json:"source,omitempty"`
	Query   string         `json:"query,omitempty"`
	Round   int            `json:"round,omitempty"`
	Tool    string         `json:"tool,omitempty"`
	Outcome string         `json:"outcome,omitempty"`
	Model   string         `json:"model,omitempty"`
	Err     string         `json:"err,omitempty"`
	Msg     string         `json:"msg,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// MarshalJSON reports Dur as fractional milliseconds.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	p := plain(e)
	if e.Dur > 0 {
		p.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(p)
}
