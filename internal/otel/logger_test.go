package otel

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestEmitWritesJSONL(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Emit(Event{Kind: KindFetchComplete, Level: LevelInfo, Comp: "pipeline", Source: "lobsters", Count: 25})
	l.Close()

	lines := decodeLines(t, buf.Bytes())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	ev := lines[0]
	if ev["kind"] != "fetch.complete" {
		t.Errorf("expected kind fetch.complete, got %v", ev["kind"])
	}
	if ev["source"] != "lobsters" {
		t.Errorf("expected source lobsters, got %v", ev["source"])
	}
	if ev["count"] != float64(25) {
		t.Errorf("expected count 25, got %v", ev["count"])
	}
}

func TestEmitStampsTimeAndRunID(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	before := time.Now()
	l.Emit(Event{Kind: KindStartup})
	l.Close()
	after := time.Now()

	var ev Event
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Time.Before(before) || ev.Time.After(after) {
		t.Errorf("time %v outside [%v, %v]", ev.Time, before, after)
	}
	if _, err := uuid.Parse(ev.RunID); err != nil {
		t.Errorf("run_id %q is not a uuid: %v", ev.RunID, err)
	}
	if ev.RunID != l.RunID() {
		t.Errorf("expected run_id %q, got %q", l.RunID(), ev.RunID)
	}
}

func TestDurationInMilliseconds(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{Kind: KindGenComplete, Dur: 1500 * time.Millisecond})
	l.Close()

	ev := decodeLines(t, buf.Bytes())[0]
	if ev["dur_ms"] != float64(1500) {
		t.Errorf("expected dur_ms 1500, got %v", ev["dur_ms"])
	}
}

func TestEmptyFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{Kind: KindStartup})
	l.Close()

	line := buf.String()
	for _, field := range []string{"dur_ms", "count", "source", "query", "round", "tool", "outcome", "model", "err", "msg", "extra"} {
		if strings.Contains(line, `"`+field+`"`) {
			t.Errorf("field %q should be omitted: %s", field, line)
		}
	}
}

func TestConcurrentEmit(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(round int) {
			defer wg.Done()
			l.Emit(Event{Kind: KindGenTool, Round: round, Tool: "web_search"})
		}(i)
	}
	wg.Wait()
	l.Close()

	if got := len(decodeLines(t, buf.Bytes())); got != 100 {
		t.Errorf("expected 100 lines, got %d", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Info(KindStartup, "cli", "start")
	l.Info(KindShutdown, "cli", "stop")
	l.Close()
	l.Close()

	if got := len(decodeLines(t, buf.Bytes())); got != 2 {
		t.Errorf("expected 2 lines, got %d", got)
	}

	l.Emit(Event{Kind: KindError})
	if l.Dropped() != 1 {
		t.Errorf("expected 1 drop after emit on closed logger, got %d", l.Dropped())
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Emit(Event{Kind: KindStartup})
	l.Info(KindStartup, "cli", "x")
	l.Close()
	if l.Dropped() != 0 {
		t.Error("nil logger should report zero drops")
	}
}

type stallWriter struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (w *stallWriter) Write(p []byte) (int, error) {
	w.once.Do(func() {
		close(w.entered)
		<-w.release
	})
	return len(p), nil
}

func TestFullQueueDrops(t *testing.T) {
	w := &stallWriter{entered: make(chan struct{}), release: make(chan struct{})}
	l := NewLogger(w)

	l.Emit(Event{Kind: KindFetchStart})
	<-w.entered

	for i := 0; i < queueSize+10; i++ {
		l.Emit(Event{Kind: KindFetchStart})
	}
	if l.Dropped() == 0 {
		t.Error("expected drops with a full queue")
	}

	close(w.release)
	l.Close()
}

func TestLevelHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Info(KindStartup, "cli", "starting")
	l.Warn(KindSearchFallback, "search", "rate_limited")
	l.Error(KindFetchError, "pipeline", errors.New("dial tcp: timeout"))
	l.Close()

	lines := decodeLines(t, buf.Bytes())
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	tests := []struct {
		level, kind, comp string
	}{
		{"info", "sys.startup", "cli"},
		{"warn", "search.fallback", "search"},
		{"error", "fetch.error", "pipeline"},
	}
	for i, tt := range tests {
		if lines[i]["level"] != tt.level {
			t.Errorf("line %d: level = %v, want %s", i, lines[i]["level"], tt.level)
		}
		if lines[i]["kind"] != tt.kind {
			t.Errorf("line %d: kind = %v, want %s", i, lines[i]["kind"], tt.kind)
		}
		if lines[i]["comp"] != tt.comp {
			t.Errorf("line %d: comp = %v, want %s", i, lines[i]["comp"], tt.comp)
		}
	}
	if lines[2]["err"] != "dial tcp: timeout" {
		t.Errorf("err = %v", lines[2]["err"])
	}
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	for i := 0; i < 2; i++ {
		l, err := OpenFile(path)
		if err != nil {
			t.Fatalf("OpenFile: %v", err)
		}
		l.Info(KindStartup, "cli", "run")
		l.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := decodeLines(t, data)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0]["run_id"] == lines[1]["run_id"] {
		t.Error("separate loggers should have distinct run IDs")
	}
}
