package otel

// The writer goroutine is the only reader of l.ch and the only caller of
// l.w.Write. Emit never touches l.w.

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// queueSize bounds the number of encoded events waiting for the writer.
const queueSize = 2048

// Logger writes events as JSONL through a background writer. Safe for
// concurrent use, including Emit racing with Close.
type Logger struct {
	runID     string
	ch        chan []byte
	w         io.Writer
	dropped   atomic.Uint64
	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewLogger starts a Logger writing to w. Close flushes and stops it.
func NewLogger(w io.Writer) *Logger {
	l := &Logger{
		runID: uuid.NewString(),
		ch:    make(chan []byte, queueSize),
		w:     w,
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

// NewNullLogger returns a Logger that discards everything.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

// OpenFile appends events to path, creating it if needed. Closing the
// returned Logger also closes the file.
func OpenFile(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return NewLogger(&closingWriter{f: f}), nil
}

type closingWriter struct{ f *os.File }

func (c *closingWriter) Write(p []byte) (int, error) { return c.f.Write(p) }

func (l *Logger) run() {
	defer close(l.done)
	for line := range l.ch {
		if _, err := l.w.Write(line); err != nil {
			l.dropped.Add(1)
		}
	}
	if c, ok := l.w.(*closingWriter); ok {
		c.f.Close()
	}
}

// RunID identifies every event written by this Logger.
func (l *Logger) RunID() string {
	return l.runID
}

// Emit queues e. When the queue is full or the Logger is closed the event is
// counted as dropped instead.
func (l *Logger) Emit(e Event) {
	if l == nil {
		return
	}
	defer func() {
		// Close can win the race between the closed check and the send.
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()

	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.RunID = l.runID

	data, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	data = append(data, '\n')

	select {
	case l.ch <- data:
	default:
		l.dropped.Add(1)
	}
}

// Info emits an info-level event.
func (l *Logger) Info(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Warn emits a warn-level event.
func (l *Logger) Warn(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error-level event. A nil err is recorded with an empty message.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	l.Emit(Event{Level: LevelError, Kind: kind, Comp: comp, Err: msg})
}

// Dropped reports how many events never reached the writer.
func (l *Logger) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// Close drains queued events and stops the writer. Later calls are no-ops.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.ch)
		<-l.done
		if d := l.dropped.Load(); d > 0 {
			fmt.Fprintf(os.Stderr, "trendwire: %d events dropped in run %s\n", d, l.runID)
		}
	})
}
