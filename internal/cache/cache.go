// Package cache holds TTL-bounded in-memory values: a single Slot for the
// aggregated trending list and a Keyed map for per-query search results.
//
// An entry is never modified in place. Writers build a new entry and swap the
// pointer under the lock, so a reader always sees one whole entry.
// Expired entries are misses for Get but remain readable through Stale until
// they are overwritten or invalidated.
package cache

import (
	"sync"
	"time"
)

// Metadata describes a cached entry as of the moment it was read.
type Metadata struct {
	CachedAt time.Time
	TTL      time.Duration
	Age      time.Duration
	Expired  bool
}

type entry[T any] struct {
	value    T
	cachedAt time.Time
	ttl      time.Duration
}

func (e *entry[T]) meta(now time.Time) Metadata {
	age := now.Sub(e.cachedAt)
	return Metadata{
		CachedAt: e.cachedAt,
		TTL:      e.ttl,
		Age:      age,
		Expired:  age >= e.ttl,
	}
}

// Option configures a cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Slot caches one value.
type Slot[T any] struct {
	mu  sync.RWMutex
	e   *entry[T]
	now func() time.Time
}

// NewSlot returns an empty slot.
func NewSlot[T any](opts ...Option) *Slot[T] {
	o := buildOptions(opts)
	return &Slot[T]{now: o.now}
}

// Get returns the value if present and not expired.
func (s *Slot[T]) Get() (T, bool) {
	s.mu.RLock()
	e := s.e
	s.mu.RUnlock()

	var zero T
	if e == nil || e.meta(s.now()).Expired {
		return zero, false
	}
	return e.value, true
}

// Set replaces the whole entry.
func (s *Slot[T]) Set(v T, ttl time.Duration) {
	e := &entry[T]{value: v, cachedAt: s.now(), ttl: ttl}
	s.mu.Lock()
	s.e = e
	s.mu.Unlock()
}

// Metadata describes the current entry, expired or not.
func (s *Slot[T]) Metadata() (Metadata, bool) {
	s.mu.RLock()
	e := s.e
	s.mu.RUnlock()

	if e == nil {
		return Metadata{}, false
	}
	return e.meta(s.now()), true
}

// Stale returns the current entry even when it has expired. The metadata
// tells the caller how old it is.
func (s *Slot[T]) Stale() (T, Metadata, bool) {
	s.mu.RLock()
	e := s.e
	s.mu.RUnlock()

	var zero T
	if e == nil {
		return zero, Metadata{}, false
	}
	return e.value, e.meta(s.now()), true
}

// Invalidate empties the slot.
func (s *Slot[T]) Invalidate() {
	s.mu.Lock()
	s.e = nil
	s.mu.Unlock()
}

// Keyed caches values by literal string key.
type Keyed[T any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[T]
	now     func() time.Time
}

// NewKeyed returns an empty keyed cache.
func NewKeyed[T any](opts ...Option) *Keyed[T] {
	o := buildOptions(opts)
	return &Keyed[T]{entries: make(map[string]*entry[T]), now: o.now}
}

// Get returns the value for key if present and not expired.
func (k *Keyed[T]) Get(key string) (T, bool) {
	k.mu.RLock()
	e := k.entries[key]
	k.mu.RUnlock()

	var zero T
	if e == nil || e.meta(k.now()).Expired {
		return zero, false
	}
	return e.value, true
}

// Set replaces the entry for key.
func (k *Keyed[T]) Set(key string, v T, ttl time.Duration) {
	e := &entry[T]{value: v, cachedAt: k.now(), ttl: ttl}
	k.mu.Lock()
	k.entries[key] = e
	k.mu.Unlock()
}

// Metadata describes the entry for key, expired or not.
func (k *Keyed[T]) Metadata(key string) (Metadata, bool) {
	k.mu.RLock()
	e := k.entries[key]
	k.mu.RUnlock()

	if e == nil {
		return Metadata{}, false
	}
	return e.meta(k.now()), true
}

// Invalidate drops the entry for key.
func (k *Keyed[T]) Invalidate(key string) {
	k.mu.Lock()
	delete(k.entries, key)
	k.mu.Unlock()
}

// Purge drops every expired entry and reports how many went.
func (k *Keyed[T]) Purge() int {
	now := k.now()
	k.mu.Lock()
	defer k.mu.Unlock()

	n := 0
	for key, e := range k.entries {
		if e.meta(now).Expired {
			delete(k.entries, key)
			n++
		}
	}
	return n
}

// Len counts entries, including expired ones not yet purged.
func (k *Keyed[T]) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.entries)
}
