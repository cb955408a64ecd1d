package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/trendwire/internal/feeds"
)

// SeenItem is a trending item with its sighting history.
type SeenItem struct {
	feeds.Item
	FirstSeen time.Time
	LastSeen  time.Time
	SeenCount int
}

// SaveItems records a sighting of each item at seen, returning how many
// were new. Known items get fresh fields and a bumped count.
func (s *Store) SaveItems(ctx context.Context, items []feeds.Item, seen time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	insert, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO items (
			id, category, publication, title, url, author, summary, date, tags,
			first_seen, last_seen, seen_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`)
	if err != nil {
		return 0, err
	}
	defer insert.Close()

	update, err := tx.PrepareContext(ctx, `
		UPDATE items SET
			title = ?, url = ?, summary = ?, tags = ?,
			last_seen = ?, seen_count = seen_count + 1
		WHERE id = ?
	`)
	if err != nil {
		return 0, err
	}
	defer update.Close()

	seen = seen.UTC()
	tags := func(it feeds.Item) string { return strings.Join(it.Tags, ",") }
	newCount := 0
	for _, it := range items {
		res, err := insert.ExecContext(ctx,
			it.ID, string(it.Category), it.Publication, it.Title, it.URL, it.Author,
			it.Summary, it.Date, tags(it), seen, seen,
		)
		if err != nil {
			return 0, fmt.Errorf("save item %s: %w", it.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			newCount++
			continue
		}
		if _, err := update.ExecContext(ctx, it.Title, it.URL, it.Summary, tags(it), seen, it.ID); err != nil {
			return 0, fmt.Errorf("update item %s: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newCount, nil
}

// RecentItems returns items most recently seen first.
func (s *Store) RecentItems(ctx context.Context, limit int) ([]SeenItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, publication, title, url, author, summary, date, tags,
			first_seen, last_seen, seen_count
		FROM items
		ORDER BY last_seen DESC, seen_count DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeenItem
	for rows.Next() {
		var it SeenItem
		var category, tags string
		if err := rows.Scan(
			&it.ID, &category, &it.Publication, &it.Title, &it.URL, &it.Author,
			&it.Summary, &it.Date, &tags, &it.FirstSeen, &it.LastSeen, &it.SeenCount,
		); err != nil {
			return nil, err
		}
		it.Category = feeds.Category(category)
		if tags != "" {
			it.Tags = strings.Split(tags, ",")
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ItemCount returns total item count
func (s *Store) ItemCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&count)
	return count, err
}

// SourceStatus is the persisted health of one adapter.
type SourceStatus struct {
	Name          string
	Category      feeds.Category
	LastFetchedAt time.Time
	ItemCount     int
	LastError     string
	ErrorCount    int // consecutive failed fetches
}

// UpdateSourceStatus records the outcome of one adapter fetch.
func (s *Store) UpdateSourceStatus(ctx context.Context, st feeds.SourceStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lastErr := ""
	if st.LastError != nil {
		lastErr = st.LastError.Error()
	}
	fetched := st.LastFetched
	if fetched.IsZero() {
		fetched = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sources (name, category, last_fetched_at, item_count, last_error, error_count)
		VALUES (?, ?, ?, ?, ?, CASE WHEN ? != '' THEN 1 ELSE 0 END)
		ON CONFLICT(name) DO UPDATE SET
			last_fetched_at = excluded.last_fetched_at,
			item_count = excluded.item_count,
			last_error = excluded.last_error,
			error_count = CASE WHEN excluded.last_error != '' THEN error_count + 1 ELSE 0 END
	`, st.Name, string(st.Category), fetched.UTC(), st.ItemCount, lastErr, lastErr)
	return err
}

// SourceStatuses returns every recorded adapter by name.
func (s *Store) SourceStatuses(ctx context.Context) ([]SourceStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, category, last_fetched_at, item_count, COALESCE(last_error, ''), error_count
		FROM sources ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SourceStatus
	for rows.Next() {
		var st SourceStatus
		var category string
		if err := rows.Scan(&st.Name, &category, &st.LastFetchedAt, &st.ItemCount, &st.LastError, &st.ErrorCount); err != nil {
			return nil, err
		}
		st.Category = feeds.Category(category)
		out = append(out, st)
	}
	return out, rows.Err()
}
