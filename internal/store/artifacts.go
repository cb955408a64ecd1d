package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Artifact is one saved generation output. Value is opaque to the store.
type Artifact struct {
	Key       string
	Kind      string // "section", "topics", "summary"
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Save stores value under key, replacing any previous value.
func (s *Store) Save(ctx context.Context, key, kind, value string) error {
	if key == "" {
		return errors.New("save artifact: empty key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (key, kind, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			kind = excluded.kind,
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, kind, value, now, now)
	if err != nil {
		return fmt.Errorf("save artifact %s: %w", key, err)
	}
	return nil
}

// Load returns the artifact stored under key, or ErrNotFound.
func (s *Store) Load(ctx context.Context, key string) (Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var a Artifact
	err := s.db.QueryRowContext(ctx,
		"SELECT key, kind, value, created_at, updated_at FROM artifacts WHERE key = ?", key,
	).Scan(&a.Key, &a.Kind, &a.Value, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, fmt.Errorf("artifact %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("load artifact %s: %w", key, err)
	}
	return a, nil
}

// List returns artifacts newest first. An empty kind lists every kind;
// limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, kind string, limit int) ([]Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	query := "SELECT key, kind, value, created_at, updated_at FROM artifacts"
	args := []any{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY updated_at DESC, key DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.Key, &a.Kind, &a.Value, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete removes key. Deleting a missing key returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM artifacts WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("delete artifact %s: %w", key, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("artifact %s: %w", key, ErrNotFound)
	}
	return nil
}
