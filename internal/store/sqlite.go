package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/evcraddock/safety-report/internal/takeaway"
)

// SQLite stores takeaways in the takeaways table created by db.Open.
type SQLite struct {
	db *sql.DB
}

// NewSQLite creates a store over an open database. The caller owns db.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// Get returns the entry for key or takeaway.ErrNotFound.
func (s *SQLite) Get(ctx context.Context, key string) (*takeaway.Takeaway, error) {
	t := takeaway.Takeaway{SubjectKey: key}
	var pos, neg string
	err := s.db.QueryRowContext(ctx,
		"SELECT positive, negative, created_at, expires_at FROM takeaways WHERE subject_key = ?", key,
	).Scan(&pos, &neg, &t.CreatedAt, &t.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, takeaway.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting takeaway: %w", err)
	}

	if t.Positive, err = decodeList([]byte(pos)); err != nil {
		return nil, fmt.Errorf("decoding positive bullets: %w", err)
	}
	if t.Negative, err = decodeList([]byte(neg)); err != nil {
		return nil, fmt.Errorf("decoding negative bullets: %w", err)
	}
	return &t, nil
}

// Put upserts the entry for key.
func (s *SQLite) Put(ctx context.Context, key string, t *takeaway.Takeaway) error {
	if err := validatePut(key, t); err != nil {
		return err
	}
	pos, err := encodeList(t.Positive)
	if err != nil {
		return fmt.Errorf("encoding positive bullets: %w", err)
	}
	neg, err := encodeList(t.Negative)
	if err != nil {
		return fmt.Errorf("encoding negative bullets: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO takeaways (subject_key, positive, negative, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(subject_key) DO UPDATE SET
			positive = excluded.positive,
			negative = excluded.negative,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		key, string(pos), string(neg), t.CreatedAt.UTC(), t.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting takeaway: %w", err)
	}
	return nil
}

// Close is a no-op; the caller closes the database.
func (s *SQLite) Close() error {
	return nil
}
