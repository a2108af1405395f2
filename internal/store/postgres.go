package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/evcraddock/safety-report/internal/takeaway"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS takeaways (
		subject_key TEXT        PRIMARY KEY,
		positive    JSONB       NOT NULL DEFAULT '[]',
		negative    JSONB       NOT NULL DEFAULT '[]',
		created_at  TIMESTAMPTZ NOT NULL,
		expires_at  TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_takeaways_expires_at ON takeaways(expires_at);
`

// Postgres stores takeaways in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects to dsn and creates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	p := NewPostgres(db)
	if err := p.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgres wraps an open connection pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the takeaways table if needed.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Get returns the entry for key or takeaway.ErrNotFound.
func (p *Postgres) Get(ctx context.Context, key string) (*takeaway.Takeaway, error) {
	t := takeaway.Takeaway{SubjectKey: key}
	var pos, neg []byte
	err := p.db.QueryRowContext(ctx,
		"SELECT positive, negative, created_at, expires_at FROM takeaways WHERE subject_key = $1", key,
	).Scan(&pos, &neg, &t.CreatedAt, &t.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, takeaway.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get takeaway: %w", err)
	}

	if t.Positive, err = decodeList(pos); err != nil {
		return nil, fmt.Errorf("postgres: decode positive bullets: %w", err)
	}
	if t.Negative, err = decodeList(neg); err != nil {
		return nil, fmt.Errorf("postgres: decode negative bullets: %w", err)
	}
	return &t, nil
}

// Put upserts the entry for key.
func (p *Postgres) Put(ctx context.Context, key string, t *takeaway.Takeaway) error {
	if err := validatePut(key, t); err != nil {
		return err
	}
	pos, err := encodeList(t.Positive)
	if err != nil {
		return fmt.Errorf("postgres: encode positive bullets: %w", err)
	}
	neg, err := encodeList(t.Negative)
	if err != nil {
		return fmt.Errorf("postgres: encode negative bullets: %w", err)
	}

	_, err = p.db.ExecContext(ctx,
		`INSERT INTO takeaways (subject_key, positive, negative, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (subject_key) DO UPDATE SET
			positive = EXCLUDED.positive,
			negative = EXCLUDED.negative,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`,
		key, string(pos), string(neg), t.CreatedAt, t.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert takeaway: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}
