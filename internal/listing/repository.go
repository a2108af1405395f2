package listing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no stored listing matches.
var ErrNotFound = errors.New("listing not found")

// Repository stores point-in-time feed snapshots keyed by canonical URL.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a listing repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const upsertSQL = `INSERT INTO listings (id, canonical_url, market, record_json)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		canonical_url = excluded.canonical_url,
		market        = excluded.market,
		record_json   = excluded.record_json,
		updated_at    = CURRENT_TIMESTAMP`

// Upsert inserts or replaces a listing by ID.
func (r *Repository) Upsert(l Listing) error {
	if l.ID == "" {
		return fmt.Errorf("listing id is required")
	}
	record, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encoding listing %s: %w", l.ID, err)
	}

	if _, err := r.db.Exec(upsertSQL, l.ID, l.CanonicalURL(), l.Market(), string(record)); err != nil {
		return fmt.Errorf("upserting listing %s: %w", l.ID, err)
	}
	return nil
}

// Import upserts a batch of listings in one transaction and returns how
// many were written.
func (r *Repository) Import(listings []Listing) (n int, err error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting import: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (also failed to roll back: %v)", err, rbErr)
			}
		}
	}()

	stmt, err := tx.Prepare(upsertSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing import: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing statement: %w", closeErr)
		}
	}()

	for _, l := range listings {
		if l.ID == "" {
			continue
		}
		record, err := json.Marshal(l)
		if err != nil {
			return 0, fmt.Errorf("encoding listing %s: %w", l.ID, err)
		}
		if _, err := stmt.Exec(l.ID, l.CanonicalURL(), l.Market(), string(record)); err != nil {
			return 0, fmt.Errorf("importing listing %s: %w", l.ID, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return n, nil
}

// GetByURL returns the listing whose canonical URL matches rawURL.
func (r *Repository) GetByURL(rawURL string) (*Listing, error) {
	canonical := CanonicalURL(rawURL)
	var record string
	err := r.db.QueryRow("SELECT record_json FROM listings WHERE canonical_url = ?", canonical).Scan(&record)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", canonical, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying listing %s: %w", canonical, err)
	}

	var l Listing
	if err := json.Unmarshal([]byte(record), &l); err != nil {
		return nil, fmt.Errorf("decoding stored listing %s: %w", canonical, err)
	}
	return &l, nil
}

// Snapshot returns every stored listing in a market, ordered by ID.
func (r *Repository) Snapshot(ctx context.Context, market string) (listings []Listing, err error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT record_json FROM listings WHERE market = ? ORDER BY id", market)
	if err != nil {
		return nil, fmt.Errorf("listing market %s: %w", market, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		var l Listing
		if err := json.Unmarshal([]byte(record), &l); err != nil {
			return nil, fmt.Errorf("decoding stored listing: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listings: %w", err)
	}

	return listings, nil
}

// Markets returns the distinct market keys with stored listings.
func (r *Repository) Markets(ctx context.Context) (markets []string, err error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT market FROM listings WHERE market != '' ORDER BY market")
	if err != nil {
		return nil, fmt.Errorf("listing markets: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scanning market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating markets: %w", err)
	}
	return markets, nil
}
