package snippet

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/evcraddock/safety-report/internal/signal"
)

// Repository provides access to stored snippets.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a snippet repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = "id, subject_key, source, text, author, permalink, posted_at, created_at"

// Add stores a snippet under a subject key.
func (r *Repository) Add(ctx context.Context, subjectKey string, s signal.Snippet) (*Record, error) {
	if strings.TrimSpace(subjectKey) == "" {
		return nil, fmt.Errorf("subject key is required")
	}
	if strings.TrimSpace(s.Text) == "" {
		return nil, fmt.Errorf("snippet text is required")
	}
	if s.Source == "" {
		s.Source = signal.SourceSocialComment
	}

	var postedAt sql.NullTime
	if s.Timestamp != nil {
		postedAt = sql.NullTime{Time: s.Timestamp.UTC(), Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO snippets (subject_key, source, text, author, permalink, posted_at) VALUES (?, ?, ?, ?, ?, ?)",
		subjectKey, string(s.Source), s.Text, s.Author, s.Permalink, postedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting snippet: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	rec, err := scanRecord(r.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM snippets WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("reading back snippet: %w", err)
	}
	return rec, nil
}

// List returns the snippets for a subject in insertion order.
func (r *Repository) List(ctx context.Context, subjectKey string) (records []*Record, err error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM snippets WHERE subject_key = ? ORDER BY id", subjectKey)
	if err != nil {
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snippet: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snippets: %w", err)
	}

	return records, nil
}

// ListBySubject returns the snippets for a subject ready for
// classification.
func (r *Repository) ListBySubject(ctx context.Context, subjectKey string) ([]signal.Snippet, error) {
	records, err := r.List(ctx, subjectKey)
	if err != nil {
		return nil, err
	}
	out := make([]signal.Snippet, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Signal())
	}
	return out, nil
}

// Delete removes a snippet by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM snippets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting snippet: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("snippet %d not found", id)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var rec Record
	var source string
	var postedAt sql.NullTime
	if err := s.Scan(&rec.ID, &rec.SubjectKey, &source, &rec.Text, &rec.Author, &rec.Permalink, &postedAt, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Source = signal.Source(source)
	if postedAt.Valid {
		t := postedAt.Time
		rec.PostedAt = &t
	}
	return &rec, nil
}
