// Package takeaway turns classified snippets into short positive/negative
// bullet summaries and caches them per subject.
package takeaway

import (
	"context"
	"errors"
	"time"
)

const (
	// MaxBullets caps each list.
	MaxBullets = 3
	// DefaultTTL is how long a synthesized takeaway stays fresh.
	DefaultTTL = 30 * 24 * time.Hour

	PositiveMarker = "✓"
	NegativeMarker = "⚠"
)

// ErrNotFound is returned by a Store when no entry exists for a key.
var ErrNotFound = errors.New("takeaway not found")

// Takeaway is the cached summary for one subject: a listing ID or a geo
// cell key. Positive and Negative are never nil.
type Takeaway struct {
	SubjectKey string    `json:"subject_key"`
	Positive   []string  `json:"positive"`
	Negative   []string  `json:"negative"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Fresh reports whether the takeaway may still be served at now.
func (t *Takeaway) Fresh(now time.Time) bool {
	return !now.After(t.ExpiresAt)
}

// Empty reports whether both lists are empty.
func (t *Takeaway) Empty() bool {
	return len(t.Positive) == 0 && len(t.Negative) == 0
}

// Store is a keyed takeaway cache. Put is an upsert, so a key holds at most
// one entry. Expiry is checked by the reader; stores never evict.
type Store interface {
	Get(ctx context.Context, key string) (*Takeaway, error)
	Put(ctx context.Context, key string, t *Takeaway) error
}
