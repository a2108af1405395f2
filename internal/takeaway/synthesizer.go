package takeaway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/evcraddock/safety-report/internal/signal"
)

// Outcome describes how Synthesizer.Get produced its result.
type Outcome string

const (
	OutcomeHit     Outcome = "hit"
	OutcomeMiss    Outcome = "miss"
	OutcomeExpired Outcome = "expired"
	// OutcomeDegraded means the store failed and the result was not
	// persisted.
	OutcomeDegraded Outcome = "degraded"
)

// Synthesizer serves takeaways from a Store, recomputing on miss or expiry.
type Synthesizer struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithTTL sets the freshness window for new entries.
func WithTTL(ttl time.Duration) Option {
	return func(s *Synthesizer) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		s.now = now
	}
}

// NewSynthesizer creates a synthesizer over store.
func NewSynthesizer(store Store, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		store: store,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured freshness window.
func (s *Synthesizer) TTL() time.Duration {
	return s.ttl
}

// Get returns the fresh stored takeaway for key, or synthesizes one from
// snippets and writes it through. Store failures never surface as errors:
// the freshly computed takeaway is returned unpersisted.
//
// Concurrent calls for a cold key may both compute and write; the last
// write wins.
func (s *Synthesizer) Get(ctx context.Context, key string, snippets []signal.ClassifiedSnippet) (*Takeaway, Outcome) {
	now := s.now()

	outcome := OutcomeMiss
	cached, err := s.store.Get(ctx, key)
	switch {
	case err == nil && cached != nil && cached.Fresh(now):
		return cached, OutcomeHit
	case err == nil && cached != nil:
		outcome = OutcomeExpired
	case err != nil && !errors.Is(err, ErrNotFound):
		slog.WarnContext(ctx, "takeaway store read failed, serving unpersisted result",
			"key", key, "error", err)
		t := Synthesize(key, snippets, now, s.ttl)
		return &t, OutcomeDegraded
	}

	t := Synthesize(key, snippets, now, s.ttl)
	if err := s.store.Put(ctx, key, &t); err != nil {
		slog.WarnContext(ctx, "takeaway store write failed, serving unpersisted result",
			"key", key, "error", err)
		return &t, OutcomeDegraded
	}
	return &t, outcome
}
