package takeaway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/evcraddock/safety-report/internal/signal"
)

type mapStore struct {
	mu      sync.Mutex
	entries map[string]*Takeaway
	puts    int
	getErr  error
	putErr  error
}

func newMapStore() *mapStore {
	return &mapStore{entries: make(map[string]*Takeaway)}
}

func (m *mapStore) Get(_ context.Context, key string) (*Takeaway, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	t, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

func (m *mapStore) Put(_ context.Context, key string, t *Takeaway) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.entries[key] = t
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testSnippets = []signal.ClassifiedSnippet{
	classified("We felt safe walking home at night.", true, signal.Positive),
	classified("A bike was stolen from the rack outside.", true, signal.Negative),
}

func TestSynthesizerHitReturnsSameInstance(t *testing.T) {
	store := newMapStore()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewSynthesizer(store, WithClock(clock.Now))
	ctx := context.Background()

	first, outcome := s.Get(ctx, "listing-1", testSnippets)
	if outcome != OutcomeMiss {
		t.Errorf("first outcome = %q, want miss", outcome)
	}

	clock.Advance(29 * 24 * time.Hour)
	second, outcome := s.Get(ctx, "listing-1", nil)
	if outcome != OutcomeHit {
		t.Errorf("second outcome = %q, want hit", outcome)
	}
	if first != second {
		t.Error("expected the cached instance to be returned")
	}
	if store.puts != 1 {
		t.Errorf("puts = %d, want 1", store.puts)
	}
}

func TestSynthesizerExpiryRecomputes(t *testing.T) {
	store := newMapStore()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewSynthesizer(store, WithClock(clock.Now), WithTTL(time.Hour))
	ctx := context.Background()

	first, _ := s.Get(ctx, "geo:34.05:-118.25", testSnippets)

	clock.Advance(time.Hour)
	atBoundary, outcome := s.Get(ctx, "geo:34.05:-118.25", testSnippets)
	if outcome != OutcomeHit || atBoundary != first {
		t.Errorf("at expires_at: outcome = %q, want hit", outcome)
	}

	clock.Advance(time.Second)
	second, outcome := s.Get(ctx, "geo:34.05:-118.25", testSnippets)
	if outcome != OutcomeExpired {
		t.Errorf("outcome = %q, want expired", outcome)
	}
	if !second.CreatedAt.After(first.CreatedAt) {
		t.Errorf("created_at %v not after %v", second.CreatedAt, first.CreatedAt)
	}
	if got, _ := store.Get(ctx, "geo:34.05:-118.25"); got != second {
		t.Error("store does not hold the recomputed takeaway")
	}
}

func TestSynthesizerConcurrentColdKey(t *testing.T) {
	store := newMapStore()
	s := NewSynthesizer(store)
	ctx := context.Background()

	const callers = 8
	results := make([]*Takeaway, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = s.Get(ctx, "cold", testSnippets)
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if r == nil || len(r.Positive) != 1 || len(r.Negative) != 1 {
			t.Errorf("result %d invalid: %+v", i, r)
		}
	}
	if len(store.entries) != 1 {
		t.Errorf("store holds %d entries, want 1", len(store.entries))
	}
}

func TestSynthesizerDegradesOnStoreFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("read failure", func(t *testing.T) {
		store := newMapStore()
		store.getErr = errors.New("connection refused")
		got, outcome := NewSynthesizer(store).Get(ctx, "k", testSnippets)
		if outcome != OutcomeDegraded {
			t.Errorf("outcome = %q, want degraded", outcome)
		}
		if got == nil || len(got.Positive) != 1 {
			t.Fatalf("expected computed takeaway, got %+v", got)
		}
	})

	t.Run("write failure", func(t *testing.T) {
		store := newMapStore()
		store.putErr = errors.New("read-only replica")
		got, outcome := NewSynthesizer(store).Get(ctx, "k", testSnippets)
		if outcome != OutcomeDegraded {
			t.Errorf("outcome = %q, want degraded", outcome)
		}
		if got == nil || len(got.Negative) != 1 {
			t.Fatalf("expected computed takeaway, got %+v", got)
		}
		if len(store.entries) != 0 {
			t.Error("nothing should be persisted")
		}
	})
}

func TestWithTTLIgnoresNonPositive(t *testing.T) {
	s := NewSynthesizer(newMapStore(), WithTTL(0))
	if s.TTL() != DefaultTTL {
		t.Errorf("ttl = %v, want %v", s.TTL(), DefaultTTL)
	}
}
