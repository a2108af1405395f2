// Package alternative ranks candidate listings that are strictly safer than
// a target listing.
package alternative

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/safety-report/internal/geo"
	"github.com/evcraddock/safety-report/internal/listing"
	"github.com/evcraddock/safety-report/internal/scoring"
)

// Composite key: the safety diff in points plus a fit bonus in [0, 1), so
// a safer candidate always outranks a less safe one. Among equal diffs,
// price match leads, then proximity, and type match breaks near-ties.
const (
	WeightPrice    = 0.60
	WeightDistance = 0.38
	WeightType     = 0.02

	// ProximityScaleKM is the distance at which the proximity term halves.
	ProximityScaleKM = 5.0

	fitScale = 0.99
)

const (
	// DefaultLimit is the number of alternatives shown per report.
	DefaultLimit = 3
	// ParallelThreshold is the pool size at which candidates are scored
	// concurrently.
	ParallelThreshold = 256
)

// Match is one safer alternative and why it ranked where it did.
type Match struct {
	Listing         listing.Listing     `json:"listing"`
	SafetyScore     scoring.SafetyScore `json:"safety_score"`
	DistanceKM      float64             `json:"distance_km"`
	SafetyScoreDiff float64             `json:"safety_score_diff"`
	PriceMatchPct   float64             `json:"price_match_pct"`
	TypeMatch       bool                `json:"type_match"`
	Composite       float64             `json:"composite"`
}

// Scorer scores a listing. *scoring.Scorer satisfies it.
type Scorer interface {
	Score(l listing.Listing) scoring.SafetyScore
}

// Ranker finds safer alternatives within a candidate pool.
type Ranker struct {
	scorer    Scorer
	threshold int
	workers   int
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithParallelThreshold sets the pool size at which scoring goes parallel.
func WithParallelThreshold(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.threshold = n
		}
	}
}

// WithWorkers bounds the number of concurrent scoring goroutines.
func WithWorkers(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.workers = n
		}
	}
}

// NewRanker creates a ranker.
func NewRanker(scorer Scorer, opts ...Option) *Ranker {
	r := &Ranker{
		scorer:    scorer,
		threshold: ParallelThreshold,
		workers:   runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindAlternatives returns up to limit candidates with a strictly higher
// overall score than target, ordered by composite key descending and then
// listing ID ascending. Fewer qualifiers than limit are returned as is; no
// qualifiers is an empty, non-nil slice.
//
// A target without coordinates has no alternatives. A target whose
// coordinates are present but invalid is an error.
func (r *Ranker) FindAlternatives(ctx context.Context, target listing.Listing, candidates []listing.Listing, limit int) ([]Match, error) {
	return r.FindAlternativesScored(ctx, target, r.scorer.Score(target), candidates, limit)
}

// FindAlternativesScored is FindAlternatives with the target's score
// supplied by the caller. Candidates must beat targetScore.Overall, so a
// caller that displays a score should pass that same score here.
func (r *Ranker) FindAlternativesScored(ctx context.Context, target listing.Listing, targetScore scoring.SafetyScore, candidates []listing.Listing, limit int) ([]Match, error) {
	if target.Location != nil {
		if err := target.Location.Validate(); err != nil {
			return nil, fmt.Errorf("target listing %q: %w", target.ID, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || !target.HasLocation() {
		return []Match{}, nil
	}

	t := newTargetInfo(target, targetScore)
	slots := make([]*Match, len(candidates))

	if len(candidates) >= r.threshold && r.workers > 1 {
		if err := r.evaluateParallel(ctx, t, candidates, slots); err != nil {
			return nil, err
		}
	} else {
		for i := range candidates {
			slots[i] = r.evaluate(t, candidates[i])
		}
	}

	matches := make([]Match, 0, len(slots))
	for _, m := range slots {
		if m != nil {
			matches = append(matches, *m)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Composite != matches[j].Composite {
			return matches[i].Composite > matches[j].Composite
		}
		return matches[i].Listing.ID < matches[j].Listing.ID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// evaluateParallel splits the pool into one contiguous range per worker.
// Each goroutine writes only its own slots.
func (r *Ranker) evaluateParallel(ctx context.Context, t targetInfo, candidates []listing.Listing, slots []*Match) error {
	g, ctx := errgroup.WithContext(ctx)
	chunk := (len(candidates) + r.workers - 1) / r.workers

	for start := 0; start < len(candidates); start += chunk {
		end := min(start+chunk, len(candidates))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				slots[i] = r.evaluate(t, candidates[i])
			}
			return nil
		})
	}
	return g.Wait()
}

type targetInfo struct {
	listing   listing.Listing
	score     scoring.SafetyScore
	canonical string
	market    string
	propType  string
}

func newTargetInfo(l listing.Listing, score scoring.SafetyScore) targetInfo {
	return targetInfo{
		listing:   l,
		score:     score,
		canonical: l.CanonicalURL(),
		market:    l.Market(),
		propType:  NormalizeType(l.PropertyType),
	}
}

// evaluate returns nil when c does not qualify.
func (r *Ranker) evaluate(t targetInfo, c listing.Listing) *Match {
	if t.isSelf(c) || !c.HasLocation() || !c.HasPrice() {
		return nil
	}
	if m := c.Market(); t.market != "" && m != "" && m != t.market {
		return nil
	}

	score := r.scorer.Score(c)
	diff := float64(score.Overall - t.score.Overall)
	if diff <= 0 {
		return nil
	}

	tl := t.listing.Location
	dist := geo.DistanceKM(tl.Lat, tl.Lon, c.Location.Lat, c.Location.Lon)
	price := PriceMatchPct(t.listing.Price, *c.Price)
	typeMatch := t.propType != "" && t.propType == NormalizeType(c.PropertyType)

	return &Match{
		Listing:         c,
		SafetyScore:     score,
		DistanceKM:      dist,
		SafetyScoreDiff: diff,
		PriceMatchPct:   price,
		TypeMatch:       typeMatch,
		Composite:       Composite(diff, price, dist, typeMatch),
	}
}

func (t targetInfo) isSelf(c listing.Listing) bool {
	if t.listing.ID != "" && c.ID == t.listing.ID {
		return true
	}
	return t.canonical != "" && c.CanonicalURL() == t.canonical
}

// PriceMatchPct is 100 at equal price and falls linearly with the absolute
// percentage difference, floored at 0. A target without a usable price
// matches nothing.
func PriceMatchPct(target *float64, candidate float64) float64 {
	if target == nil || *target <= 0 || math.IsNaN(*target) || math.IsInf(*target, 0) {
		return 0
	}
	pct := 100 - 100*math.Abs(candidate-*target) / *target
	return math.Max(0, pct)
}

// Composite is the ranking key.
func Composite(diff, priceMatchPct, distanceKM float64, typeMatch bool) float64 {
	fit := WeightPrice*priceMatchPct/100 + WeightDistance/(1+distanceKM/ProximityScaleKM)
	if typeMatch {
		fit += WeightType
	}
	return diff + fitScale*fit
}

// NormalizeType lower-cases a property type and unifies separators, so
// "Entire_Home" and "entire home" compare equal.
func NormalizeType(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ", "/", " ").Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}
