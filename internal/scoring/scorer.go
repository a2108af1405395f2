// Package scoring converts a listing's structured fields into a 0-100
// safety score.
package scoring

import (
	"context"
	"log/slog"
	"math"

	"github.com/evcraddock/safety-report/internal/listing"
)

// Metric names a safety sub-metric.
type Metric string

const (
	MetricNight   Metric = "night"
	MetricTransit Metric = "transit"
	MetricWalk    Metric = "walk"

	MetricVehicle Metric = "vehicle"
	MetricChild   Metric = "child"
	MetricWomen   Metric = "women"
)

// CoreMetrics make up the overall score.
var CoreMetrics = []Metric{MetricNight, MetricTransit, MetricWalk}

// SupplementalMetrics are reported alongside the core metrics but do not
// affect the overall score.
var SupplementalMetrics = []Metric{MetricVehicle, MetricChild, MetricWomen}

// Metrics lists every sub-metric in display order.
var Metrics = append(append([]Metric{}, CoreMetrics...), SupplementalMetrics...)

// Supplemental reports whether m is left out of the overall score.
func (m Metric) Supplemental() bool {
	switch m {
	case MetricVehicle, MetricChild, MetricWomen:
		return true
	}
	return false
}

// Overall weights in tenths (0.4 / 0.3 / 0.3). They are not configurable.
const (
	weightNight   = 4
	weightTransit = 3
	weightWalk    = 3
)

// SafetyScore is computed per request and never stored as a fact about a
// listing.
type SafetyScore struct {
	Overall int            `json:"overall"`
	Metrics map[Metric]int `json:"metrics"`
	Area    string         `json:"area,omitempty"`
}

// Metric returns a sub-metric value.
func (s SafetyScore) Metric(m Metric) int {
	return s.Metrics[m]
}

// AreaResolver maps coordinates to an area name, typically a reverse
// geocoder.
type AreaResolver interface {
	ResolveArea(ctx context.Context, lat, lon float64) (string, error)
}

// Scorer computes SafetyScores from an injected area table.
type Scorer struct {
	table    AreaTable
	resolver AreaResolver
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithResolver enables area-name enrichment for listings without a
// neighborhood, used by ScoreContext.
func WithResolver(r AreaResolver) Option {
	return func(s *Scorer) {
		s.resolver = r
	}
}

// NewScorer creates a scorer for the given table.
func NewScorer(table AreaTable, opts ...Option) *Scorer {
	if table.Base == (Adjustment{}) {
		table.Base = DefaultBase
	}
	s := &Scorer{table: table.normalized()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score is a pure function of the listing's fields. The neighborhood is
// looked up first, then the city; an unmatched or missing area yields the
// base score.
func (s *Scorer) Score(l listing.Listing) SafetyScore {
	base := s.table.Base
	adj, key, ok := s.table.Lookup(l.Neighborhood)
	if !ok {
		adj, key, ok = s.table.Lookup(l.City)
	}
	if !ok {
		adj, key = Adjustment{}, ""
	}

	night := clamp(base.Night + adj.Night)
	transit := clamp(base.Transit + adj.Transit)
	walk := clamp(base.Walk + adj.Walk)

	tenths := weightNight*night + weightTransit*transit + weightWalk*walk
	overall := math.Round(float64(tenths) / 10)

	return SafetyScore{
		Overall: clamp(int(overall)),
		Metrics: map[Metric]int{
			MetricNight:   night,
			MetricTransit: transit,
			MetricWalk:    walk,
			MetricVehicle: clamp(base.Vehicle + adj.Vehicle),
			MetricChild:   clamp(base.Child + adj.Child),
			MetricWomen:   clamp(base.Women + adj.Women),
		},
		Area: key,
	}
}

// ScoreContext resolves an area name through the resolver when the listing
// has coordinates but no neighborhood, then scores it. Resolver failures
// are logged and scoring proceeds with the listing as given.
func (s *Scorer) ScoreContext(ctx context.Context, l listing.Listing) SafetyScore {
	if s.resolver != nil && l.Neighborhood == "" && l.HasLocation() {
		name, err := s.resolver.ResolveArea(ctx, l.Location.Lat, l.Location.Lon)
		if err != nil {
			slog.WarnContext(ctx, "area lookup failed, using base values",
				"listing", l.ID, "error", err)
		} else {
			l.Neighborhood = name
		}
	}
	return s.Score(l)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
