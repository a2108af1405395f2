// Package report composes the scorer, classifier, takeaway synthesizer and
// alternative ranker into the per-listing safety report.
package report

import (
	"time"

	"github.com/evcraddock/safety-report/internal/alternative"
	"github.com/evcraddock/safety-report/internal/listing"
	"github.com/evcraddock/safety-report/internal/scoring"
	"github.com/evcraddock/safety-report/internal/signal"
	"github.com/evcraddock/safety-report/internal/takeaway"
)

// Status describes a report section.
type Status string

const (
	// StatusOK means the section has data.
	StatusOK Status = "ok"
	// StatusEmpty means the inputs were available but yielded nothing.
	StatusEmpty Status = "empty"
	// StatusUnknown means an upstream failed; the section may be partial.
	StatusUnknown Status = "unknown"
)

// Report is the full safety report for one listing view.
type Report struct {
	Listing         listing.Listing     `json:"listing"`
	Score           ScoreSection        `json:"score"`
	Signals         SignalSection       `json:"signals"`
	ListingTakeaway TakeawaySection     `json:"listing_takeaway"`
	AreaTakeaway    TakeawaySection     `json:"area_takeaway"`
	Alternatives    AlternativesSection `json:"alternatives"`
	Warnings        []string            `json:"warnings"`
	GeneratedAt     time.Time           `json:"generated_at"`
}

// ScoreSection is the attribute score with resident-facing labels.
type ScoreSection struct {
	Overall int            `json:"overall"`
	Risk    string         `json:"risk"`
	Area    string         `json:"area,omitempty"`
	Metrics []MetricResult `json:"metrics"`
}

// MetricResult is one labelled sub-metric.
type MetricResult struct {
	Metric      scoring.Metric `json:"metric"`
	Score       int            `json:"score"`
	Risk        string         `json:"risk"`
	Question    string         `json:"question"`
	Description string         `json:"description"`
	// Supplemental metrics are not part of Overall.
	Supplemental bool `json:"supplemental,omitempty"`
}

// SignalSection summarizes the classified snippets about the listing.
type SignalSection struct {
	Status   Status                     `json:"status"`
	Summary  signal.Summary             `json:"summary"`
	Relevant []signal.ClassifiedSnippet `json:"relevant"`
}

// TakeawaySection holds a takeaway and how it was served.
type TakeawaySection struct {
	Status     Status             `json:"status"`
	SubjectKey string             `json:"subject_key,omitempty"`
	Cache      takeaway.Outcome   `json:"cache,omitempty"`
	Takeaway   *takeaway.Takeaway `json:"takeaway,omitempty"`
}

// AlternativesSection holds the ranked safer alternatives.
type AlternativesSection struct {
	Status  Status              `json:"status"`
	Matches []alternative.Match `json:"matches"`
}

// NewScoreSection labels a score with risk levels and resident questions.
func NewScoreSection(s scoring.SafetyScore) ScoreSection {
	out := ScoreSection{
		Overall: s.Overall,
		Risk:    scoring.RiskLevel(s.Overall),
		Area:    s.Area,
		Metrics: make([]MetricResult, 0, len(scoring.Metrics)),
	}
	for _, m := range scoring.Metrics {
		info := scoring.Describe(m)
		v := s.Metric(m)
		out.Metrics = append(out.Metrics, MetricResult{
			Metric:       m,
			Score:        v,
			Risk:         scoring.RiskLevel(v),
			Question:     info.Question,
			Description:  info.Description,
			Supplemental: m.Supplemental(),
		})
	}
	return out
}
