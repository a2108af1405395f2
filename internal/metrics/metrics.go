// Package metrics provides Prometheus metrics for the report engine.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "safetyreport"

var (
	// ReportsTotal counts report builds by status.
	ReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Total number of safety reports built",
		},
		[]string{"status"},
	)

	// TakeawayCacheTotal counts takeaway lookups by outcome.
	TakeawayCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "takeaway_cache_total",
			Help:      "Takeaway lookups by cache outcome",
		},
		[]string{"result"},
	)

	// ClassifiedTotal counts classified snippets.
	ClassifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classify_total",
			Help:      "Classified snippets by relevance and sentiment",
		},
		[]string{"relevant", "sentiment"},
	)

	// RankDuration measures alternative ranking time.
	RankDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rank_duration_seconds",
			Help:      "Duration of alternative ranking in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// UpstreamErrorsTotal counts failures of external collaborators.
	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Failures of feed, snippet source, store and geocoder calls",
		},
		[]string{"upstream"},
	)
)

// RecordReport records a finished report build.
func RecordReport(status string) {
	ReportsTotal.WithLabelValues(status).Inc()
}

// RecordTakeaway records a takeaway lookup outcome.
func RecordTakeaway(result string) {
	TakeawayCacheTotal.WithLabelValues(result).Inc()
}

// RecordClassified records one classified snippet.
func RecordClassified(relevant bool, sentiment string) {
	ClassifiedTotal.WithLabelValues(strconv.FormatBool(relevant), sentiment).Inc()
}

// ObserveRank records a ranking duration.
func ObserveRank(seconds float64) {
	RankDuration.Observe(seconds)
}

// RecordUpstreamError records a failed upstream call.
func RecordUpstreamError(upstream string) {
	UpstreamErrorsTotal.WithLabelValues(upstream).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
