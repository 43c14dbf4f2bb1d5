package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Define global variables for metrics.
// 'promauto' registers the metrics on the default registry without extra
// initialization, so embedding applications only need to expose the
// standard /metrics handler.

var (
	// 1. Analyses Total (Counter)
	// Counts finished analyses, labeled by topology policy and outcome.
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nhood_analyses_total",
			Help: "Total number of enrichment analyses run",
		},
		[]string{"topology", "outcome"},
	)

	// 2. Analysis Duration (Histogram)
	// End-to-end wall time of one analysis. Buckets cover tiny test inputs
	// up to multi-minute permutation runs.
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nhood_analysis_duration_seconds",
			Help:    "Duration of enrichment analyses in seconds",
			Buckets: []float64{0.005, 0.05, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"topology"},
	)

	// 3. Permutation Trials (Counter)
	// Completed permutation trials across all analyses. Interrupted runs
	// advance this by their reduced count only.
	PermutationTrialsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nhood_permutation_trials_total",
			Help: "Total number of completed permutation trials",
		},
	)

	// 4. Last Input Size (Gauges)
	// Point and edge counts of the most recent analysis, useful to
	// correlate duration spikes with input size.
	LastPoints = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nhood_last_analysis_points",
			Help: "Point count of the most recent analysis",
		},
	)
	LastEdges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nhood_last_analysis_edges",
			Help: "Undirected edge count of the most recent analysis",
		},
	)
)
