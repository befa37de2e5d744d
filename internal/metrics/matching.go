package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion and matching Prometheus metrics.
var (
	IngestCandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vacmatch",
			Name:      "ingest_candidates_total",
			Help:      "Ingestion candidates by outcome",
		},
		[]string{"source", "outcome"}, // "accepted" / "merged" / "rejected"
	)

	IngestRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vacmatch",
			Name:      "ingest_run_duration_seconds",
			Help:      "Duration of one ingestion run",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	MatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vacmatch",
			Name:      "match_duration_seconds",
			Help:      "Duration of a ranking computation (cache misses only)",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	RankCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vacmatch",
			Name:      "rank_cache_total",
			Help:      "Ranked-result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var matchingMetricsRegistered bool

// RegisterMatchingMetrics registers Prometheus matching metrics. Must be called once from main.
func RegisterMatchingMetrics() {
	if matchingMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestCandidatesTotal)
	prometheus.MustRegister(IngestRunDuration)
	prometheus.MustRegister(MatchDuration)
	prometheus.MustRegister(RankCacheTotal)
	matchingMetricsRegistered = true
}
