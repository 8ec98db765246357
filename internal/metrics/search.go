package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and ingestion Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "search_requests_total",
			Help:      "Total search requests by outcome",
		},
		[]string{"status"}, // "ok" / "partial" / "error" / "invalid"
	)

	SearchCandidatesReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchd",
			Name:      "search_candidates_returned",
			Help:      "Number of candidates returned per entity type",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"entity_type"},
	)

	IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "ingest_total",
			Help:      "Total entity ingestions",
		},
		[]string{"entity_type", "path", "status"}, // path: "sync" / "queue"
	)

	QueueMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "queue_messages_total",
			Help:      "Queue messages consumed by outcome",
		},
		[]string{"topic", "status"}, // "ok" / "parse_error" / "error"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search and ingestion metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchCandidatesReturned)
	prometheus.MustRegister(IngestTotal)
	prometheus.MustRegister(QueueMessagesTotal)
	searchMetricsRegistered = true
}
