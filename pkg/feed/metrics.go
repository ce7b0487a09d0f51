package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Requests counts feed requests by feed and outcome.
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_requests_total",
			Help: "Total number of feed page requests by outcome",
		},
		[]string{"feed", "outcome"}, // cached_fresh, cached_stale, not_cached, precondition_failed, not_found, invalid_page_size, error
	)

	// AssembleDuration tracks sync + fetch + assembly time.
	AssembleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_assemble_duration_seconds",
			Help:    "Time spent syncing, fetching and assembling a feed page",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"feed"},
	)

	// SyncErrors counts failed source syncs.
	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_sync_errors_total",
			Help: "Total number of failed entry source syncs",
		},
		[]string{"feed"},
	)
)
