package conversation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adventure_ai_backend_requests_total",
			Help: "Total number of requests to the assistants API.",
		},
		[]string{"operation", "status"},
	)
	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adventure_ai_backend_request_duration_seconds",
			Help:    "Histogram of assistants API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
