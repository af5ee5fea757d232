package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Subscribe outcomes recorded by SubscribeOutcomes.
const (
	OutcomeCreated  = "created"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	SubscribeOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_subscribe_total",
			Help: "Subscribe requests by outcome",
		},
		[]string{"outcome"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"backend", "slow"},
	)
)

func RecordHTTPRequestDuration(method, route, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

func IncrementSubscribe(outcome string) {
	SubscribeOutcomes.WithLabelValues(outcome).Inc()
}

func RecordDBQueryDuration(backend string, slow bool, d time.Duration) {
	s := "false"
	if slow {
		s = "true"
	}
	DBQueryDuration.WithLabelValues(backend, s).Observe(d.Seconds())
}
