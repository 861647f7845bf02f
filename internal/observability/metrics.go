package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carpool", Name: "operations_total", Help: "Coordinator operations by outcome"},
		[]string{"operation", "status"},
	)
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "carpool",
			Name:      "operation_duration_seconds",
			Help:      "Coordinator operation latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	ActiveTrips          = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "carpool", Name: "active_trips", Help: "Trips started and not yet finished by this instance"})
	EventPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carpool", Name: "event_publish_failures_total", Help: "Lifecycle events that could not be published"},
		[]string{"type"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carpool", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "carpool",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
