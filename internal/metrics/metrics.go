package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BackendRequests counts calls to the Talk2Dom backend by route template
	// and status. Status "0" means no response arrived.
	BackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talk2dom_backend_requests_total",
			Help: "Total number of requests sent to the Talk2Dom backend",
		},
		[]string{"method", "route", "status"},
	)
	// BackendDuration is the latency of backend calls.
	BackendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "talk2dom_backend_request_duration_seconds",
			Help:    "Talk2Dom backend request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	// AnalyticsEvents counts recorded product events by outcome.
	AnalyticsEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talk2dom_analytics_events_total",
			Help: "Total number of analytics events by name and outcome",
		},
		[]string{"event", "outcome"},
	)
	// SessionLookups counts session user cache lookups by result (hit, miss, error).
	SessionLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talk2dom_session_lookups_total",
			Help: "Total number of session user lookups by result",
		},
		[]string{"result"},
	)
)

// ObserveBackend records one backend call. It matches backend.Observer.
func ObserveBackend(method, route string, status int, elapsed time.Duration) {
	BackendRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	BackendDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
