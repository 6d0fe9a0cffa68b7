package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	apiRequestsTotal        *prometheus.CounterVec
	apiLatencySeconds       *prometheus.HistogramVec
	apiErrorsTotal          *prometheus.CounterVec
	participantsDeactivated *prometheus.CounterVec
	activityLogsRecorded    *prometheus.CounterVec
	activityStreamClients   prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the registry.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registry_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		participantsDeactivated = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_participants_deactivated_total",
			Help: "Participants moved from ACTIVE to INACTIVE, by trigger.",
		}, []string{"trigger"})

		activityLogsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_activity_logs_recorded_total",
			Help: "Activity log entries recorded, by action.",
		}, []string{"action"})

		activityStreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "registry_activity_stream_clients",
			Help: "Websocket clients currently following the activity log.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			participantsDeactivated,
			activityLogsRecorded,
			activityStreamClients,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ParticipantsDeactivated counts status transitions into INACTIVE.
func ParticipantsDeactivated() *prometheus.CounterVec {
	RegisterMetrics()
	return participantsDeactivated
}

// ActivityLogsRecorded counts persisted activity log entries.
func ActivityLogsRecorded() *prometheus.CounterVec {
	RegisterMetrics()
	return activityLogsRecorded
}

// ActivityStreamClients tracks open activity stream connections.
func ActivityStreamClients() prometheus.Gauge {
	RegisterMetrics()
	return activityStreamClients
}
