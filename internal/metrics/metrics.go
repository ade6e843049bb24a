package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Llamadas al backend remoto.
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskadvisor_backend_requests_total",
			Help: "Total backend REST calls",
		},
		[]string{"operation", "outcome"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "riskadvisor_backend_request_duration_seconds",
			Help:    "Backend REST call duration",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	BackendRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskadvisor_backend_retries_total",
			Help: "Retries issued on idempotent read endpoints",
		},
		[]string{"operation"},
	)

	// Gateway local.
	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskadvisor_gateway_requests_total",
			Help: "Total gateway HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "riskadvisor_gateway_request_duration_seconds",
			Help:    "Gateway HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Estado del cliente.
	StoreBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskadvisor_store_broadcasts_total",
			Help: "Values republished by client-state stores",
		},
		[]string{"store"},
	)

	StoreSubscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "riskadvisor_store_subscribers",
			Help: "Live subscriptions per client-state store",
		},
		[]string{"store"},
	)

	QueriesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskadvisor_queries_total",
			Help: "Questions sent from the chat panel",
		},
		[]string{"result"}, // "answered" o "error"
	)

	Exports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskadvisor_exports_total",
			Help: "Data exports produced",
		},
		[]string{"format"},
	)
)
