// Package metrics holds the Prometheus collectors for the round loop and the
// HTTP surface.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the planner.
	Registry = prometheus.NewRegistry()

	// RoundsSubmitted counts round submissions by outcome (ok, error).
	RoundsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rounds_submitted_total", Help: "Round submissions by status."},
		[]string{"status"},
	)
	// RoundSubmitDuration records arbiter round-trip time in seconds.
	RoundSubmitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "round_submit_duration_seconds", Help: "Arbiter round submission latency in seconds.", Buckets: prometheus.DefBuckets},
	)
	// MovementsSubmitted counts submitted movements by planner (flow, scheduled).
	MovementsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "movements_submitted_total", Help: "Movements submitted by source."},
		[]string{"source"},
	)
	OrdersUnresolved = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "orders_unresolved_total", Help: "Orders whose customer is not in the network."},
	)
	SessionCost = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "session_cost_total", Help: "Cumulative cost reported by the arbiter."},
	)
	SessionImpact = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "session_impact_total", Help: "Cumulative environmental impact reported by the arbiter."},
	)

	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)
)

var regOnce sync.Once

// RegisterDefault registers every collector on Registry. Safe to call more
// than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(
			RoundsSubmitted,
			RoundSubmitDuration,
			MovementsSubmitted,
			OrdersUnresolved,
			SessionCost,
			SessionImpact,
			HTTPRequests,
			HTTPDuration,
		)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
