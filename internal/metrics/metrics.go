package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	gateRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "preview_gate_requests_total",
		Help: "Preview gate decisions by outcome",
	}, []string{"outcome"})
	rendersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "preview_renders_total",
		Help: "Template render pipeline runs by outcome",
	}, []string{"outcome"})
	storeRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "preview_store_request_duration_seconds",
		Help:    "Latency of template queries against the content store",
		Buckets: prometheus.DefBuckets,
	}, []string{"state"})
	storeUp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "preview_store_up",
		Help: "1 when the last content store probe succeeded, 0 otherwise",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry prometheus.Registerer) {
	registry.MustRegister(gateRequestsTotal, rendersTotal, storeRequestDuration, storeUp)
}

// IncGate counts one gate decision.
func IncGate(outcome string) { gateRequestsTotal.WithLabelValues(outcome).Inc() }

// IncRender counts one pipeline run.
func IncRender(outcome string) { rendersTotal.WithLabelValues(outcome).Inc() }

// ObserveStoreRequest records how long a store query took.
func ObserveStoreRequest(state string, d time.Duration) {
	storeRequestDuration.WithLabelValues(state).Observe(d.Seconds())
}

// SetStoreUp records the result of the latest store probe.
func SetStoreUp(up bool) {
	if up {
		storeUp.Set(1)
		return
	}
	storeUp.Set(0)
}
