package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart mutation outcomes and gateway round trips.
type CartMetrics struct {
	mutations       *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	gatewayFailures *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
// A nil registerer yields a no-op instance, which keeps tests and optional
// wiring cheap.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and outcome.",
	}, []string{"op", "outcome"})
	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_gateway_duration_seconds",
		Help:    "Duration of marketplace gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	gatewayFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_gateway_failures_total",
		Help: "Gateway failures by error code.",
	}, []string{"endpoint", "code"})
	reg.MustRegister(mutations, gatewayDuration, gatewayFailures)
	return &CartMetrics{
		mutations:       mutations,
		gatewayDuration: gatewayDuration,
		gatewayFailures: gatewayFailures,
	}
}

// IncMutation increments the counter for the named operation and outcome.
func (c *CartMetrics) IncMutation(op, outcome string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// ObserveGateway records the duration of a gateway call.
func (c *CartMetrics) ObserveGateway(endpoint string, duration time.Duration) {
	if c == nil || c.gatewayDuration == nil {
		return
	}
	c.gatewayDuration.WithLabelValues(normalizeLabel(endpoint)).Observe(duration.Seconds())
}

// IncGatewayFailure increments the failure counter for the endpoint/code pair.
func (c *CartMetrics) IncGatewayFailure(endpoint, code string) {
	if c == nil || c.gatewayFailures == nil {
		return
	}
	c.gatewayFailures.WithLabelValues(normalizeLabel(endpoint), normalizeLabel(code)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
