package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilRegistererIsNoop(t *testing.T) {
	m := NewCartMetrics(nil)
	m.IncMutation("add_item", "ok")
	m.ObserveGateway("add_item", time.Second)
	m.IncGatewayFailure("add_item", "UNREACHABLE")

	var nilMetrics *CartMetrics
	nilMetrics.IncMutation("add_item", "ok")
}

func TestCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)

	m.IncMutation("add_item", "ok")
	m.IncMutation("add_item", "ok")
	m.IncMutation("", "rejected")
	m.IncGatewayFailure("add_item", "UNREACHABLE")
	m.ObserveGateway("add_item", 120*time.Millisecond)

	if got := testutil.ToFloat64(m.mutations.WithLabelValues("add_item", "ok")); got != 2 {
		t.Fatalf("expected 2 ok mutations, got %v", got)
	}
	if got := testutil.ToFloat64(m.mutations.WithLabelValues("unknown", "rejected")); got != 1 {
		t.Fatalf("expected empty op to normalize to unknown, got %v", got)
	}
	if got := testutil.ToFloat64(m.gatewayFailures.WithLabelValues("add_item", "UNREACHABLE")); got != 1 {
		t.Fatalf("expected 1 gateway failure, got %v", got)
	}
}
