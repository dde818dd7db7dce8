package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.ObserveRequest("GET", "/v1/appointments", 200, 15*time.Millisecond)
	m.ObserveRequest("GET", "/v1/appointments", 200, 5*time.Millisecond)
	m.ObserveRequest("POST", "", 409, time.Millisecond)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/v1/appointments", "200")); got != 2 {
		t.Fatalf("expected 2 GET requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("POST", "unmatched", "409")); got != 1 {
		t.Fatalf("expected unmatched route counter, got %v", got)
	}
}

func TestInFlightGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.IncInFlight()
	m.IncInFlight()
	m.DecInFlight()

	if got := testutil.ToFloat64(m.inFlight); got != 1 {
		t.Fatalf("expected 1 in-flight request, got %v", got)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *HTTPMetrics
	m.ObserveRequest("GET", "/", 200, time.Millisecond)
	m.IncInFlight()
	m.DecInFlight()
}
