package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSettlementMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSettlementMetrics(reg)

	m.ObserveCheckOut("success")
	m.ObserveCheckOut("success")
	m.ObserveCheckOut("capture_failed")
	m.ObserveCaptureLatency(0.42)
	m.ObserveLocationMismatch()

	if got := testutil.ToFloat64(m.checkoutTotal.WithLabelValues("success")); got != 2 {
		t.Fatalf("expected 2 successful checkouts, got %f", got)
	}
	if got := testutil.ToFloat64(m.checkoutTotal.WithLabelValues("capture_failed")); got != 1 {
		t.Fatalf("expected 1 failed capture, got %f", got)
	}
	if got := testutil.ToFloat64(m.locationMismatch); got != 1 {
		t.Fatalf("expected 1 location mismatch, got %f", got)
	}
}

func TestWebhookMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWebhookMetrics(reg)

	m.ObserveEvent("checkr", "check.completed", "completed")
	m.ObserveDuplicate("checkr")
	m.ObserveDuplicate("checkr")
	m.ObserveGuardConflict()

	if got := testutil.ToFloat64(m.eventsTotal.WithLabelValues("checkr", "check.completed", "completed")); got != 1 {
		t.Fatalf("expected 1 completed event, got %f", got)
	}
	if got := testutil.ToFloat64(m.duplicateTotal.WithLabelValues("checkr")); got != 2 {
		t.Fatalf("expected 2 duplicates, got %f", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var s *SettlementMetrics
	s.ObserveCheckOut("success")
	s.ObserveCaptureLatency(0.1)
	s.ObserveLocationMismatch()

	var w *WebhookMetrics
	w.ObserveEvent("checkr", "check.created", "completed")
	w.ObserveDuplicate("truora")
	w.ObserveGuardConflict()
}
