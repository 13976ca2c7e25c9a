package metrics

import "github.com/prometheus/client_golang/prometheus"

// SettlementMetrics exposes counters/histograms for booking check-out.
type SettlementMetrics struct {
	checkoutTotal    *prometheus.CounterVec
	captureLatency   prometheus.Histogram
	locationMismatch prometheus.Counter
}

func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	m := &SettlementMetrics{
		checkoutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "handyhub",
			Subsystem: "settlement",
			Name:      "checkout_total",
			Help:      "Total check-out attempts by result",
		}, []string{"result"}),
		captureLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "handyhub",
			Subsystem: "settlement",
			Name:      "capture_latency_seconds",
			Help:      "Latency of payment gateway capture calls",
			Buckets:   prometheus.DefBuckets,
		}),
		locationMismatch: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "handyhub",
			Subsystem: "settlement",
			Name:      "location_mismatch_total",
			Help:      "Check-outs recorded beyond the allowed distance from the service address",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.checkoutTotal, m.captureLatency, m.locationMismatch)
	return m
}

func (m *SettlementMetrics) ObserveCheckOut(result string) {
	if m == nil {
		return
	}
	m.checkoutTotal.WithLabelValues(result).Inc()
}

func (m *SettlementMetrics) ObserveCaptureLatency(seconds float64) {
	if m == nil {
		return
	}
	m.captureLatency.Observe(seconds)
}

func (m *SettlementMetrics) ObserveLocationMismatch() {
	if m == nil {
		return
	}
	m.locationMismatch.Inc()
}

// WebhookMetrics exposes counters for background-check event ingestion.
type WebhookMetrics struct {
	eventsTotal    *prometheus.CounterVec
	duplicateTotal *prometheus.CounterVec
	guardConflict  prometheus.Counter
}

func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	m := &WebhookMetrics{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "handyhub",
			Subsystem: "webhooks",
			Name:      "events_total",
			Help:      "Total inbound background-check events",
		}, []string{"provider", "event_type", "status"}),
		duplicateTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "handyhub",
			Subsystem: "webhooks",
			Name:      "duplicate_total",
			Help:      "Duplicate deliveries absorbed by the idempotency ledger",
		}, []string{"provider"}),
		guardConflict: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "handyhub",
			Subsystem: "onboarding",
			Name:      "guard_conflict_total",
			Help:      "Completed checks that matched more than one onboarding guard",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.eventsTotal, m.duplicateTotal, m.guardConflict)
	return m
}

func (m *WebhookMetrics) ObserveEvent(provider, eventType, status string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(provider, eventType, status).Inc()
}

func (m *WebhookMetrics) ObserveDuplicate(provider string) {
	if m == nil {
		return
	}
	m.duplicateTotal.WithLabelValues(provider).Inc()
}

func (m *WebhookMetrics) ObserveGuardConflict() {
	if m == nil {
		return
	}
	m.guardConflict.Inc()
}
