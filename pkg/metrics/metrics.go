package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records telemetry for the pricing/order core: checkout
// outcomes, reconciliation evictions, and best-effort notification dispatch.
type EngineMetrics struct {
	checkoutSuccess prometheus.Counter
	checkoutFailure prometheus.Counter
	linesRemoved    *prometheus.CounterVec
	linesRepriced   prometheus.Counter
	notifySuccess   *prometheus.CounterVec
	notifyFailure   *prometheus.CounterVec
}

// NewEngineMetrics registers the core metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	m := &EngineMetrics{
		checkoutSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checkout_success_total",
			Help: "Successful checkout commits.",
		}),
		checkoutFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checkout_failure_total",
			Help: "Failed checkout attempts.",
		}),
		linesRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_lines_removed_total",
			Help: "Cart lines evicted by reconciliation.",
		}, []string{"reason"}),
		linesRepriced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cart_lines_repriced_total",
			Help: "Cart lines silently corrected by reconciliation.",
		}),
		notifySuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_dispatch_success_total",
			Help: "Successful notification dispatches.",
		}, []string{"template"}),
		notifyFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_dispatch_failure_total",
			Help: "Failed notification dispatches (best-effort, never fatal).",
		}, []string{"template"}),
	}
	reg.MustRegister(
		m.checkoutSuccess,
		m.checkoutFailure,
		m.linesRemoved,
		m.linesRepriced,
		m.notifySuccess,
		m.notifyFailure,
	)
	return m
}

// IncCheckoutSuccess increments the checkout success counter.
func (m *EngineMetrics) IncCheckoutSuccess() {
	if m == nil || m.checkoutSuccess == nil {
		return
	}
	m.checkoutSuccess.Inc()
}

// IncCheckoutFailure increments the checkout failure counter.
func (m *EngineMetrics) IncCheckoutFailure() {
	if m == nil || m.checkoutFailure == nil {
		return
	}
	m.checkoutFailure.Inc()
}

// AddLinesRemoved records reconciliation evictions for a reason label.
func (m *EngineMetrics) AddLinesRemoved(reason string, n int) {
	if m == nil || m.linesRemoved == nil || n <= 0 {
		return
	}
	m.linesRemoved.WithLabelValues(normalizeLabel(reason)).Add(float64(n))
}

// AddLinesRepriced records silent price corrections.
func (m *EngineMetrics) AddLinesRepriced(n int) {
	if m == nil || m.linesRepriced == nil || n <= 0 {
		return
	}
	m.linesRepriced.Add(float64(n))
}

// IncNotifySuccess increments the dispatch success counter for a template.
func (m *EngineMetrics) IncNotifySuccess(template string) {
	if m == nil || m.notifySuccess == nil {
		return
	}
	m.notifySuccess.WithLabelValues(normalizeLabel(template)).Inc()
}

// IncNotifyFailure increments the dispatch failure counter for a template.
func (m *EngineMetrics) IncNotifyFailure(template string) {
	if m == nil || m.notifyFailure == nil {
		return
	}
	m.notifyFailure.WithLabelValues(normalizeLabel(template)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
