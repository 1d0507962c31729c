package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Webhook outcomes reported on fitcoach_webhook_events_total.
const (
	OutcomeProcessed = "processed"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// WebhookMetrics records processor webhook deliveries.
type WebhookMetrics struct {
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fitcoach_webhook_events_total",
		Help: "Payment processor webhook deliveries by event type and outcome.",
	}, []string{"type", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fitcoach_webhook_duration_seconds",
		Help:    "Time spent reconciling a webhook delivery.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
	reg.MustRegister(events, duration)
	return &WebhookMetrics{events: events, duration: duration}
}

// Observe counts one delivery and records how long it took.
func (w *WebhookMetrics) Observe(eventType, outcome string, elapsed time.Duration) {
	if w == nil || w.events == nil {
		return
	}
	eventType = normalizeLabel(eventType)
	w.events.WithLabelValues(eventType, normalizeLabel(outcome)).Inc()
	if elapsed > 0 {
		w.duration.WithLabelValues(eventType).Observe(elapsed.Seconds())
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
