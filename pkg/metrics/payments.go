package metrics

import "github.com/prometheus/client_golang/prometheus"

// PaymentMetrics counts outbound payment processor calls.
type PaymentMetrics struct {
	calls *prometheus.CounterVec
}

func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fitcoach_payment_calls_total",
		Help: "Payment processor calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(calls)
	return &PaymentMetrics{calls: calls}
}

// Record counts a call; err decides between the ok and error outcomes.
func (p *PaymentMetrics) Record(operation string, err error) {
	if p == nil || p.calls == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.calls.WithLabelValues(normalizeLabel(operation), outcome).Inc()
}
