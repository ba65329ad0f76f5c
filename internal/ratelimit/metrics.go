package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts rate limit decisions.
type Metrics struct {
	Decisions *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finwell_ratelimit_decisions_total",
			Help: "Rate limit decisions by endpoint class and outcome",
		}, []string{"class", "outcome"}),
	}
}

// Observe records one decision. Outcome is allowed, limited or error.
func (m *Metrics) Observe(class Class, outcome string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(string(class), outcome).Inc()
}
