package metrics

import "github.com/prometheus/client_golang/prometheus"

// DispatchMetrics exposes counters for the intake and negotiation
// flows. All methods are safe on a nil receiver so wiring metrics is
// optional in tests and workers.
type DispatchMetrics struct {
	turnsTotal        *prometheus.CounterVec
	extractionsTotal  *prometheus.CounterVec
	submissionsTotal  prometheus.Counter
	negotiationsTotal *prometheus.CounterVec
}

func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	m := &DispatchMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hey",
			Subsystem: "dispatch",
			Name:      "turns_total",
			Help:      "Conversation turns by phase and outcome",
		}, []string{"phase", "outcome"}),
		extractionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hey",
			Subsystem: "dispatch",
			Name:      "extractions_total",
			Help:      "Field extraction calls by result",
		}, []string{"status"}),
		submissionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hey",
			Subsystem: "dispatch",
			Name:      "submissions_total",
			Help:      "Work orders submitted",
		}),
		negotiationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hey",
			Subsystem: "dispatch",
			Name:      "negotiations_total",
			Help:      "Provider negotiation actions by resulting status",
		}, []string{"action", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.extractionsTotal, m.submissionsTotal, m.negotiationsTotal)
	return m
}

func (m *DispatchMetrics) RecordTurn(phase, outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(phase, outcome).Inc()
}

func (m *DispatchMetrics) RecordExtraction(status string) {
	if m == nil {
		return
	}
	m.extractionsTotal.WithLabelValues(status).Inc()
}

func (m *DispatchMetrics) RecordSubmission() {
	if m == nil {
		return
	}
	m.submissionsTotal.Inc()
}

func (m *DispatchMetrics) RecordNegotiation(action, status string) {
	if m == nil {
		return
	}
	m.negotiationsTotal.WithLabelValues(action, status).Inc()
}
