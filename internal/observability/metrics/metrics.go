package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for the lead intake flow.
type IntakeMetrics struct {
	submissionsTotal *prometheus.CounterVec
	sinkWriteLatency *prometheus.HistogramVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rebuild",
			Subsystem: "intake",
			Name:      "submissions_total",
			Help:      "Total lead submissions by outcome",
		}, []string{"sink", "status"}),
		sinkWriteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rebuild",
			Subsystem: "intake",
			Name:      "sink_write_latency_seconds",
			Help:      "Latency of outbound sink writes",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sink"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.sinkWriteLatency)
	return m
}

func (m *IntakeMetrics) ObserveSubmission(sink, status string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(sink, status).Inc()
}

func (m *IntakeMetrics) ObserveSinkWrite(sink string, seconds float64) {
	if m == nil {
		return
	}
	m.sinkWriteLatency.WithLabelValues(sink).Observe(seconds)
}
