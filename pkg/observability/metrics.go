package observability

import (
	"github.com/aretw0/qx32/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the cluster's Prometheus collectors.
type Metrics struct {
	Runs        prometheus.Counter
	Rejections  prometheus.Counter
	Steps       *prometheus.CounterVec
	Results     *prometheus.CounterVec
	Probability prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// It panics if they are already registered, like prometheus.MustRegister.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qx32_runs_total",
			Help: "Total number of questions accepted for processing",
		}),
		Rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qx32_rejections_total",
			Help: "Total number of inputs rejected as not yes/no questions",
		}),
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qx32_steps_total",
				Help: "Total number of status lines committed",
			},
			[]string{"status"},
		),
		Results: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qx32_results_total",
				Help: "Total number of revealed results",
			},
			[]string{"kind", "answer"},
		),
		Probability: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "qx32_probability",
			Help:    "Distribution of revealed probabilities",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
	}
	reg.MustRegister(m.Runs, m.Rejections, m.Steps, m.Results, m.Probability)
	return m
}

// Hooks returns callbacks that record every session event.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnPhase: func(_ string, phase domain.Phase) {
			if phase == domain.PhaseProcessing {
				m.Runs.Inc()
			}
		},
		OnReject: func(string, string) {
			m.Rejections.Inc()
		},
		OnStep: func(_ string, step domain.StepOutcome) {
			m.Steps.WithLabelValues(string(step.Status)).Inc()
		},
		OnResult: func(_ string, r domain.Result) {
			m.Results.WithLabelValues(string(r.Kind), string(r.Answer)).Inc()
			if !r.IsError() {
				m.Probability.Observe(float64(r.Probability))
			}
		},
	}
}
