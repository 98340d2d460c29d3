package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments project creation.
//
//   - campushub_project_creations_total{outcome}
//   - campushub_project_creation_duration_seconds
//   - campushub_rollback_step_failures_total{step}
type Metrics struct {
	Creations        *prometheus.CounterVec
	CreationDuration prometheus.Histogram
	RollbackFailures *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. Tests pass a fresh registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Creations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campushub_project_creations_total",
				Help: "Project creation attempts by outcome.",
			},
			[]string{"outcome"}, // created, rejected, conflict, rolled_back
		),
		CreationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "campushub_project_creation_duration_seconds",
			Help:    "Time spent creating a project including file moves.",
			Buckets: prometheus.DefBuckets,
		}),
		RollbackFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campushub_rollback_step_failures_total",
				Help: "Compensation steps that failed during rollback.",
			},
			[]string{"step"},
		),
	}
}
