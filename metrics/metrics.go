// Package metrics exposes pipeline activity to prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"homesite_sync/models"
)

const Namespace = "homesite_sync"

type Metrics struct {
	StepRunsTotal       *prometheus.CounterVec
	StepDurationSeconds *prometheus.HistogramVec
	StepItemsTotal      *prometheus.CounterVec
	StepsRunning        prometheus.Gauge

	MutationsTotal       *prometheus.CounterVec
	MutationErrorsTotal  *prometheus.CounterVec
	QueryDurationSeconds *prometheus.HistogramVec
}

// New registers all metrics on reg, or on the default registerer when reg
// is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	m := &Metrics{}
	m.initStepMetrics(factory)
	m.initStoreMetrics(factory)
	return m
}

func (m *Metrics) initStepMetrics(factory promauto.Factory) {
	m.StepRunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "pipeline",
			Name:      "step_runs_total",
			Help:      "Pipeline step runs by final status",
		},
		[]string{"step", "status"},
	)

	m.StepDurationSeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "pipeline",
			Name:      "step_duration_seconds",
			Help:      "Wall time of a pipeline step",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14), // 1s to ~2.3h
		},
		[]string{"step"},
	)

	m.StepItemsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "pipeline",
			Name:      "step_items_total",
			Help:      "Items handled by pipeline steps by outcome",
		},
		[]string{"step", "outcome"},
	)

	m.StepsRunning = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "pipeline",
			Name:      "steps_running",
			Help:      "Pipeline steps currently running",
		},
	)
}

func (m *Metrics) initStoreMetrics(factory promauto.Factory) {
	m.MutationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Document mutations sent to the CMS by kind and document type",
		},
		[]string{"kind", "type"},
	)

	m.MutationErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "store",
			Name:      "mutation_errors_total",
			Help:      "Failed mutation requests by kind of the first mutation",
		},
		[]string{"kind"},
	)

	m.QueryDurationSeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "store",
			Name:      "query_duration_seconds",
			Help:      "CMS query latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"query"},
	)
}

// ObserveStep records one finished step run.
func (m *Metrics) ObserveStep(step string, status models.RunStatus, elapsed time.Duration, stats models.StepStats) {
	if m == nil {
		return
	}
	m.StepRunsTotal.WithLabelValues(step, string(status)).Inc()
	m.StepDurationSeconds.WithLabelValues(step).Observe(elapsed.Seconds())
	m.StepItemsTotal.WithLabelValues(step, "processed").Add(float64(stats.Processed))
	m.StepItemsTotal.WithLabelValues(step, "succeeded").Add(float64(stats.Succeeded))
	m.StepItemsTotal.WithLabelValues(step, "skipped").Add(float64(stats.Skipped))
	m.StepItemsTotal.WithLabelValues(step, "errors").Add(float64(stats.Errors))
}
