// Package metrics exposes control-loop and HTTP signals as Prometheus
// collectors.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jonathan/resume-compressor/internal/control"
	"github.com/jonathan/resume-compressor/internal/types"
)

const namespace = "resume_compression"

// Metrics holds the collectors. It implements control.Observer.
//
// Metrics:
//   - resume_compression_runs_total{status}
//   - resume_compression_run_iterations
//   - resume_compression_final_pressure
//   - resume_compression_evaluations_total{passed,source}
//   - resume_compression_rollbacks_total
//   - resume_compression_adjusted_score
//   - resume_compression_page_count
//   - resume_compression_http_requests_total{route,code}
type Metrics struct {
	RunsTotal        *prometheus.CounterVec
	RunIterations    prometheus.Histogram
	FinalPressure    prometheus.Histogram
	EvaluationsTotal *prometheus.CounterVec
	RollbacksTotal   prometheus.Counter
	AdjustedScore    prometheus.Histogram
	PageCount        prometheus.Histogram
	HTTPRequests     *prometheus.CounterVec
}

var _ control.Observer = (*Metrics)(nil)

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in the binary and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished compression runs by final status",
		}, []string{"status"}),
		RunIterations: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_iterations",
			Help:      "Iterations used per finished run",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		FinalPressure: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "final_pressure",
			Help:      "Page pressure when a run finished",
			Buckets:   []float64{0.4, 0.45, 0.6, 0.8, 0.95},
		}),
		EvaluationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Evaluations by outcome and review source",
		}, []string{"passed", "source"}),
		RollbacksTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollbacks_total",
			Help:      "Evaluations that restored the previous checkpoint",
		}),
		AdjustedScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "adjusted_score",
			Help:      "Adjusted review score per evaluation",
			Buckets:   []float64{50, 60, 70, 80, 85, 90, 92, 95, 100},
		}),
		PageCount: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "page_count",
			Help:      "Compiled page count per evaluation",
			Buckets:   []float64{1, 2, 3, 4},
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// ObserveEvaluation records one evaluation
func (m *Metrics) ObserveEvaluation(_ context.Context, _ control.State, e types.Evaluation) {
	source := e.ReviewSource
	if source == "" {
		source = "unknown"
	}
	m.EvaluationsTotal.WithLabelValues(strconv.FormatBool(e.Passed), source).Inc()
	if e.RolledBack {
		m.RollbacksTotal.Inc()
	}
	m.AdjustedScore.Observe(float64(e.AdjustedScore))
	m.PageCount.Observe(float64(e.PageCount))
}

// ObserveRun records a finished run
func (m *Metrics) ObserveRun(_ context.Context, s control.State) {
	m.RunsTotal.WithLabelValues(string(s.Status)).Inc()
	m.RunIterations.Observe(float64(s.Iteration))
	m.FinalPressure.Observe(s.Pressure)
}

// ObserveRequest counts one HTTP request
func (m *Metrics) ObserveRequest(route string, code int) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
