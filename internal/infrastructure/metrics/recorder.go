// Package metrics exposes engine outcomes as Prometheus metrics.
//
// All collectors live on a caller-supplied registry so tests and multiple
// engines never collide on the global default registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"RigorScore/internal/domain"
	"RigorScore/internal/ports"
)

const namespace = "rigorscore"

// Recorder implements ports.Metrics.
type Recorder struct {
	// ScoreRuns counts score snapshots by trigger.
	ScoreRuns *prometheus.CounterVec
	// ScoreDuration measures one full Score call.
	ScoreDuration *prometheus.HistogramVec
	// Composite is the distribution of composite scores.
	Composite prometheus.Histogram
	// ReadinessRuns counts readiness evaluations by outcome (ready=true|false).
	ReadinessRuns *prometheus.CounterVec
	// ReadinessScore is the distribution of readiness scores.
	ReadinessScore prometheus.Histogram
	// OracleCalls counts oracle calls by task and outcome (ok|timeout|error).
	OracleCalls *prometheus.CounterVec
	// OracleDuration measures oracle latency by task.
	OracleDuration *prometheus.HistogramVec
	// Warnings counts degraded-input warnings by code.
	Warnings *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

var _ ports.Metrics = (*Recorder)(nil)

var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

// NewRecorder creates and registers all collectors on reg.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	r := &Recorder{
		ScoreRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_runs_total",
			Help:      "Score snapshots recorded, by trigger reason.",
		}, []string{"trigger"}),
		ScoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_duration_seconds",
			Help:      "Wall time of one scoring run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"trigger"}),
		Composite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "composite_score",
			Help:      "Composite rigor scores produced.",
			Buckets:   scoreBuckets,
		}),
		ReadinessRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readiness_runs_total",
			Help:      "Readiness evaluations, by resulting readiness.",
		}, []string{"ready"}),
		ReadinessScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "readiness_score",
			Help:      "Readiness scores produced.",
			Buckets:   scoreBuckets,
		}),
		OracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "calls_total",
			Help:      "Oracle calls by task and outcome.",
		}, []string{"task", "outcome"}),
		OracleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "call_duration_seconds",
			Help:      "Oracle call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task"}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Warnings attached to results, by code.",
		}, []string{"code"}),
		gatherer: reg,
	}

	reg.MustRegister(
		r.ScoreRuns, r.ScoreDuration, r.Composite,
		r.ReadinessRuns, r.ReadinessScore,
		r.OracleCalls, r.OracleDuration,
		r.Warnings,
	)
	return r
}

func (r *Recorder) ObserveScore(trigger domain.Trigger, composite float64, duration time.Duration) {
	r.ScoreRuns.WithLabelValues(string(trigger)).Inc()
	r.ScoreDuration.WithLabelValues(string(trigger)).Observe(duration.Seconds())
	r.Composite.Observe(composite)
}

func (r *Recorder) ObserveReadiness(ready bool, score float64) {
	r.ReadinessRuns.WithLabelValues(strconv.FormatBool(ready)).Inc()
	r.ReadinessScore.Observe(score)
}

func (r *Recorder) ObserveOracleCall(task domain.OracleTask, outcome string, duration time.Duration) {
	r.OracleCalls.WithLabelValues(string(task), outcome).Inc()
	r.OracleDuration.WithLabelValues(string(task)).Observe(duration.Seconds())
}

func (r *Recorder) ObserveWarning(code domain.WarningCode) {
	r.Warnings.WithLabelValues(string(code)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
