package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "macroedge"

// Pipeline holds the collectors of the scoring pipeline.
type Pipeline struct {
	StageRuns      *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	RowsNormalized prometheus.Counter
	ScoresWritten  *prometheus.CounterVec
	UnitFailures   *prometheus.CounterVec
	LastBiasScore  *prometheus.GaugeVec
}

// NewPipeline creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	m := &Pipeline{
		StageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_runs_total",
			Help:      "Pipeline stage runs by outcome",
		}, []string{"stage", "status"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"stage"}),
		RowsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "surprise",
			Name:      "rows_normalized_total",
			Help:      "Observations whose normalized surprise was rewritten",
		}),
		ScoresWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bias",
			Name:      "scores_written_total",
			Help:      "Bias scores persisted per index",
		}, []string{"index"}),
		UnitFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "unit_failures_total",
			Help:      "Indicators, series or indices that failed within a stage",
		}, []string{"stage"}),
		LastBiasScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bias",
			Name:      "last_score",
			Help:      "Most recent bias score per index",
		}, []string{"index"}),
	}
	if reg != nil {
		reg.MustRegister(m.StageRuns, m.StageDuration, m.RowsNormalized, m.ScoresWritten, m.UnitFailures, m.LastBiasScore)
	}
	return m
}

// ObserveStage records one stage execution.
func (m *Pipeline) ObserveStage(stage string, started time.Time, err error, failures int) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StageRuns.WithLabelValues(stage, status).Inc()
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
	if failures > 0 {
		m.UnitFailures.WithLabelValues(stage).Add(float64(failures))
	}
}

func (m *Pipeline) ObserveNormalized(rows int) {
	if m == nil || rows <= 0 {
		return
	}
	m.RowsNormalized.Add(float64(rows))
}

func (m *Pipeline) ObserveScore(index string, score float64) {
	if m == nil {
		return
	}
	m.ScoresWritten.WithLabelValues(index).Inc()
	m.LastBiasScore.WithLabelValues(index).Set(score)
}
