package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	pipelineRuns     *prometheus.CounterVec
	pipelineDuration *prometheus.HistogramVec
	providerErrors   *prometheus.CounterVec
	skipped          *prometheus.CounterVec
	recordsWritten   *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	lastRun          *prometheus.GaugeVec
}

// New registers the collectors on reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		pipelineRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantiq_pipeline_runs_total",
				Help: "Pipeline runs by request kind and outcome status",
			},
			[]string{"kind", "status"},
		),
		pipelineDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quantiq_pipeline_duration_seconds",
				Help:    "Pipeline run duration in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"kind"},
		),
		providerErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantiq_provider_errors_total",
				Help: "Failed calls to external data providers",
			},
			[]string{"provider"},
		),
		skipped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantiq_items_skipped_total",
				Help: "Series or instruments skipped during a run",
			},
			[]string{"stage", "reason"},
		),
		recordsWritten: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantiq_records_written_total",
				Help: "Rows upserted per table",
			},
			[]string{"table"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantiq_errors_total",
				Help: "Pipeline failures by error kind",
			},
			[]string{"kind"},
		),
		lastRun: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quantiq_pipeline_last_success",
				Help: "1 when the last run of a kind succeeded, 0 otherwise",
			},
			[]string{"kind"},
		),
	}
}

func (r *Recorder) RecordPipelineRun(kind, status string, seconds float64) {
	r.pipelineRuns.WithLabelValues(kind, status).Inc()
	r.pipelineDuration.WithLabelValues(kind).Observe(seconds)
	ok := 0.0
	if status == "success" {
		ok = 1
	}
	r.lastRun.WithLabelValues(kind).Set(ok)
}

func (r *Recorder) RecordProviderError(provider string) {
	r.providerErrors.WithLabelValues(provider).Inc()
}

func (r *Recorder) RecordSkipped(stage, reason string) {
	r.skipped.WithLabelValues(stage, reason).Inc()
}

func (r *Recorder) RecordRecordsWritten(table string, n int) {
	if n > 0 {
		r.recordsWritten.WithLabelValues(table).Add(float64(n))
	}
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordPipelineRun(string, string, float64) {}
func (Nop) RecordProviderError(string)                {}
func (Nop) RecordSkipped(string, string)              {}
func (Nop) RecordRecordsWritten(string, int)          {}
func (Nop) RecordError(string)                        {}

// FormatSeconds renders a duration with millisecond precision for summaries.
func FormatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
