// Package metrics records batch analysis counters in a private Prometheus
// registry and writes them in the node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "prosody"

// Metrics holds the batch metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FilesTotal       *prometheus.CounterVec // by status: ok, failed, timeout
	AnalysisDuration prometheus.Histogram
	AudioSeconds     prometheus.Counter
	UndefinedTotal   *prometheus.CounterVec // by field
	BatchDuration    prometheus.Gauge
	WorkersActive    prometheus.Gauge
}

// New creates and registers all metrics in a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FilesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Audio files processed, by outcome",
		}, []string{"status"}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_analysis_seconds",
			Help:      "Wall time spent analysing one file",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		AudioSeconds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_seconds_total",
			Help:      "Total duration of successfully analysed audio",
		}),
		UndefinedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "undefined_measures_total",
			Help:      "Record fields left undefined, by field name",
		}, []string{"field"}),
		BatchDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time of the last batch run",
		}),
		WorkersActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_active",
			Help:      "Files currently being analysed",
		}),
	}
}

// Status labels for FilesTotal
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusTimeout = "timeout"
)

// FileStarted marks a worker as busy
func (m *Metrics) FileStarted() {
	if m == nil {
		return
	}
	m.WorkersActive.Inc()
}

// FileFinished records one completed file
func (m *Metrics) FileFinished(status string, elapsed time.Duration, audioSeconds float64) {
	if m == nil {
		return
	}
	m.WorkersActive.Dec()
	m.FilesTotal.WithLabelValues(status).Inc()
	m.AnalysisDuration.Observe(elapsed.Seconds())
	if status == StatusOK {
		m.AudioSeconds.Add(audioSeconds)
	}
}

// Undefined counts a record field that had no value
func (m *Metrics) Undefined(field string) {
	if m == nil {
		return
	}
	m.UndefinedTotal.WithLabelValues(field).Inc()
}

// BatchFinished records the total batch wall time
func (m *Metrics) BatchFinished(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.BatchDuration.Set(elapsed.Seconds())
}

// WriteTextfile writes all metrics to path atomically
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
