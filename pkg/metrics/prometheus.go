package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	samplesIngested *prometheus.CounterVec
	windowsTotal    *prometheus.CounterVec
	estimatorErrors *prometheus.CounterVec
	cadence         *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		samplesIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stridesense_samples_ingested_total",
				Help: "Total number of IMU samples accepted into the buffer",
			},
			[]string{"source"},
		),
		windowsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stridesense_windows_processed_total",
				Help: "Total analysis windows that produced an estimate",
			},
			[]string{"method"},
		),
		estimatorErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stridesense_estimator_errors_total",
				Help: "Per-window estimator failures by kind",
			},
			[]string{"method", "kind"},
		),
		cadence: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stridesense_cadence_spm",
				Help: "Latest smoothed cadence per estimation method",
			},
			[]string{"method"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stridesense_operation_duration_seconds",
				Help:    "Duration of pipeline operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSampleIngested counts one accepted sample.
func (r *Recorder) RecordSampleIngested(source string) {
	r.samplesIngested.WithLabelValues(source).Inc()
}

// RecordWindowProcessed counts one successful window estimate.
func (r *Recorder) RecordWindowProcessed(method string) {
	r.windowsTotal.WithLabelValues(method).Inc()
}

// RecordEstimatorError counts a per-window failure.
func (r *Recorder) RecordEstimatorError(method, kind string) {
	r.estimatorErrors.WithLabelValues(method, kind).Inc()
}

// RecordCadence sets the live cadence gauge for a method.
func (r *Recorder) RecordCadence(method string, spm float64) {
	r.cadence.WithLabelValues(method).Set(spm)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
