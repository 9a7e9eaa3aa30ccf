// Package metrics records per-run Prometheus metrics and optionally writes
// them to a node_exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for one detect-speech run.
type Metrics struct {
	registry *prometheus.Registry

	// Scan metrics
	OracleCalls   prometheus.Counter
	OracleErrors  prometheus.Counter
	ChunksScanned *prometheus.CounterVec
	ScanDuration  prometheus.Histogram

	// Decode metrics
	AudioSeconds   prometheus.Gauge
	DecodeDuration prometheus.Histogram

	// Cut metrics
	TrimmedSeconds *prometheus.GaugeVec
	TrimDuration   prometheus.Histogram
	Outcomes       *prometheus.CounterVec
	Uploads        prometheus.Counter
}

// NewMetrics creates all metrics on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		OracleCalls: factory.NewCounter(prometheus.CounterOpts{
			Name: "detect_speech_oracle_calls_total",
			Help: "Total number of voice-activity oracle invocations",
		}),
		OracleErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "detect_speech_oracle_errors_total",
			Help: "Total number of failed oracle invocations",
		}),
		ChunksScanned: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "detect_speech_chunks_scanned_total",
			Help: "Total number of chunks classified, by scan direction",
		}, []string{"direction"}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "detect_speech_scan_duration_seconds",
			Help:    "Time spent locating speech boundaries",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}),

		AudioSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Name: "detect_speech_audio_seconds",
			Help: "Duration of the decoded input in seconds",
		}),
		DecodeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "detect_speech_decode_duration_seconds",
			Help:    "Time spent decoding the input",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}),

		TrimmedSeconds: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "detect_speech_trimmed_seconds",
			Help: "Seconds of audio removed, by side",
		}, []string{"side"}),
		TrimDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "detect_speech_trim_duration_seconds",
			Help:    "Time spent in the external cutting tool",
			Buckets: prometheus.DefBuckets,
		}),
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "detect_speech_outcomes_total",
			Help: "Run outcomes, by kind",
		}, []string{"outcome"}),
		Uploads: factory.NewCounter(prometheus.CounterOpts{
			Name: "detect_speech_uploads_total",
			Help: "Total number of trimmed files published to object storage",
		}),
	}
}

// Registry returns the registry holding the run's metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveScan records a finished boundary scan.
func (m *Metrics) ObserveScan(forwardChunks, backwardChunks int, elapsed time.Duration) {
	m.ChunksScanned.WithLabelValues("forward").Add(float64(forwardChunks))
	m.ChunksScanned.WithLabelValues("backward").Add(float64(backwardChunks))
	m.ScanDuration.Observe(elapsed.Seconds())
}

// ObserveWholeScan records a scan done with a single oracle call.
func (m *Metrics) ObserveWholeScan(elapsed time.Duration) {
	m.ChunksScanned.WithLabelValues("whole").Inc()
	m.ScanDuration.Observe(elapsed.Seconds())
}

// ObserveTrim records the amount of audio removed from each side.
func (m *Metrics) ObserveTrim(headSeconds, tailSeconds float64, elapsed time.Duration) {
	m.TrimmedSeconds.WithLabelValues("start").Set(headSeconds)
	m.TrimmedSeconds.WithLabelValues("end").Set(tailSeconds)
	m.TrimDuration.Observe(elapsed.Seconds())
}

// WriteTextfile writes the registry in the text exposition format to path.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}
