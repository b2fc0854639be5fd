// services/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"motioncam-go/types"
)

const namespace = "motioncam"

// Capture paths, used as the "path" label.
const (
	PathMotion = "motion"
	PathStream = "stream"
)

// Metrics holds the node's Prometheus collectors on a private registry.
// All Record methods are safe on a nil receiver.
type Metrics struct {
	reg *prometheus.Registry

	// Loop metrics
	Iterations prometheus.Counter

	// Motion path
	MotionEvents   *prometheus.CounterVec
	UploadDuration prometheus.Histogram
	FrameSize      *prometheus.HistogramVec

	// Stream path
	StreamFrames *prometheus.CounterVec

	// Camera
	CaptureFailures *prometheus.CounterVec
	FramesHeld      prometheus.Gauge

	// Link
	LinkUp         prometheus.Gauge
	LinkReconnects *prometheus.CounterVec

	// Interrupt
	TriggersSuppressed prometheus.Gauge
}

// New creates and registers all metrics, plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,

		Iterations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loop_iterations_total",
			Help:      "Total number of scheduler iterations",
		}),

		MotionEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "motion_events_total",
				Help:      "Handled motion events by outcome",
			},
			[]string{"outcome"}, // uploaded, upload_failed, capture_failed
		),
		UploadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Duration of motion uploads",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		FrameSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "frame_size_bytes",
				Help:      "Size of captured JPEG frames",
				Buckets:   prometheus.ExponentialBuckets(4096, 2, 8), // 4KB to 512KB
			},
			[]string{"path"},
		),

		StreamFrames: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_frames_total",
				Help:      "Stream ticks by result",
			},
			[]string{"result"}, // sent, dropped
		),

		CaptureFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "capture_failures_total",
				Help:      "Camera capture failures by path",
			},
			[]string{"path"},
		),
		FramesHeld: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frames_held",
			Help:      "Frame buffers currently out of the pool",
		}),

		LinkUp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "link_up",
			Help:      "1 when the network link is connected",
		}),
		LinkReconnects: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "link_reconnects_total",
				Help:      "Reconnect attempts by result",
			},
			[]string{"result"}, // ok, failed
		),

		TriggersSuppressed: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pir_triggers_suppressed",
			Help:      "PIR edges rejected inside the cooldown window",
		}),
	}
}

// Registry exposes the private registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// RecordIteration counts one scheduler pass.
func (m *Metrics) RecordIteration() {
	if m == nil {
		return
	}
	m.Iterations.Inc()
}

// RecordMotion records a handled motion event.
func (m *Metrics) RecordMotion(ev types.MotionEvent, uploadSeconds float64) {
	if m == nil {
		return
	}
	m.MotionEvents.WithLabelValues(string(ev.Outcome)).Inc()
	switch ev.Outcome {
	case types.MotionCaptureFailed:
		m.CaptureFailures.WithLabelValues(PathMotion).Inc()
	default:
		m.FrameSize.WithLabelValues(PathMotion).Observe(float64(ev.Bytes))
		m.UploadDuration.Observe(uploadSeconds)
	}
}

// RecordStream records one stream tick.
func (m *Metrics) RecordStream(sent, captured bool, size int) {
	if m == nil {
		return
	}
	if !captured {
		m.CaptureFailures.WithLabelValues(PathStream).Inc()
	} else {
		m.FrameSize.WithLabelValues(PathStream).Observe(float64(size))
	}
	result := "dropped"
	if sent {
		result = "sent"
	}
	m.StreamFrames.WithLabelValues(result).Inc()
}

// RecordReconnect records one reconnect attempt.
func (m *Metrics) RecordReconnect(ok bool) {
	if m == nil {
		return
	}
	result := "failed"
	if ok {
		result = "ok"
	}
	m.LinkReconnects.WithLabelValues(result).Inc()
}

// SetLink updates the link gauge.
func (m *Metrics) SetLink(st types.LinkState) {
	if m == nil {
		return
	}
	if st == types.LinkConnected {
		m.LinkUp.Set(1)
	} else {
		m.LinkUp.Set(0)
	}
}

// SetHeld updates the buffer gauge.
func (m *Metrics) SetHeld(n int) {
	if m == nil {
		return
	}
	m.FramesHeld.Set(float64(n))
}

// SetSuppressed mirrors the interrupt's suppressed-trigger counter.
func (m *Metrics) SetSuppressed(n uint32) {
	if m == nil {
		return
	}
	m.TriggersSuppressed.Set(float64(n))
}
