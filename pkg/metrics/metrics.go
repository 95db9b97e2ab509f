// Package metrics exposes trainer counters to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/teslashibe/go-trainer/pkg/exercise"
	"github.com/teslashibe/go-trainer/pkg/trainer"
)

// Metrics holds all application metrics
type Metrics struct {
	// Frame loop
	FramesRead      atomic.Uint64
	FramesProcessed atomic.Uint64
	EncodeErrors    atomic.Uint64
	ReadErrors      atomic.Uint64

	// Frame outcomes
	EstimatorFailures   atomic.Uint64
	LowConfidenceFrames atomic.Uint64
	UnsupportedFrames   atomic.Uint64

	// Socket clients
	ActiveClients atomic.Int64

	reps *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trainer_reps_total",
				Help: "Completed repetitions by exercise",
			},
			[]string{"exercise"},
		),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	gauges := []struct {
		name, help string
		fn         func() float64
	}{
		{"trainer_frames_read_total", "Frames read from the camera", func() float64 { return float64(m.FramesRead.Load()) }},
		{"trainer_frames_processed_total", "Frames that updated an exercise counter", func() float64 { return float64(m.FramesProcessed.Load()) }},
		{"trainer_encode_errors_total", "JPEG encode failures", func() float64 { return float64(m.EncodeErrors.Load()) }},
		{"trainer_read_errors_total", "Camera read failures", func() float64 { return float64(m.ReadErrors.Load()) }},
		{"trainer_estimator_failures_total", "Frames where pose estimation failed", func() float64 { return float64(m.EstimatorFailures.Load()) }},
		{"trainer_low_confidence_frames_total", "Frames skipped for low landmark confidence", func() float64 { return float64(m.LowConfidenceFrames.Load()) }},
		{"trainer_unsupported_frames_total", "Frames for an exercise without a definition", func() float64 { return float64(m.UnsupportedFrames.Load()) }},
		{"trainer_socket_clients", "Connected websocket clients", func() float64 { return float64(m.ActiveClients.Load()) }},
	}

	for _, g := range gauges {
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: g.name, Help: g.help},
			g.fn,
		))
	}
	m.registry.MustRegister(m.reps)
}

// FrameProcessed implements trainer.Observer.
func (m *Metrics) FrameProcessed(exercise.Type) {
	m.FramesProcessed.Add(1)
}

// FrameSkipped implements trainer.Observer.
func (m *Metrics) FrameSkipped(_ exercise.Type, reason error) {
	switch {
	case errors.Is(reason, trainer.ErrEstimatorFailure):
		m.EstimatorFailures.Add(1)
	case errors.Is(reason, exercise.ErrLowConfidence):
		m.LowConfidenceFrames.Add(1)
	case errors.Is(reason, trainer.ErrUnsupportedExercise):
		m.UnsupportedFrames.Add(1)
	}
}

// RepCompleted implements trainer.Observer.
func (m *Metrics) RepCompleted(t exercise.Type, _ int) {
	m.reps.WithLabelValues(t.String()).Inc()
}

// Handler returns the Prometheus scrape handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
