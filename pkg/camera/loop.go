package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-trainer/pkg/metrics"
	"github.com/teslashibe/go-trainer/pkg/overlay"
	"github.com/teslashibe/go-trainer/pkg/trainer"
	"gocv.io/x/gocv"
)

// errorFrameInterval paces the fallback feed when the device cannot be opened.
const errorFrameInterval = 100 * time.Millisecond

// FrameProcessor annotates a frame and updates workout state.
// *trainer.Processor implements it.
type FrameProcessor interface {
	ProcessFrame(frame gocv.Mat) (gocv.Mat, error)
}

// Loop pulls frames from a Source, processes them in order and publishes
// the encoded result.
type Loop struct {
	config    Config
	open      Opener
	processor FrameProcessor
	frames    *FrameBroadcaster
	metrics   *metrics.Metrics
	logger    *slog.Logger

	// Called after every published frame; the web server pushes stats here.
	onFrame func()
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithOpener replaces OpenDevice.
func WithOpener(open Opener) LoopOption {
	return func(l *Loop) { l.open = open }
}

// WithMetrics records frame counters.
func WithMetrics(m *metrics.Metrics) LoopOption {
	return func(l *Loop) { l.metrics = m }
}

// WithLogger sets the loop logger.
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) { l.logger = logger }
}

// WithFrameCallback sets a function run after every published frame.
func WithFrameCallback(fn func()) LoopOption {
	return func(l *Loop) { l.onFrame = fn }
}

// NewLoop creates a capture loop.
func NewLoop(cfg Config, processor FrameProcessor, frames *FrameBroadcaster, opts ...LoopOption) *Loop {
	l := &Loop{
		config:    cfg,
		open:      OpenDevice,
		processor: processor,
		frames:    frames,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run captures until ctx is cancelled or the device stops yielding frames.
//
// If the device cannot be opened Run publishes a "CAMERA ERROR" frame every
// 100ms until ctx is cancelled and then returns nil. A failed read returns
// ErrReadFailed. The source is closed before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	src, err := l.open(l.config)
	if err != nil {
		l.logger.Error("camera unavailable, serving error frame", "device", l.config.Device, "error", err)
		return l.runErrorFeed(ctx)
	}
	defer src.Close()

	l.logger.Info("camera opened",
		"device", l.config.Device,
		"width", l.config.Width,
		"height", l.config.Height,
		"fps", l.config.Framerate,
	)

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("capture loop stopped")
			return nil
		default:
		}

		if !src.Read(&frame) || frame.Empty() {
			l.count(func(m *metrics.Metrics) { m.ReadErrors.Add(1) })
			return fmt.Errorf("%w: device %d", ErrReadFailed, l.config.Device)
		}
		l.count(func(m *metrics.Metrics) { m.FramesRead.Add(1) })

		out, err := l.processor.ProcessFrame(frame)
		if err != nil {
			if !errors.Is(err, trainer.ErrEstimatorFailure) {
				l.logger.Warn("frame processing failed", "error", err)
			} else {
				l.logger.Debug("pose estimation failed", "error", err)
			}
		}

		l.publish(out)
		if l.onFrame != nil {
			l.onFrame()
		}
	}
}

func (l *Loop) publish(frame gocv.Mat) {
	data, err := EncodeJPEG(frame, l.config.Quality)
	if err != nil {
		l.count(func(m *metrics.Metrics) { m.EncodeErrors.Add(1) })
		l.logger.Warn("dropping frame", "error", err)
		return
	}
	l.frames.Publish(data)
}

func (l *Loop) runErrorFeed(ctx context.Context) error {
	frame := overlay.ErrorFrame(ErrorFrameWidth, ErrorFrameHeight, "CAMERA ERROR")
	defer frame.Close()

	data, err := EncodeJPEG(frame, l.config.Quality)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(errorFrameInterval)
	defer ticker.Stop()

	for {
		l.frames.Publish(data)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (l *Loop) count(fn func(m *metrics.Metrics)) {
	if l.metrics != nil {
		fn(l.metrics)
	}
}
