// Package app wires the trainer together: camera loop, pose estimator,
// session, metrics and web server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/teslashibe/go-trainer/internal/config"
	"github.com/teslashibe/go-trainer/pkg/camera"
	"github.com/teslashibe/go-trainer/pkg/metrics"
	"github.com/teslashibe/go-trainer/pkg/overlay"
	"github.com/teslashibe/go-trainer/pkg/pose/yolo"
	"github.com/teslashibe/go-trainer/pkg/trainer"
	"github.com/teslashibe/go-trainer/pkg/web"
)

// App owns every long-lived component.
type App struct {
	config *config.Config
	logger *slog.Logger

	estimator trainer.Estimator
	opener    camera.Opener
	listener  net.Listener

	session   *trainer.Session
	metrics   *metrics.Metrics
	frames    *camera.FrameBroadcaster
	loop      *camera.Loop
	webServer *web.Server

	closers      []func() error
	shutdownOnce sync.Once
}

// Option configures an App.
type Option func(*App)

// WithEstimator replaces the YOLO estimator.
func WithEstimator(e trainer.Estimator) Option {
	return func(a *App) { a.estimator = e }
}

// WithOpener replaces the webcam opener.
func WithOpener(open camera.Opener) Option {
	return func(a *App) { a.opener = open }
}

// WithListener serves on ln instead of the configured address.
func WithListener(ln net.Listener) Option {
	return func(a *App) { a.listener = ln }
}

// WithLogger sets the root logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// New creates an App from configuration. Call Init before Run.
func New(cfg *config.Config, opts ...Option) *App {
	a := &App{
		config: cfg,
		logger: slog.Default(),
		opener: camera.OpenDevice,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init builds the session, estimator, capture loop and web server.
func (a *App) Init() error {
	sc, err := a.config.SessionConfig()
	if err != nil {
		return fmt.Errorf("session config: %w", err)
	}

	a.metrics = metrics.New()
	a.session, err = trainer.NewSession(sc,
		trainer.WithObserver(a.metrics),
		trainer.WithLogger(a.logger.With("component", "session")),
	)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	if a.estimator == nil {
		est, err := yolo.New(a.config.YOLOConfig())
		if err != nil {
			return fmt.Errorf("pose estimator: %w", err)
		}
		a.estimator = est
		a.closers = append(a.closers, est.Close)
		a.logger.Info("pose model loaded", "path", a.config.Model.Path)
	}

	processor := trainer.NewProcessor(a.session, a.estimator, overlay.New(overlay.DefaultStyle()))
	a.frames = camera.NewFrameBroadcaster(a.logger.With("component", "stream"))
	a.webServer = web.NewServer(a.config.Server.Addr(), a.session, a.frames, a.metrics, a.logger.With("component", "web"))
	a.loop = camera.NewLoop(a.config.Camera, processor, a.frames,
		camera.WithOpener(a.opener),
		camera.WithMetrics(a.metrics),
		camera.WithLogger(a.logger.With("component", "camera")),
		camera.WithFrameCallback(a.webServer.PublishStats),
	)

	a.logger.Info("trainer initialized", "session", a.session.ID())
	return nil
}

// Session returns the workout session. Valid after Init.
func (a *App) Session() *trainer.Session {
	return a.session
}

// Run starts the web server and the capture loop.
// Blocks until ctx is cancelled or the web server stops. Either way the
// capture loop is stopped and has released the camera before Run returns,
// so Shutdown never closes the estimator under a running frame.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		if a.listener != nil {
			serveErr <- a.webServer.Serve(a.listener)
		} else {
			serveErr <- a.webServer.Start()
		}
	}()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		err := a.loop.Run(ctx)
		switch {
		case errors.Is(err, camera.ErrReadFailed):
			a.logger.Error("camera stopped delivering frames", "error", err)
		case err != nil:
			a.logger.Error("capture loop failed", "error", err)
		}
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
		cancel()
	}
	<-loopDone

	if err != nil {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		if a.webServer != nil {
			if err := a.webServer.Shutdown(); err != nil {
				a.logger.Warn("web server shutdown", "error", err)
			}
		}
		for _, closeFn := range a.closers {
			if err := closeFn(); err != nil {
				a.logger.Warn("close", "error", err)
			}
		}
		a.logger.Info("trainer stopped")
	})
}
