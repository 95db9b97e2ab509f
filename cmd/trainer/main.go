// Trainer - webcam exercise rep counter with a browser UI
// Streams an annotated MJPEG feed and pushes live rep stats over a websocket.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-trainer/internal/config"
	"github.com/teslashibe/go-trainer/internal/log"
	"github.com/teslashibe/go-trainer/pkg/app"
)

func main() {
	cfg := parseFlags()

	logger := log.Init(cfg.Log.Level, cfg.Log.Format)

	a := app.New(cfg, app.WithLogger(logger))
	if err := a.Init(); err != nil {
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer a.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("trainer running", "addr", cfg.Server.Addr())
	if err := a.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
		a.Shutdown()
		os.Exit(1)
	}
}

// parseFlags parses command line flags and returns configuration.
// Flags override the config file and TRAINER_ environment variables.
func parseFlags() *config.Config {
	configPath := flag.String("config", "", "Path to YAML config file")
	modelPath := flag.String("model", "", "Path to YOLOv8-pose ONNX model (overrides config)")
	device := flag.Int("device", -1, "Camera device index (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if *modelPath != "" {
		cfg.Model.Path = *modelPath
	}
	if *device >= 0 {
		cfg.Camera.Device = *device
	}
	return cfg
}
