// Package config loads go-trainer settings from YAML with TRAINER_ env overrides.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/teslashibe/go-trainer/pkg/camera"
	"github.com/teslashibe/go-trainer/pkg/exercise"
	"github.com/teslashibe/go-trainer/pkg/pose/yolo"
	"github.com/teslashibe/go-trainer/pkg/trainer"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Camera  camera.Config `yaml:"camera"`
	Model   ModelConfig   `yaml:"model"`
	Trainer TrainerConfig `yaml:"trainer"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type ModelConfig struct {
	Path           string  `yaml:"path"`
	InputSize      int     `yaml:"input_size"`
	ScoreThreshold float32 `yaml:"score_threshold"`
}

// TrainerConfig holds counting tunables. Thresholds is keyed by exercise id
// (bicep, squat, lateral); exercises not listed keep their built-in values.
type TrainerConfig struct {
	MinVisibility float64                        `yaml:"min_visibility"`
	RateWindow    time.Duration                  `yaml:"rate_window"`
	Thresholds    map[string]exercise.Thresholds `yaml:"thresholds"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Default returns the built-in configuration.
func Default() *Config {
	yc := yolo.DefaultConfig()
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 5000},
		Camera: camera.DefaultConfig(),
		Model: ModelConfig{
			Path:           yc.ModelPath,
			InputSize:      yc.InputWidth,
			ScoreThreshold: yc.ConfidenceThresh,
		},
		Trainer: TrainerConfig{
			MinVisibility: trainer.DefaultMinVisibility,
			RateWindow:    exercise.DefaultRateWindow,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. An empty path skips the file.
// Env vars use the prefix TRAINER_:
//
//	TRAINER_HOST, TRAINER_PORT, TRAINER_CAMERA_DEVICE,
//	TRAINER_MODEL_PATH, TRAINER_LOG_LEVEL, TRAINER_RATE_WINDOW
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("TRAINER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TRAINER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TRAINER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("TRAINER_CAMERA_DEVICE"); v != "" {
		dev, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TRAINER_CAMERA_DEVICE: %w", err)
		}
		cfg.Camera.Device = dev
	}
	if v := os.Getenv("TRAINER_MODEL_PATH"); v != "" {
		cfg.Model.Path = v
	}
	if v := os.Getenv("TRAINER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TRAINER_RATE_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TRAINER_RATE_WINDOW: %w", err)
		}
		cfg.Trainer.RateWindow = d
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if errs := c.Camera.Validate(); len(errs) > 0 {
		return fmt.Errorf("camera: %s", strings.Join(errs, "; "))
	}
	if c.Model.Path == "" {
		return fmt.Errorf("model.path is required")
	}
	if c.Model.InputSize <= 0 || c.Model.InputSize%32 != 0 {
		return fmt.Errorf("model.input_size must be a positive multiple of 32")
	}
	if c.Model.ScoreThreshold < 0 || c.Model.ScoreThreshold > 1 {
		return fmt.Errorf("model.score_threshold must be between 0 and 1")
	}
	if c.Trainer.MinVisibility < 0 || c.Trainer.MinVisibility > 1 {
		return fmt.Errorf("trainer.min_visibility must be between 0 and 1")
	}
	if c.Trainer.RateWindow <= 0 {
		return fmt.Errorf("trainer.rate_window must be positive")
	}
	if _, err := c.thresholds(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}

func (c *Config) thresholds() (map[exercise.Type]exercise.Thresholds, error) {
	out := make(map[exercise.Type]exercise.Thresholds, len(c.Trainer.Thresholds))
	for id, th := range c.Trainer.Thresholds {
		t := exercise.Parse(id)
		if t == exercise.None {
			return nil, fmt.Errorf("trainer.thresholds: unknown exercise %q", id)
		}
		if err := th.Validate(); err != nil {
			return nil, fmt.Errorf("trainer.thresholds.%s: %w", id, err)
		}
		out[t] = th
	}
	return out, nil
}

// SessionConfig builds the trainer session settings.
func (c *Config) SessionConfig() (trainer.SessionConfig, error) {
	overrides, err := c.thresholds()
	if err != nil {
		return trainer.SessionConfig{}, err
	}
	defs, err := exercise.DefaultDefinitions().WithThresholds(overrides)
	if err != nil {
		return trainer.SessionConfig{}, err
	}
	return trainer.SessionConfig{
		Definitions:   defs,
		MinVisibility: c.Trainer.MinVisibility,
		RateWindow:    c.Trainer.RateWindow,
	}, nil
}

// YOLOConfig builds the pose estimator settings.
func (c *Config) YOLOConfig() yolo.Config {
	return yolo.Config{
		ModelPath:        c.Model.Path,
		ConfidenceThresh: c.Model.ScoreThreshold,
		InputWidth:       c.Model.InputSize,
		InputHeight:      c.Model.InputSize,
	}
}
