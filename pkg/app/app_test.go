package app

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/go-trainer/internal/config"
	"github.com/teslashibe/go-trainer/pkg/camera"
	"github.com/teslashibe/go-trainer/pkg/exercise"
	"github.com/teslashibe/go-trainer/pkg/pose"
	"github.com/teslashibe/go-trainer/pkg/trainer"
	"gocv.io/x/gocv"
)

// elbowAt returns left-arm landmarks with the elbow bent to deg degrees.
func elbowAt(deg float64) pose.Landmarks {
	rad := deg * math.Pi / 180
	return pose.Landmarks{
		pose.LeftShoulder: {X: 300, Y: 100, Confidence: 0.9},
		pose.LeftElbow:    {X: 300, Y: 200, Confidence: 0.9},
		pose.LeftWrist:    {X: 300 + 100*math.Sin(rad), Y: 200 - 100*math.Cos(rad), Confidence: 0.9},
	}
}

// frameSource yields n grey frames, then fails. A negative n never runs out.
type frameSource struct {
	n      int
	reads  atomic.Int32
	closed atomic.Bool
}

func (s *frameSource) Read(frame *gocv.Mat) bool {
	if s.n == 0 {
		return false
	}
	if s.n > 0 {
		s.n--
	}
	s.reads.Add(1)
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(90, 90, 90, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer img.Close()
	img.CopyTo(frame)
	return true
}

func (s *frameSource) Close() error {
	s.closed.Store(true)
	return nil
}

func getJSON(t *testing.T, url string, v interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

func TestApp_CountsRepsEndToEnd(t *testing.T) {
	var angles []pose.Landmarks
	for _, deg := range []float64{170, 150, 40, 35, 150, 170} {
		angles = append(angles, elbowAt(deg))
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	a := New(config.Default(),
		WithEstimator(trainer.NewMockEstimator(angles...)),
		WithOpener(func(camera.Config) (camera.Source, error) { return &frameSource{n: len(angles)}, nil }),
		WithListener(ln),
	)
	if err := a.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer a.Shutdown()

	a.Session().SetActive(exercise.BicepCurl)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	base := "http://" + ln.Addr().String()
	var stats struct {
		Exercise string  `json:"exercise"`
		Reps     int     `json:"reps"`
		Rate     float64 `json:"rate"`
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		getJSON(t, base+"/api/stats", &stats)
		if stats.Reps == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("reps = %d after deadline, want 1", stats.Reps)
		}
		time.Sleep(20 * time.Millisecond)
	}
	if stats.Exercise != "bicep" || stats.Rate != 1 {
		t.Errorf("stats = %+v, want bicep at 1.0/min", stats)
	}

	var health map[string]interface{}
	getJSON(t, base+"/api/health", &health)
	if health["status"] != "ok" || health["session"] != a.Session().ID() {
		t.Errorf("health = %v", health)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestApp_ServeFailureStopsCaptureLoop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ln.Close()

	src := &frameSource{n: -1}
	a := New(config.Default(),
		WithEstimator(trainer.NewMockEstimator(elbowAt(170))),
		WithOpener(func(camera.Config) (camera.Source, error) { return src, nil }),
		WithListener(ln),
	)
	if err := a.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer a.Shutdown()

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Run() should report the listener failure")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the web server failed")
	}

	// The loop must have released the camera before Run returned.
	if !src.closed.Load() {
		t.Fatal("camera source still open after Run returned")
	}
	reads := src.reads.Load()
	time.Sleep(50 * time.Millisecond)
	if got := src.reads.Load(); got != reads {
		t.Errorf("capture loop still reading after Run returned: %d -> %d reads", reads, got)
	}
}

func TestApp_InitFailsWithoutModel(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Path = "/nonexistent/pose.onnx"

	a := New(cfg)
	if err := a.Init(); err == nil {
		a.Shutdown()
		t.Fatal("Init() should fail when the model is missing")
	}
}

func TestApp_InitRejectsBadThresholds(t *testing.T) {
	cfg := config.Default()
	cfg.Trainer.Thresholds = map[string]exercise.Thresholds{"squat": {Contract: 120, Extend: 100}}

	a := New(cfg, WithEstimator(trainer.NewMockEstimator()))
	if err := a.Init(); err == nil {
		t.Fatal("Init() should reject inverted thresholds")
	}
}
