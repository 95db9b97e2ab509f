package metrics

import (
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/teslashibe/go-trainer/pkg/exercise"
	"github.com/teslashibe/go-trainer/pkg/trainer"
)

var _ trainer.Observer = (*Metrics)(nil)

func TestFrameSkipped_Classifies(t *testing.T) {
	m := New()

	m.FrameSkipped(exercise.BicepCurl, fmt.Errorf("%w: boom", trainer.ErrEstimatorFailure))
	m.FrameSkipped(exercise.BicepCurl, exercise.ErrLowConfidence)
	m.FrameSkipped(exercise.BicepCurl, exercise.ErrLowConfidence)
	m.FrameSkipped(exercise.Squat, trainer.ErrUnsupportedExercise)

	if got := m.EstimatorFailures.Load(); got != 1 {
		t.Errorf("EstimatorFailures = %d, want 1", got)
	}
	if got := m.LowConfidenceFrames.Load(); got != 2 {
		t.Errorf("LowConfidenceFrames = %d, want 2", got)
	}
	if got := m.UnsupportedFrames.Load(); got != 1 {
		t.Errorf("UnsupportedFrames = %d, want 1", got)
	}
}

func TestRepCompleted(t *testing.T) {
	m := New()
	m.RepCompleted(exercise.Squat, 1)
	m.RepCompleted(exercise.Squat, 2)
	m.RepCompleted(exercise.BicepCurl, 1)

	if got := testutil.ToFloat64(m.reps.WithLabelValues("squat")); got != 2 {
		t.Errorf("squat reps = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.reps.WithLabelValues("bicep")); got != 1 {
		t.Errorf("bicep reps = %v, want 1", got)
	}
}

func TestHandler_Exposes(t *testing.T) {
	m := New()
	m.FramesRead.Add(3)
	m.RepCompleted(exercise.LateralRaise, 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"trainer_frames_read_total 3",
		`trainer_reps_total{exercise="lateral"} 1`,
		"trainer_socket_clients 0",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
