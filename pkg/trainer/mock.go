package trainer

import (
	"sync"

	"github.com/teslashibe/go-trainer/pkg/pose"
	"gocv.io/x/gocv"
)

// MockEstimator implements Estimator for testing.
type MockEstimator struct {
	// EstimateFunc is called when Estimate is invoked.
	EstimateFunc func(frame gocv.Mat) (pose.Landmarks, error)

	mu    sync.Mutex
	calls int
}

// NewMockEstimator returns a mock that replays frames in order, then repeats the last one.
func NewMockEstimator(frames ...pose.Landmarks) *MockEstimator {
	m := &MockEstimator{}
	i := 0
	m.EstimateFunc = func(gocv.Mat) (pose.Landmarks, error) {
		if len(frames) == 0 {
			return pose.Landmarks{}, nil
		}
		lm := frames[i]
		if i < len(frames)-1 {
			i++
		}
		return lm, nil
	}
	return m
}

// Estimate calls EstimateFunc and records the call.
func (m *MockEstimator) Estimate(frame gocv.Mat) (pose.Landmarks, error) {
	m.mu.Lock()
	m.calls++
	fn := m.EstimateFunc
	m.mu.Unlock()

	if fn == nil {
		return pose.Landmarks{}, nil
	}
	return fn(frame)
}

// Calls returns the number of Estimate calls.
func (m *MockEstimator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
