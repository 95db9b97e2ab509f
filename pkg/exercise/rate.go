package exercise

import (
	"sort"
	"time"
)

// DefaultRateWindow is the trailing window used for reps-per-minute.
const DefaultRateWindow = 60 * time.Second

// RateWindow keeps rep timestamps inside a trailing window.
// Timestamps are appended in time order, so pruning is a prefix trim.
type RateWindow struct {
	window time.Duration
	times  []time.Time
}

// NewRateWindow creates a window. Non-positive durations use DefaultRateWindow.
func NewRateWindow(window time.Duration) *RateWindow {
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &RateWindow{window: window}
}

// Window returns the window length.
func (w *RateWindow) Window() time.Duration {
	return w.window
}

// Record appends a rep time and drops everything older than the window.
func (w *RateWindow) Record(t time.Time) {
	w.times = append(w.times, t)
	w.prune(t)
}

// Rate returns reps per minute over the window ending at now.
// It does not modify the window, so concurrent readers are safe as long as
// no writer runs at the same time.
func (w *RateWindow) Rate(now time.Time) float64 {
	n := len(w.times) - w.expired(now)
	if n <= 0 {
		return 0
	}
	return float64(n) * (60 / w.window.Seconds())
}

// Len returns the number of timestamps currently held.
func (w *RateWindow) Len() int {
	return len(w.times)
}

// Timestamps returns a copy of the held timestamps, oldest first.
func (w *RateWindow) Timestamps() []time.Time {
	out := make([]time.Time, len(w.times))
	copy(out, w.times)
	return out
}

// Reset drops all timestamps.
func (w *RateWindow) Reset() {
	w.times = w.times[:0]
}

// expired returns how many leading timestamps fall before the window ending at now.
func (w *RateWindow) expired(now time.Time) int {
	cutoff := now.Add(-w.window)
	return sort.Search(len(w.times), func(i int) bool {
		return !w.times[i].Before(cutoff)
	})
}

func (w *RateWindow) prune(now time.Time) {
	if i := w.expired(now); i > 0 {
		w.times = append(w.times[:0], w.times[i:]...)
	}
}
