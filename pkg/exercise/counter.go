package exercise

import (
	"time"

	"github.com/teslashibe/go-trainer/pkg/pose"
)

// State is a point-in-time copy of a Counter.
type State struct {
	Type     Type    `json:"exercise"`
	Phase    Phase   `json:"-"`
	Count    int     `json:"reps"`
	Feedback string  `json:"feedback"`
	Rate     float64 `json:"rate"`
	Signal   float64 `json:"signal"` // last usable signal, degrees
}

// Counter is the per-exercise repetition state machine.
// It is not safe for concurrent use; the owner serializes access.
type Counter struct {
	def        Definition
	phase      Phase
	count      int
	feedback   string
	lastSignal float64
	rate       *RateWindow
}

// NewCounter creates a counter in the Up phase.
func NewCounter(def Definition, window time.Duration) *Counter {
	return &Counter{
		def:      def,
		phase:    Up,
		feedback: NeutralFeedback,
		rate:     NewRateWindow(window),
	}
}

// Observe extracts the signal from lm and feeds it to Update. A frame with
// low-confidence landmarks returns ErrLowConfidence and changes nothing.
func (c *Counter) Observe(lm pose.Landmarks, minVisibility float64, now time.Time) (bool, error) {
	signal, err := Signal(c.def, lm, minVisibility)
	if err != nil {
		return false, err
	}
	return c.Update(signal, now), nil
}

// Update advances the state machine with one signal reading and reports whether
// a rep was credited on this reading.
func (c *Counter) Update(signal float64, now time.Time) bool {
	th := c.def.Thresholds
	repped := false

	switch c.phase {
	case Up:
		if signal <= th.Contract {
			c.phase = Down
		}
	case Down:
		if signal >= th.Extend {
			c.phase = Up
			c.count++
			c.rate.Record(now)
			repped = true
		}
	}

	c.lastSignal = signal
	if repped {
		c.feedback = RepFeedback
	} else {
		c.feedback = Feedback(c.def, c.phase, signal)
	}
	c.rate.prune(now)
	return repped
}

// Phase returns the current phase.
func (c *Counter) Phase() Phase {
	return c.phase
}

// Count returns the number of credited reps.
func (c *Counter) Count() int {
	return c.count
}

// Feedback returns the current feedback text.
func (c *Counter) Feedback() string {
	return c.feedback
}

// RepRate returns reps per minute over the trailing window ending at now.
func (c *Counter) RepRate(now time.Time) float64 {
	return c.rate.Rate(now)
}

// Snapshot returns a copy of the counter state as of now.
func (c *Counter) Snapshot(now time.Time) State {
	return State{
		Type:     c.def.Type,
		Phase:    c.phase,
		Count:    c.count,
		Feedback: c.feedback,
		Rate:     c.rate.Rate(now),
		Signal:   c.lastSignal,
	}
}

// Reset returns the counter to its initial state.
func (c *Counter) Reset() {
	c.phase = Up
	c.count = 0
	c.feedback = NeutralFeedback
	c.lastSignal = 0
	c.rate.Reset()
}
