package exercise

import "math"

// Feedback messages that do not depend on the exercise.
const (
	NeutralFeedback = "Keep going"
	RepFeedback     = "Good rep!"
)

// Feedback returns the cue for the current phase and signal. It never fails:
// unknown phases, out-of-range signals and empty cues fall back to NeutralFeedback.
func Feedback(def Definition, phase Phase, signal float64) string {
	if math.IsNaN(signal) || signal < 0 || signal > 180 {
		return NeutralFeedback
	}

	th := def.Thresholds
	var msg string
	switch phase {
	case Up:
		if signal >= th.Extend {
			msg = def.Cues.Ready
		} else {
			msg = def.Cues.Deeper
		}
	case Down:
		if signal <= th.Contract {
			msg = def.Cues.Peak
		} else {
			msg = def.Cues.Extend
		}
	}

	if msg == "" {
		return NeutralFeedback
	}
	return msg
}
