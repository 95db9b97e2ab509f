// Package exercise counts repetitions of body exercises from per-frame pose landmarks.
//
// Each exercise is described by a Definition: which joint angle to measure, the two
// thresholds that bound its hysteresis band, and the feedback cues shown to the user.
// A Counter runs one Definition through a two-phase state machine and keeps the rep
// count, the current feedback text and a trailing-window rep rate.
package exercise

import "strings"

// Type identifies a tracked exercise.
type Type int

const (
	None Type = iota
	BicepCurl
	Squat
	LateralRaise
)

// Types lists every countable exercise (None excluded).
var Types = []Type{BicepCurl, Squat, LateralRaise}

// String returns the wire id used by the socket channel and REST API.
func (t Type) String() string {
	switch t {
	case BicepCurl:
		return "bicep"
	case Squat:
		return "squat"
	case LateralRaise:
		return "lateral"
	default:
		return "none"
	}
}

// DisplayName returns a human readable name for overlays.
func (t Type) DisplayName() string {
	switch t {
	case BicepCurl:
		return "Bicep Curl"
	case Squat:
		return "Squat"
	case LateralRaise:
		return "Lateral Raise"
	default:
		return "None"
	}
}

// Parse maps a wire id to a Type. Unrecognized ids map to None.
func Parse(id string) Type {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case "bicep":
		return BicepCurl
	case "squat":
		return Squat
	case "lateral":
		return LateralRaise
	default:
		return None
	}
}

// Phase is the position of the tracked joint relative to the thresholds.
type Phase int

const (
	// Up is the extended/resting position. Every counter starts here.
	Up Phase = iota
	// Down is the contracted position.
	Down
)

func (p Phase) String() string {
	switch p {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}
