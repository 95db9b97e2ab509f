package exercise

import (
	"fmt"

	"github.com/teslashibe/go-trainer/pkg/pose"
)

// Joint is a landmark triple; the angle is measured at B between the BA and BC segments.
type Joint struct {
	A, B, C pose.Keypoint
}

// Thresholds bound the hysteresis band of the state machine, in signal degrees.
type Thresholds struct {
	Contract float64 `json:"contract" yaml:"contract"` // Up -> Down when signal <= Contract
	Extend   float64 `json:"extend" yaml:"extend"`     // Down -> Up (rep) when signal >= Extend
}

// Validate checks that the thresholds form a non-empty dead zone within 0-180.
func (t Thresholds) Validate() error {
	if t.Contract < 0 || t.Extend > 180 {
		return fmt.Errorf("%w: contract=%.1f extend=%.1f outside 0-180", ErrInvalidThresholds, t.Contract, t.Extend)
	}
	if t.Contract >= t.Extend {
		return fmt.Errorf("%w: contract=%.1f must be below extend=%.1f", ErrInvalidThresholds, t.Contract, t.Extend)
	}
	return nil
}

// Cues are the feedback messages for each region of the band.
type Cues struct {
	Ready  string // Up, at or past Extend: start the next rep
	Deeper string // Up, inside the band: keep contracting
	Peak   string // Down, at or past Contract
	Extend string // Down, inside the band: return fully
}

// Definition is one row of the exercise table.
type Definition struct {
	Type       Type
	Joints     []Joint // candidate sides; the most confident one is used
	Thresholds Thresholds
	Invert     bool // signal = 180 - angle
	Cues       Cues
}

// Definitions maps each countable exercise to its definition.
type Definitions map[Type]Definition

// DefaultDefinitions returns the built-in exercise table.
//
// Lateral raise measures shoulder abduction (hip-shoulder-elbow), which grows as the
// arms rise. It is inverted so that the raised position sits at the low end of the
// signal like the contracted position of every other exercise.
func DefaultDefinitions() Definitions {
	return Definitions{
		BicepCurl: {
			Type: BicepCurl,
			Joints: []Joint{
				{pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist},
				{pose.RightShoulder, pose.RightElbow, pose.RightWrist},
			},
			Thresholds: Thresholds{Contract: 45, Extend: 160},
			Cues: Cues{
				Ready:  "Curl the weight up",
				Deeper: "Curl higher",
				Peak:   "Good squeeze",
				Extend: "Extend fully",
			},
		},
		Squat: {
			Type: Squat,
			Joints: []Joint{
				{pose.LeftHip, pose.LeftKnee, pose.LeftAnkle},
				{pose.RightHip, pose.RightKnee, pose.RightAnkle},
			},
			Thresholds: Thresholds{Contract: 90, Extend: 165},
			Cues: Cues{
				Ready:  "Squat down",
				Deeper: "Go lower",
				Peak:   "Good depth",
				Extend: "Stand up fully",
			},
		},
		LateralRaise: {
			Type: LateralRaise,
			Joints: []Joint{
				{pose.LeftHip, pose.LeftShoulder, pose.LeftElbow},
				{pose.RightHip, pose.RightShoulder, pose.RightElbow},
			},
			Thresholds: Thresholds{Contract: 100, Extend: 150},
			Invert:     true,
			Cues: Cues{
				Ready:  "Raise your arms",
				Deeper: "Raise to shoulder height",
				Peak:   "Good height",
				Extend: "Lower your arms",
			},
		},
	}
}

// Lookup returns the definition for t.
func (d Definitions) Lookup(t Type) (Definition, bool) {
	def, ok := d[t]
	return def, ok
}

// WithThresholds returns a copy of the table with the given thresholds applied.
// Types missing from overrides keep their current thresholds.
func (d Definitions) WithThresholds(overrides map[Type]Thresholds) (Definitions, error) {
	out := make(Definitions, len(d))
	for t, def := range d {
		if th, ok := overrides[t]; ok {
			if err := th.Validate(); err != nil {
				return nil, fmt.Errorf("%s: %w", t, err)
			}
			def.Thresholds = th
		}
		out[t] = def
	}
	return out, nil
}

// Validate checks every definition in the table.
func (d Definitions) Validate() error {
	for t, def := range d {
		if t == None {
			return fmt.Errorf("%w: none has no definition", ErrInvalidDefinition)
		}
		if def.Type != t {
			return fmt.Errorf("%w: %s keyed under %s", ErrInvalidDefinition, def.Type, t)
		}
		if len(def.Joints) == 0 {
			return fmt.Errorf("%w: %s has no joints", ErrInvalidDefinition, t)
		}
		if err := def.Thresholds.Validate(); err != nil {
			return fmt.Errorf("%s: %w", t, err)
		}
	}
	return nil
}
