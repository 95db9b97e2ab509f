package exercise

import "errors"

var (
	// ErrLowConfidence is returned when no candidate joint has every landmark
	// visible above the minimum confidence. The frame must not change state.
	ErrLowConfidence = errors.New("exercise: landmarks below visibility threshold")

	// ErrInvalidThresholds is returned for thresholds without a hysteresis band.
	ErrInvalidThresholds = errors.New("exercise: invalid thresholds")

	// ErrInvalidDefinition is returned for malformed exercise table rows.
	ErrInvalidDefinition = errors.New("exercise: invalid definition")
)
