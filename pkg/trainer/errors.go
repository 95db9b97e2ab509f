package trainer

import "errors"

var (
	// ErrEstimatorFailure wraps any error returned by the pose estimator.
	// The frame is returned unannotated and no counter changes.
	ErrEstimatorFailure = errors.New("trainer: pose estimator failed")

	// ErrUnsupportedExercise is reported when the active exercise has no definition.
	// The frame is processed as if no exercise were active.
	ErrUnsupportedExercise = errors.New("trainer: exercise has no definition")
)
