package trainer

import (
	"fmt"

	"github.com/teslashibe/go-trainer/pkg/exercise"
	"github.com/teslashibe/go-trainer/pkg/pose"
	"gocv.io/x/gocv"
)

// Estimator maps a BGR frame to one person's landmarks.
type Estimator interface {
	Estimate(frame gocv.Mat) (pose.Landmarks, error)
}

// Renderer draws the overlay onto a frame in place.
type Renderer interface {
	DrawPose(frame *gocv.Mat, lm pose.Landmarks)
	DrawStats(frame *gocv.Mat, st Stats)
}

// Processor runs the per-frame pipeline against a session.
type Processor struct {
	session   *Session
	estimator Estimator
	renderer  Renderer
}

// NewProcessor creates a processor. renderer may be nil to skip drawing.
func NewProcessor(session *Session, estimator Estimator, renderer Renderer) *Processor {
	return &Processor{
		session:   session,
		estimator: estimator,
		renderer:  renderer,
	}
}

// Session returns the session the processor updates.
func (p *Processor) Session() *Session {
	return p.session
}

// ProcessFrame estimates the pose, draws the overlay and, when an exercise is
// active, updates that exercise's counter. The frame is annotated in place and
// returned.
//
// If the estimator fails the frame is returned untouched with an error wrapping
// ErrEstimatorFailure; no counter changes. Low-confidence frames are not errors.
func (p *Processor) ProcessFrame(frame gocv.Mat) (gocv.Mat, error) {
	active := p.session.Active()

	lm, err := p.estimator.Estimate(frame)
	if err != nil {
		p.session.notifySkipped(active, ErrEstimatorFailure)
		return frame, fmt.Errorf("%w: %v", ErrEstimatorFailure, err)
	}

	if p.renderer != nil {
		p.renderer.DrawPose(&frame, lm)
	}

	if active == exercise.None {
		return frame, nil
	}

	st, ok := p.session.observe(active, lm)
	if ok && p.renderer != nil {
		p.renderer.DrawStats(&frame, st)
	}
	return frame, nil
}
