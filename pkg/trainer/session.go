// Package trainer owns the workout session and runs the per-frame pipeline:
// pose estimation, skeleton overlay and repetition counting.
package trainer

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-trainer/pkg/exercise"
	"github.com/teslashibe/go-trainer/pkg/pose"
)

// DefaultMinVisibility is the landmark confidence below which a frame is unusable.
const DefaultMinVisibility = 0.5

// Stats is what the presentation layer reads after each frame.
type Stats struct {
	Exercise exercise.Type `json:"-"`
	ID       string        `json:"exercise"`
	Reps     int           `json:"reps"`
	Feedback string        `json:"feedback"`
	Rate     float64       `json:"rate"`
}

// Observer receives per-frame outcomes. Metrics implement it.
type Observer interface {
	FrameProcessed(t exercise.Type)
	FrameSkipped(t exercise.Type, reason error)
	RepCompleted(t exercise.Type, count int)
}

// SessionConfig holds tunables for a session.
type SessionConfig struct {
	Definitions   exercise.Definitions
	MinVisibility float64
	RateWindow    time.Duration
}

// DefaultSessionConfig returns the built-in exercise table with default cutoffs.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Definitions:   exercise.DefaultDefinitions(),
		MinVisibility: DefaultMinVisibility,
		RateWindow:    exercise.DefaultRateWindow,
	}
}

// Session is the process-wide workout state shared by every viewer.
//
// One counter per exercise type is created up front and lives as long as the
// session. Only the frame pipeline mutates counters; readers get snapshots.
type Session struct {
	id            string
	minVisibility float64
	defs          exercise.Definitions

	mu       sync.RWMutex
	counters map[exercise.Type]*exercise.Counter

	active atomic.Int32

	observer Observer
	logger   *slog.Logger

	// Now is the session clock. Tests replace it.
	Now func() time.Time
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithObserver registers an observer for frame outcomes.
func WithObserver(o Observer) SessionOption {
	return func(s *Session) { s.observer = o }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithClock sets the session clock.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.Now = now }
}

// NewSession creates a session with a counter for every defined exercise.
func NewSession(cfg SessionConfig, opts ...SessionOption) (*Session, error) {
	if cfg.Definitions == nil {
		cfg.Definitions = exercise.DefaultDefinitions()
	}
	if err := cfg.Definitions.Validate(); err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}
	if cfg.MinVisibility < 0 || cfg.MinVisibility > 1 {
		return nil, fmt.Errorf("trainer: min visibility %.2f outside 0-1", cfg.MinVisibility)
	}

	s := &Session{
		id:            uuid.NewString(),
		minVisibility: cfg.MinVisibility,
		defs:          cfg.Definitions,
		counters:      make(map[exercise.Type]*exercise.Counter, len(cfg.Definitions)),
		logger:        slog.Default(),
		Now:           time.Now,
	}
	for t, def := range cfg.Definitions {
		s.counters[t] = exercise.NewCounter(def, cfg.RateWindow)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Active returns the exercise currently receiving frames.
func (s *Session) Active() exercise.Type {
	return exercise.Type(s.active.Load())
}

// SetActive switches the exercise receiving frames. Other counters are untouched.
func (s *Session) SetActive(t exercise.Type) {
	prev := exercise.Type(s.active.Swap(int32(t)))
	if prev != t {
		s.logger.Info("exercise changed", "from", prev.String(), "to", t.String())
	}
}

// SetActiveExercise maps a wire id (bicep, squat, lateral, none) to an exercise and
// activates it. Unrecognized ids select None.
func (s *Session) SetActiveExercise(id string) exercise.Type {
	t := exercise.Parse(id)
	s.SetActive(t)
	return t
}

// Observe feeds one frame's landmarks to the active exercise and returns its stats.
// ok is false when no exercise is active or the exercise has no definition.
func (s *Session) Observe(lm pose.Landmarks) (Stats, bool) {
	return s.observe(s.Active(), lm)
}

func (s *Session) observe(t exercise.Type, lm pose.Landmarks) (Stats, bool) {
	if t == exercise.None {
		return Stats{}, false
	}

	s.mu.Lock()
	c, ok := s.counters[t]
	if !ok {
		s.mu.Unlock()
		s.notifySkipped(t, ErrUnsupportedExercise)
		return Stats{}, false
	}

	now := s.Now()
	repped, err := c.Observe(lm, s.minVisibility, now)
	snap := c.Snapshot(now)
	s.mu.Unlock()

	switch {
	case err != nil:
		s.notifySkipped(t, err)
	case repped:
		s.logger.Debug("rep completed", "exercise", t.String(), "count", snap.Count)
		if s.observer != nil {
			s.observer.RepCompleted(t, snap.Count)
		}
	}
	if err == nil && s.observer != nil {
		s.observer.FrameProcessed(t)
	}
	return statsFrom(snap), true
}

func (s *Session) notifySkipped(t exercise.Type, reason error) {
	if s.observer != nil {
		s.observer.FrameSkipped(t, reason)
	}
}

// Stats returns the active exercise's stats. ok is false when None is active.
func (s *Session) Stats() (Stats, bool) {
	return s.StatsFor(s.Active())
}

// StatsFor returns the stats of any exercise.
func (s *Session) StatsFor(t exercise.Type) (Stats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.counters[t]
	if !ok {
		return Stats{}, false
	}
	return statsFrom(c.Snapshot(s.Now())), true
}

// AllStats returns stats for every exercise, in exercise.Types order.
func (s *Session) AllStats() []Stats {
	out := make([]Stats, 0, len(exercise.Types))
	for _, t := range exercise.Types {
		if st, ok := s.StatsFor(t); ok {
			out = append(out, st)
		}
	}
	return out
}

// Reset zeroes one exercise's counter.
func (s *Session) Reset(t exercise.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[t]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedExercise, t)
	}
	c.Reset()
	s.logger.Info("counter reset", "exercise", t.String())
	return nil
}

func statsFrom(st exercise.State) Stats {
	return Stats{
		Exercise: st.Type,
		ID:       st.Type.String(),
		Reps:     st.Count,
		Feedback: st.Feedback,
		Rate:     st.Rate,
	}
}
