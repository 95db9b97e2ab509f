package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewStatsMessage creates a stats_update message
func NewStatsMessage(reps int, feedback string, rate float64) (*Message, error) {
	return NewMessage(TypeStatsUpdate, StatsData{
		Reps:     reps,
		Feedback: feedback,
		Rate:     FormatRate(rate),
	})
}

// NewExerciseChangedMessage creates an exercise_changed message
func NewExerciseChangedMessage(exercise string) (*Message, error) {
	return NewMessage(TypeExerciseChanged, ExerciseData{Exercise: exercise})
}

// NewSetExerciseMessage creates a set_exercise message
func NewSetExerciseMessage(exercise string) (*Message, error) {
	return NewMessage(TypeSetExercise, ExerciseData{Exercise: exercise})
}

// NewResetMessage creates a reset message
func NewResetMessage(exercise string) (*Message, error) {
	return NewMessage(TypeReset, ExerciseData{Exercise: exercise})
}

// NewErrorMessage creates an error message
func NewErrorMessage(format string, args ...interface{}) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Message: fmt.Sprintf(format, args...)})
}

// NewPongMessage creates a pong response
func NewPongMessage(pingTS int64) (*Message, error) {
	now := time.Now().UnixMilli()
	return NewMessage(TypePong, PongData{
		PingTS:    pingTS,
		PongTS:    now,
		LatencyMs: now - pingTS,
	})
}

// FormatRate renders reps per minute with one decimal place.
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.1f", rate)
}

// =============================================================================
// Helper functions for parsing message data
// =============================================================================

// GetExerciseData extracts the exercise id from set_exercise, reset or
// exercise_changed. A bare JSON string payload ("bicep") is also accepted.
func (m *Message) GetExerciseData() (*ExerciseData, error) {
	var data ExerciseData
	if len(m.Data) == 0 {
		return &data, nil
	}
	if err := json.Unmarshal(m.Data, &data); err == nil {
		return &data, nil
	}

	var id string
	if err := json.Unmarshal(m.Data, &id); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", m.Type, err)
	}
	data.Exercise = id
	return &data, nil
}

// GetStatsData extracts stats data from a stats_update message
func (m *Message) GetStatsData() (*StatsData, error) {
	var data StatsData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
