// Package protocol defines the websocket messages exchanged between the trainer
// and browser clients on the stats channel.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Client → Server messages
	TypeSetExercise MessageType = "set_exercise" // Switch the active exercise
	TypeReset       MessageType = "reset"        // Zero an exercise counter

	// Server → Client messages
	TypeStatsUpdate     MessageType = "stats_update"     // Active exercise stats, once per frame
	TypeExerciseChanged MessageType = "exercise_changed" // Active exercise was switched
	TypeError           MessageType = "error"            // Request could not be handled

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Client → Server Message Types
// =============================================================================

// ExerciseData names an exercise by wire id ("bicep", "squat", "lateral", "none").
// It is the payload of set_exercise, reset and exercise_changed.
type ExerciseData struct {
	Exercise string `json:"exercise"`
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// StatsData is the stats_update payload. Rate is preformatted with one decimal.
type StatsData struct {
	Reps     int    `json:"reps"`
	Feedback string `json:"feedback"`
	Rate     string `json:"rate"`
}

// ErrorData describes a rejected client request.
type ErrorData struct {
	Message string `json:"message"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PongData contains pong response
type PongData struct {
	PingTS    int64 `json:"ping_ts"`
	PongTS    int64 `json:"pong_ts"`
	LatencyMs int64 `json:"latency_ms"`
}
