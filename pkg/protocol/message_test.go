package protocol

import (
	"encoding/json"
	"testing"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "stats message",
			msgType: TypeStatsUpdate,
			data:    StatsData{Reps: 3, Feedback: "Good rep!", Rate: "3.0"},
		},
		{
			name:    "set exercise",
			msgType: TypeSetExercise,
			data:    ExerciseData{Exercise: "squat"},
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
		},
		{
			name:    "unmarshalable data",
			msgType: TypeStatsUpdate,
			data:    make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestNewStatsMessage_Wire(t *testing.T) {
	msg, err := NewStatsMessage(7, "Go lower", 4.25)
	if err != nil {
		t.Fatalf("NewStatsMessage() error = %v", err)
	}
	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	var wire struct {
		Type string `json:"type"`
		Data struct {
			Reps     int    `json:"reps"`
			Feedback string `json:"feedback"`
			Rate     string `json:"rate"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if wire.Type != "stats_update" {
		t.Errorf("type = %q, want stats_update", wire.Type)
	}
	if wire.Data.Reps != 7 || wire.Data.Feedback != "Go lower" {
		t.Errorf("data = %+v", wire.Data)
	}
	if wire.Data.Rate != "4.2" && wire.Data.Rate != "4.3" {
		t.Errorf("rate = %q, want one decimal", wire.Data.Rate)
	}
}

func TestGetExerciseData(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"object payload", `{"type":"set_exercise","data":{"exercise":"bicep"}}`, "bicep", false},
		{"string payload", `{"type":"set_exercise","data":"lateral"}`, "lateral", false},
		{"no payload", `{"type":"reset"}`, "", false},
		{"number payload", `{"type":"set_exercise","data":42}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage([]byte(tt.raw))
			if err != nil {
				t.Fatalf("ParseMessage() error = %v", err)
			}
			data, err := msg.GetExerciseData()
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetExerciseData() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && data.Exercise != tt.want {
				t.Errorf("Exercise = %q, want %q", data.Exercise, tt.want)
			}
		})
	}
}

func TestParseMessage_Invalid(t *testing.T) {
	for _, raw := range []string{`not json`, `{"data":{}}`, `[]`} {
		if _, err := ParseMessage([]byte(raw)); err == nil {
			t.Errorf("ParseMessage(%q) should fail", raw)
		}
	}
}

func TestNewPongMessage(t *testing.T) {
	msg, err := NewPongMessage(1000)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}
	pong, err := msg.GetPongData()
	if err != nil {
		t.Fatalf("GetPongData() error = %v", err)
	}
	if pong.PingTS != 1000 || pong.PongTS <= pong.PingTS {
		t.Errorf("pong = %+v", pong)
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{0, "0.0"},
		{12, "12.0"},
		{2.96, "3.0"},
	}
	for _, tt := range tests {
		if got := FormatRate(tt.rate); got != tt.want {
			t.Errorf("FormatRate(%v) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}
