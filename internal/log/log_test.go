package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	t.Setenv("GO_ENV", "")
	var buf bytes.Buffer
	l := New(&buf, "info", "json")

	l.Debug("hidden")
	l.Info("rep counted", "exercise", "squat", "count", 3)

	var rec map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "rep counted" || rec["exercise"] != "squat" || rec["count"] != float64(3) {
		t.Errorf("record = %v", rec)
	}
}

func TestNew_TextAndProductionOverride(t *testing.T) {
	t.Setenv("GO_ENV", "")
	var buf bytes.Buffer
	New(&buf, "debug", "text").Debug("frame", "n", 1)
	if !strings.Contains(buf.String(), "msg=frame") {
		t.Errorf("text output = %q", buf.String())
	}

	t.Setenv("GO_ENV", "production")
	buf.Reset()
	New(&buf, "info", "text").Info("started")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("production output should be JSON, got %q", buf.String())
	}
}

func TestWithAddsAttributes(t *testing.T) {
	Init("info", "text")
	if With("component", "camera") == nil {
		t.Fatal("With returned nil")
	}
	if L() == nil {
		t.Fatal("L returned nil")
	}
}
