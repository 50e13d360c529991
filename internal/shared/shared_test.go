package shared

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name    string
		seconds int
		want    string
	}{
		{name: "zero", seconds: 0, want: "0:00"},
		{name: "under a minute", seconds: 45, want: "0:45"},
		{name: "minutes and seconds", seconds: 225, want: "3:45"},
		{name: "long track", seconds: 3671, want: "61:11"},
		{name: "negative clamps to zero", seconds: -5, want: "0:00"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatDuration(tt.seconds)
			if got != tt.want {
				t.Errorf("FormatDuration(%d) = %v, want %v", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestOutputMode(t *testing.T) {
	tc := []struct {
		name     string
		jsonFlag bool
		wantTUI  bool
		want     OutputMode
	}{
		{name: "json wins", jsonFlag: true, wantTUI: true, want: ModeJSON},
		{name: "plain by default", jsonFlag: false, wantTUI: false, want: ModePlain},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectOutputMode(tt.jsonFlag, tt.wantTUI)
			if got != tt.want {
				t.Errorf("DetectOutputMode(%v, %v) = %v, want %v", tt.jsonFlag, tt.wantTUI, got, tt.want)
			}
		})
	}

	if ModeTUI.String() != "tui" || ModePlain.String() != "plain" || ModeJSON.String() != "json" {
		t.Error("OutputMode String() mismatch")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected log output to contain message, got %q", buf.String())
	}

	if NewLogger(nil) == nil {
		t.Error("nil writer should fall back to stderr logger")
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nutune.log")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error: %v", err)
	}
	logger.Info("to file")
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique IDs")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string length 36, got %d", len(a))
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"tracks": 9}

	compact, err := MarshalJSON(v, false)
	if err != nil {
		t.Fatalf("MarshalJSON() error: %v", err)
	}
	if strings.Contains(string(compact), "\n") {
		t.Error("compact output should be single-line")
	}

	pretty, err := MarshalJSON(v, true)
	if err != nil {
		t.Fatalf("MarshalJSON() error: %v", err)
	}
	if !strings.Contains(string(pretty), "\n") {
		t.Error("pretty output should be indented")
	}
}
