package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{" warn ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.WarnLevel},
		{"verbose", zerolog.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInitWritesJSONAtLevel(t *testing.T) {
	t.Cleanup(func() { Init(Config{Level: zerolog.WarnLevel}) })

	var buf bytes.Buffer
	Init(Config{Level: zerolog.InfoLevel, Output: &buf})

	Debug().Msg("hidden")
	Info().Str("pane", "%3").Msg("created")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["message"] != "created" || entry["pane"] != "%3" || entry["level"] != "info" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestInitPretty(t *testing.T) {
	t.Cleanup(func() { Init(Config{Level: zerolog.WarnLevel}) })

	var buf bytes.Buffer
	Init(Config{Level: zerolog.WarnLevel, Output: &buf, Pretty: true})
	Warn().Str("pane", "%3").Msg("kill-pane failed")

	out := buf.String()
	if strings.HasPrefix(out, "{") || !strings.Contains(out, "kill-pane failed") {
		t.Errorf("expected console output, got %q", out)
	}
}
