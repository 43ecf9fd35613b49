package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{" warning ", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"loud", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("JSON") != FormatJSON {
		t.Error("JSON not recognized")
	}
	if ParseFormat("pretty") != FormatConsole {
		t.Error("unknown format should fall back to console")
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", FormatJSON)

	log.Infow("Hidden")
	log.Warnw("Dropping property", "key", "input")
	_ = log.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if entry["msg"] != "Dropping property" || entry["level"] != "WARN" || entry["key"] != "input" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", FormatConsole)
	log.Debugw("Loaded", "scope", "dialog")
	_ = log.Sync()

	out := buf.String()
	if !strings.Contains(out, " | DEBUG | ") || !strings.Contains(out, "Loaded") {
		t.Errorf("output = %q", out)
	}
}
