package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claude/liftlog/internal/config"
)

// TestLevel verifies level name parsing.
func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := Level(tt.in); got != tt.want {
			t.Errorf("Level(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestNewJSON verifies the JSON handler and level filtering.
func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, closer := New(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	defer closer.Close()

	log.Info("hidden")
	log.Warn("shown", "sets", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["msg"] != "shown" || rec["sets"] != float64(3) {
		t.Errorf("record = %v", rec)
	}
}

// TestNewFile verifies that records are tee'd to the log file.
func TestNewFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "liftlog.log")
	log, closer := New(config.LogConfig{Level: "info", Format: "text", File: path, MaxSizeMB: 1}, &buf)

	log.Info("session closed", "user_id", 1)
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "session closed") || !strings.Contains(buf.String(), "session closed") {
		t.Errorf("file = %q, stdout = %q", data, buf.String())
	}
}
