package logging

import (
	"log/slog"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatLog(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		msg  string
		want string
	}{
		{"plain message gets tag", "QUEUE", "entry enqueued", "[QUEUE] entry enqueued"},
		{"already tagged", "QUEUE", "[TTS] synthesis done", "[TTS] synthesis done"},
		{"empty tag", "", "hello", "hello"},
		{"whitespace trimmed", " TTS ", " done ", "[TTS] done"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatLog(tt.tag, tt.msg); got != tt.want {
				t.Errorf("FormatLog(%q, %q) = %q, want %q", tt.tag, tt.msg, got, tt.want)
			}
		})
	}
}

func TestNewAndClose(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Config{Level: "debug", Dir: dir, Filename: "server.log"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	logger.InfoTag("QUEUE", "processed %d entries", 3)
	logger.Debug("plain debug line")

	if err := logger.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}

	if _, err := filepath.Glob(filepath.Join(dir, "server.log")); err != nil {
		t.Errorf("log file missing: %v", err)
	}
}
