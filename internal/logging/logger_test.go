package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormatting(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(&consoleHandler{writer: &buf, level: levelVar})

	WithComponent(logger, "queue").Info("task stored",
		String("model", "lx2330"),
		Int("attempts", 1),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO queue: task stored") {
		t.Errorf("line missing component prefix: %q", line)
	}
	if !strings.Contains(line, "model=lx2330") || !strings.Contains(line, "attempts=1") {
		t.Errorf("line missing attrs: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&consoleHandler{writer: &buf, level: new(slog.LevelVar)})

	logger.Warn("upload failed", Error(errors.New("bucket not found")))

	if !strings.Contains(buf.String(), `error="bucket not found"`) {
		t.Errorf("expected quoted error value, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		" DEBUG ": slog.LevelDebug,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(nil, slog.LevelError) {
		t.Fatal("nop logger should report disabled")
	}
}
