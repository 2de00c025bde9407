package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLoggerWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "json", "info")

	logger.Info("session_started", "port", 9000)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "session_started" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["port"] != float64(9000) {
		t.Errorf("port = %v", entry["port"])
	}
}

func TestNewLoggerWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "text", "warn")

	logger.Info("suppressed")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("info line emitted at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn line missing")
	}
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tc := range testCases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestStderrHandler_Buffer(t *testing.T) {
	logger := NewLoggerWithWriter(&bytes.Buffer{}, "text", "debug")
	h := NewStderrHandler(logger, false)

	h.HandleLine("first")
	h.HandleLine("second")

	lines := h.RecentLines()
	if len(lines) != 2 || lines[0] != "first" || lines[1] != "second" {
		t.Errorf("RecentLines = %v", lines)
	}
}

func TestStderrHandler_RingWraps(t *testing.T) {
	logger := NewLoggerWithWriter(&bytes.Buffer{}, "text", "debug")
	h := NewStderrHandler(logger, false)

	for i := 0; i < MaxBufferedLines+10; i++ {
		h.HandleLine(strings.Repeat("x", 1) + string(rune('a'+i%26)))
	}

	lines := h.RecentLines()
	if len(lines) != MaxBufferedLines {
		t.Fatalf("len = %d, want %d", len(lines), MaxBufferedLines)
	}
}

func TestStderrHandler_WarnOnError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "text", "info")
	h := NewStderrHandler(logger, false)

	h.HandleLine("14:05:59.382914!W:SRT.cn: connection timed out")

	if !strings.Contains(buf.String(), "receiver_stderr") {
		t.Error("SRT warning line not logged")
	}
}
