package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-xmlruntime/internal/infrastructure/config"
)

func TestNew_Outputs(t *testing.T) {
	tests := []struct {
		output               string
		wantStdout, wantErrs bool
	}{
		{output: "stdout", wantStdout: true},
		{output: "STDOUT", wantStdout: true},
		{output: "stderr", wantErrs: true},
		{output: "", wantErrs: true},
		{output: "discard"},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			logger := New(config.LoggingConfig{Level: "info", Format: "json", Output: tt.output}, "1.0.0", &stdout, &stderr)
			logger.Info("hello")

			if got := stdout.Len() > 0; got != tt.wantStdout {
				t.Errorf("stdout written = %v, want %v", got, tt.wantStdout)
			}
			if got := stderr.Len() > 0; got != tt.wantErrs {
				t.Errorf("stderr written = %v, want %v", got, tt.wantErrs)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{name: "debug level", input: "debug", expected: slog.LevelDebug},
		{name: "info level", input: "info", expected: slog.LevelInfo},
		{name: "warn level", input: "warn", expected: slog.LevelWarn},
		{name: "warning level", input: "warning", expected: slog.LevelWarn},
		{name: "error level", input: "error", expected: slog.LevelError},
		{name: "unknown defaults to info", input: "unknown", expected: slog.LevelInfo},
		{name: "empty defaults to info", input: "", expected: slog.LevelInfo},
		{name: "case insensitive", input: "DEBUG", expected: slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, "1.0.0", &buf)

	childLogger := logger.With("component", "loader")
	if childLogger == logger {
		t.Error("expected child logger to be different from parent")
	}

	childLogger.Info("loaded")
	if !strings.Contains(buf.String(), `"component":"loader"`) {
		t.Errorf("output %q missing component field", buf.String())
	}
}

func TestLogger_OutputContainsDefaultFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, "test", &buf)

	logger.Info("test message", "key", "value")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}

	want := map[string]string{
		"msg":     "test message",
		"key":     "value",
		"service": "xmlruntime",
		"version": "test",
	}
	for k, v := range want {
		if logEntry[k] != v {
			t.Errorf("%s = %v, want %q", k, logEntry[k], v)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "text"}, "test", &buf)

	logger.Debug("setting defined", "scope", "/callsign")
	if buf.Len() != 0 {
		t.Errorf("debug record written at info level: %q", buf.String())
	}

	logger = NewWithWriter(config.LoggingConfig{Level: "debug", Format: "text"}, "test", &buf)
	logger.Debug("setting defined", "scope", "/callsign")
	if !strings.Contains(buf.String(), "scope=/callsign") {
		t.Errorf("output %q missing debug record", buf.String())
	}
}
