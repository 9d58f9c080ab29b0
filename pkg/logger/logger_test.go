package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"menuscript/pkg/config"
	"menuscript/pkg/variant"
)

func TestLoggerJSONEntryShape(t *testing.T) {
	clearLoggingEnv(t)

	var out bytes.Buffer
	log, err := NewWriter(config.LoggingConfig{Format: "json", Level: "info"}, &out)
	if err != nil {
		t.Fatalf("NewWriter error: %v", err)
	}

	log.With("component", "session").Info("Operation failed",
		"operation", "remove 3",
		"applied", 2,
		"error", errors.New("not_found: no item at 3"),
		"state", variant.NewInt16(-42),
	)

	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry Entry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}

	if entry.Level != "info" {
		t.Fatalf("level = %q, want %q", entry.Level, "info")
	}
	if entry.Message != "Operation failed" {
		t.Fatalf("message = %q, want %q", entry.Message, "Operation failed")
	}
	if entry.Component != "session" {
		t.Fatalf("component = %q, want %q", entry.Component, "session")
	}
	if entry.Timestamp == "" {
		t.Fatal("expected timestamp")
	}
	if got := entry.Fields["operation"]; got != "remove 3" {
		t.Fatalf("fields.operation = %v, want %q", got, "remove 3")
	}
	if got := entry.Fields["applied"]; got != float64(2) {
		t.Fatalf("fields.applied = %v, want 2", got)
	}
	if got := entry.Fields["error"]; got != "not_found: no item at 3" {
		t.Fatalf("fields.error = %v, want error text", got)
	}
	if _, ok := entry.Fields["state"].(map[string]any); !ok {
		t.Fatalf("fields.state = %#v, want typed JSON object", entry.Fields["state"])
	}
}

func TestLoggerGroupsPrefixKeys(t *testing.T) {
	clearLoggingEnv(t)

	var out bytes.Buffer
	log, err := NewWriter(config.LoggingConfig{Format: "json"}, &out)
	if err != nil {
		t.Fatalf("NewWriter error: %v", err)
	}

	log.WithGroup("walk").Info("Walked", "steps", 3)

	var entry Entry
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}
	if got := entry.Fields["walk.steps"]; got != float64(3) {
		t.Fatalf("fields[walk.steps] = %v, want 3", got)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	clearLoggingEnv(t)

	var out bytes.Buffer
	log, err := NewWriter(config.LoggingConfig{Format: "json", Level: "error"}, &out)
	if err != nil {
		t.Fatalf("NewWriter error: %v", err)
	}

	log.Info("Ignored")
	if got := strings.TrimSpace(out.String()); got != "" {
		t.Fatalf("expected no output for info, got %q", got)
	}

	log.Error("Kept")
	if got := strings.TrimSpace(out.String()); got == "" {
		t.Fatal("expected output for error")
	}
}

func TestLoggerEnvironmentOverrides(t *testing.T) {
	clearLoggingEnv(t)
	t.Setenv(envLevel, "debug")
	t.Setenv(envFormat, "text")

	var out bytes.Buffer
	log, err := NewWriter(config.LoggingConfig{Format: "json", Level: "error"}, &out)
	if err != nil {
		t.Fatalf("NewWriter error: %v", err)
	}

	log.Debug("Debug enabled", "component", "test")
	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected debug output with env override")
	}
	if strings.HasPrefix(line, "{") {
		t.Fatalf("expected text format override, got %q", line)
	}
}

func TestLoggerDefaultsToTextFormat(t *testing.T) {
	clearLoggingEnv(t)

	var out bytes.Buffer
	log, err := NewWriter(config.LoggingConfig{}, &out)
	if err != nil {
		t.Fatalf("NewWriter error: %v", err)
	}

	log.Info("Default format")
	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected log output")
	}
	if strings.HasPrefix(line, "{") {
		t.Fatalf("expected text format by default, got %q", line)
	}
}

func TestLoggerRejectsUnknownSettings(t *testing.T) {
	clearLoggingEnv(t)

	if _, err := NewWriter(config.LoggingConfig{Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := NewWriter(config.LoggingConfig{Level: "verbose"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func clearLoggingEnv(t *testing.T) {
	t.Helper()
	t.Setenv(envLevel, "")
	t.Setenv(envFormat, "")
	t.Setenv(envAddSource, "")
}
