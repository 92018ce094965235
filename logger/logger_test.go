package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	l := New(&Config{Level: "invalid-level", Format: "json"}, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNewFromEnv(t *testing.T) {
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	defer os.Unsetenv("LOG_LEVEL")
	defer os.Unsetenv("LOG_FORMAT")

	if l := NewFromEnv("env-svc"); l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("failed to decode log line %q: %v", line, err)
	}
	return m
}

func TestWithComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug", "svc").WithComponent("httpclient")

	l.Info("call finished", Fields(FieldStatusCode, 200, FieldMethod, "GET"))

	m := decodeLine(t, &buf)
	if m[FieldComponent] != "httpclient" {
		t.Errorf("expected component httpclient, got %v", m[FieldComponent])
	}
	if m[FieldMethod] != "GET" {
		t.Errorf("expected method GET, got %v", m[FieldMethod])
	}
	if m[FieldStatusCode] != float64(200) {
		t.Errorf("expected status 200, got %v", m[FieldStatusCode])
	}
	if m["service"] != "svc" {
		t.Errorf("expected service svc, got %v", m["service"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn", "")
	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn output, got %q", buf.String())
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "info", "").WithError(fmt.Errorf("boom")).Error("failed")
	m := decodeLine(t, &buf)
	if m["error"] != "boom" {
		t.Errorf("expected error boom, got %v", m["error"])
	}
}

func TestNop(t *testing.T) {
	Nop().Error("nothing should happen")
}

func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(NewWithWriter(&buf, "info", ""))
	Info("global message")
	if !strings.Contains(buf.String(), "global message") {
		t.Errorf("expected global message, got %q", buf.String())
	}
}

func TestFieldsHelpers(t *testing.T) {
	f := Fields("a", 1, "b")
	if len(f) != 1 || f["a"] != 1 {
		t.Errorf("unexpected fields %v", f)
	}
	ef := ErrorFields("generate", fmt.Errorf("x"))
	if ef[FieldOperation] != "generate" || ef[FieldError] != "x" {
		t.Errorf("unexpected error fields %v", ef)
	}
	m := MergeWithDuration(nil, 1500*time.Millisecond)
	if m[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", m[FieldDuration])
	}
	m = MergeWithError(m, fmt.Errorf("y"))
	if m[FieldError] != "y" {
		t.Errorf("expected error y, got %v", m[FieldError])
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected stderr default, got %q", cfg.Output)
	}
	bad := Config{Level: "loud", Format: "json"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for invalid level")
	}
}
