package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNewInvalidLevel(t *testing.T) {
	cfg := &Config{
		Level:  "invalid-level",
		Format: "json",
		Output: "stdout",
	}
	l := New(cfg, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestJSONOutputCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "json"}, "iotmarket", &buf)

	l.WithComponent("bootstrap").Info("port resolved", Fields("port", 3000, FieldSource, "default"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["message"] != "port resolved" {
		t.Errorf("unexpected message %v", entry["message"])
	}
	if entry[FieldComponent] != "bootstrap" {
		t.Errorf("expected component=bootstrap, got %v", entry[FieldComponent])
	}
	if entry[FieldService] != "iotmarket" {
		t.Errorf("expected service=iotmarket, got %v", entry[FieldService])
	}
	if entry["port"] != float64(3000) {
		t.Errorf("expected port=3000, got %v", entry["port"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "warn", Format: "json"}, "svc", &buf)

	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected warn output, got %q", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	l := New(&Config{Level: "info", Format: "console"}, "test")
	cl := l.WithComponent("handler")
	if cl == nil {
		t.Fatal("expected non-nil logger")
	}
	if cl.service != "test" {
		t.Errorf("service should be preserved, got %q", cl.service)
	}
}

func TestWithContextRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "json"}, "svc", &buf)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	l.WithContext(ctx).Info("handled")

	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Errorf("expected request id in output, got %q", buf.String())
	}

	if got := l.WithContext(context.Background()); got != l {
		t.Error("expected the same logger when context carries no request id")
	}
}

func TestRequestIDFromContext(t *testing.T) {
	if _, ok := RequestIDFromContext(context.Background()); ok {
		t.Error("expected no request id on empty context")
	}
	ctx := ContextWithRequestID(context.Background(), "abc")
	id, ok := RequestIDFromContext(ctx)
	if !ok || id != "abc" {
		t.Errorf("expected abc, got %q (ok=%v)", id, ok)
	}
}

func TestWithFieldsAndError(t *testing.T) {
	l := New(&Config{Level: "info", Format: "console"}, "test")
	if l.WithFields(map[string]interface{}{"key": "value"}) == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.WithError(nil) == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestInit(t *testing.T) {
	Init(&Config{Level: "info", Format: "console", Output: "stdout", ServiceName: "iotmarket"})
	gl := GetGlobalLogger()
	if gl == nil {
		t.Fatal("expected global logger to be set after Init")
	}
	if gl.service != "iotmarket" {
		t.Errorf("expected service iotmarket, got %q", gl.service)
	}
}

func TestGetGlobalLoggerDefault(t *testing.T) {
	globalLogger = nil
	if GetGlobalLogger() == nil {
		t.Fatal("expected default global logger to be created")
	}
}

func TestSetGlobalLogger(t *testing.T) {
	l := New(&Config{Level: "info", Format: "json"}, "custom")
	SetGlobalLogger(l)
	if GetGlobalLogger() != l {
		t.Error("expected SetGlobalLogger to set the global logger")
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	Init(&Config{Level: "debug", Format: "console", Output: "stdout"})
	// These should not panic
	Debug("debug msg")
	Info("info msg")
	Warn("warn msg")
	Error("error msg")
	WithComponent("x").Info("component msg")
}

func TestNop(t *testing.T) {
	Nop().Error("discarded", Fields("k", "v"))
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got %q", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected format 'console', got %q", cfg.Format)
	}
	if cfg.Output != "stdout" {
		t.Errorf("expected output 'stdout', got %q", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected Timestamp to be true")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json"}, false},
		{"valid console", Config{Level: "debug", Format: "console"}, false},
		{"invalid level", Config{Level: "bad", Format: "json"}, true},
		{"invalid format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFieldsHelpers(t *testing.T) {
	f := Fields("a", 1, "b")
	if len(f) != 1 || f["a"] != 1 {
		t.Errorf("unexpected fields %v", f)
	}

	ef := ErrorFields("boot", os.ErrNotExist)
	if ef[FieldOperation] != "boot" || ef[FieldError] == "" {
		t.Errorf("unexpected error fields %v", ef)
	}

	df := DurationFields("boot", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", df[FieldDuration])
	}
}

func TestLevelTag(t *testing.T) {
	if got := levelTag("INFO", true); got != "[INF]" {
		t.Errorf("expected [INF], got %q", got)
	}
	if got := levelTag("TRACE", true); got != "[TRACE]" {
		t.Errorf("expected [TRACE], got %q", got)
	}
	if got := levelTag("ERROR", false); !strings.Contains(got, "[ERR]") {
		t.Errorf("expected colored [ERR], got %q", got)
	}
}
