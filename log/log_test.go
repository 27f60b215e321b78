package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// newTestLogger returns a Logger that writes JSON into buf.
func newTestLogger(buf *bytes.Buffer, level slog.Level) *Logger {
	h := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level})
	return NewWithHandler(h)
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v (raw: %s)", err, buf.String())
	}
	return entry
}

func TestLogger_ModuleAndWith(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, slog.LevelDebug)
	l.Module("registry").With("registry", "provider").Info("staked", "amount", 7)

	entry := decodeEntry(t, &buf)
	if entry["module"] != "registry" || entry["registry"] != "provider" {
		t.Fatalf("context attrs missing: %v", entry)
	}
	if entry["msg"] != "staked" {
		t.Fatalf("msg = %v", entry["msg"])
	}
	// slog renders numbers as float64 in JSON.
	if v, ok := entry["amount"].(float64); !ok || v != 7 {
		t.Fatalf("amount = %v", entry["amount"])
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		level  slog.Level
		logFn  func(l *Logger)
		expect bool
	}{
		{slog.LevelInfo, func(l *Logger) { l.Debug("nope") }, false},
		{slog.LevelInfo, func(l *Logger) { l.Info("yes") }, true},
		{slog.LevelWarn, func(l *Logger) { l.Info("nope") }, false},
		{slog.LevelWarn, func(l *Logger) { l.Error("yes") }, true},
	}
	for i, tt := range tests {
		var buf bytes.Buffer
		tt.logFn(newTestLogger(&buf, tt.level))
		if got := buf.Len() > 0; got != tt.expect {
			t.Errorf("test %d: output=%v, want %v", i, got, tt.expect)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"4":     slog.LevelDebug,
		"1":     slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("ParseLevel accepted an unknown level")
	}
}

func TestSetupTextFormat(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	var buf bytes.Buffer
	l, err := Setup(Config{Level: "warn", Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if Default() != l {
		t.Fatal("Setup did not install the default logger")
	}
	Info("hidden")
	Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line leaked at warn level: %s", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "k=v") {
		t.Fatalf("unexpected text output: %s", out)
	}
}

func TestSetupRejectsBadConfig(t *testing.T) {
	if _, err := Setup(Config{Format: "xml"}); err == nil {
		t.Fatal("Setup accepted unknown format")
	}
	if _, err := Setup(Config{Level: "chatty"}); err == nil {
		t.Fatal("Setup accepted unknown level")
	}
}

func TestDefaultLogger(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}
	var buf bytes.Buffer
	l := newTestLogger(&buf, slog.LevelDebug)
	SetDefault(l)
	defer SetDefault(New(slog.LevelInfo))

	Debug("d")
	Error("e")
	if out := buf.String(); !strings.Contains(out, `"msg":"d"`) || !strings.Contains(out, `"msg":"e"`) {
		t.Fatalf("package-level functions bypassed default: %s", out)
	}

	SetDefault(nil)
	if Default() != l {
		t.Fatal("SetDefault(nil) replaced the logger")
	}
}
