package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func newBuffered(t *testing.T, level, format string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: format, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestLogger_Levels(t *testing.T) {
	l, buf := newBuffered(t, "debug", "json")
	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("save completed", "target", "save_slot_0.sav")
			entry := decode(t, buf)
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["target"] != "save_slot_0.sav" {
				t.Errorf("target = %v", entry["target"])
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := newBuffered(t, "warn", "json")
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %s", buf.String())
	}
	l.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("warn not logged")
	}

	SetLevel("debug")
	if GetLevel() != "debug" {
		t.Errorf("GetLevel() = %s, want debug", GetLevel())
	}
	SetLevel("info")
}

func TestLogger_Slog(t *testing.T) {
	l, buf := newBuffered(t, "info", "json")
	l.Slog().With("component", "persist").Info("load failed", "signing_key", "s3cr3t")
	entry := decode(t, buf)
	if entry["component"] != "persist" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["signing_key"] != redactedValue {
		t.Errorf("signing_key = %v, want redacted", entry["signing_key"])
	}
}

func TestLogger_TextFormat(t *testing.T) {
	l, buf := newBuffered(t, "info", "text")
	l.With("slot", 1).Info("saved")
	out := buf.String()
	if !strings.Contains(out, "msg=saved") || !strings.Contains(out, "slot=1") {
		t.Fatalf("text output = %q", out)
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Fatal("New() should reject an unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]string{
		"debug": "DEBUG", "INFO": "INFO", "warning": "WARN", "error": "ERROR", "bogus": "INFO",
	} {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestContext_RunID(t *testing.T) {
	l, buf := newBuffered(t, "info", "json")
	ctx := WithRunID(WithLogger(context.Background(), l), "01HZX")
	if RunIDFromContext(ctx) != "01HZX" {
		t.Fatalf("RunIDFromContext = %q", RunIDFromContext(ctx))
	}
	L(ctx).Info("tick")
	if entry := decode(t, buf); entry["run_id"] != "01HZX" {
		t.Errorf("run_id = %v", entry["run_id"])
	}

	if FromContext(context.Background()) != Default() {
		t.Errorf("FromContext without logger should return Default()")
	}
	if RunIDFromContext(context.Background()) != "" {
		t.Errorf("expected empty run id")
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"key", "hex:00112233445566778899", "hex:001...899"},
		{"key", "base64:QUJD", "base64:***"},
		{"hmac_key", "plain", redactedValue},
		{"seed", "1234", "1234"},
		{"private_key", "", ""},
		{"target", "autosave_1.sav", "autosave_1.sav"},
	}
	l, buf := newBuffered(t, "info", "json")
	for _, tt := range tests {
		buf.Reset()
		l.Info("x", tt.key, tt.value)
		if got := decode(t, buf)[tt.key]; got != tt.want {
			t.Errorf("%s=%q logged as %v, want %q", tt.key, tt.value, got, tt.want)
		}
	}

	if RedactString("hex:abcdefabcdef") != "hex:abc...def" {
		t.Errorf("RedactString = %q", RedactString("hex:abcdefabcdef"))
	}
	if !IsSensitiveValue("base64:xx") || IsSensitiveValue("autosave") {
		t.Errorf("IsSensitiveValue mismatch")
	}
	if !IsSensitiveKey("Signing_Key") || IsSensitiveKey("slot") {
		t.Errorf("IsSensitiveKey mismatch")
	}
}
