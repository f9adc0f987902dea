package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLogger_RespectsLevelThreshold(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelWarn, &buf)

	l.Debug(context.Background(), "should not appear")
	l.Info(context.Background(), "should not appear either")
	l.Warn(context.Background(), "this one shows")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Fatalf("expected messages below threshold to be suppressed, got %q", out)
	}
	if !strings.Contains(out, "this one shows") {
		t.Fatalf("expected warn message to be logged, got %q", out)
	}
}

func TestLogger_IncludesErrorAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug, &buf)

	l.Error(context.Background(), errors.New("boom"), "something failed", map[string]interface{}{"symbol": "SOL"})

	out := buf.String()
	if !strings.Contains(out, "boom") {
		t.Fatalf("expected error text in output, got %q", out)
	}
	if !strings.Contains(out, "SOL") {
		t.Fatalf("expected field value in output, got %q", out)
	}
}

func TestLogger_SetLevelChangesThreshold(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelError, &buf)

	l.Info(context.Background(), "suppressed")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing logged at Error threshold, got %q", buf.String())
	}

	l.SetLevel(LevelInfo)
	l.Info(context.Background(), "now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Fatalf("expected message after lowering threshold, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"Error":   LevelError,
		"bogus":   LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
