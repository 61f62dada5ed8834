package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestWithContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	ctx := WithContext(context.Background(), log)
	ctxLog := FromContext(ctx)
	ctxLog.Info().Str("stage", "normalize").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"stage":"normalize"`) || !strings.Contains(out, "hello") {
		t.Fatalf("context logger did not write to the attached writer: %q", out)
	}
}

func TestFromContextWithoutLogger(t *testing.T) {
	// Must not panic; falls back to a default logger.
	log := FromContext(context.Background())
	log.Debug().Msg("fallback")
}

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"debug", "debug"},
		{"warn", "warn"},
		{"error", "error"},
		{"", "info"},
		{"nonsense", "info"},
	}
	for _, tt := range tests {
		t.Setenv("KAVACH_LOG_LEVEL", tt.value)
		if got := levelFromEnv().String(); got != tt.want {
			t.Errorf("levelFromEnv() with %q = %q, want %q", tt.value, got, tt.want)
		}
	}
}
