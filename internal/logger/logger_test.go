package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)
	log.Info().Str("key", "value").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"key":"value"`) || !strings.Contains(out, "hello") {
		t.Errorf("log output = %q", out)
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	ctx := WithContext(context.Background(), log)
	fromCtx := FromContext(ctx)
	fromCtx.Info().Msg("from context")

	if !strings.Contains(buf.String(), "from context") {
		t.Errorf("log output = %q", buf.String())
	}
}
