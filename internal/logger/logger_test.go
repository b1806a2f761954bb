package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	log.Info().Str("key", "value").Msg("test message")

	out := buf.String()
	if !strings.Contains(out, "test message") {
		t.Errorf("expected log output to contain message, got: %s", out)
	}
	if !strings.Contains(out, "value") {
		t.Errorf("expected log output to contain field value, got: %s", out)
	}
}

func TestWithContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	ctx := WithContext(context.Background(), log)
	got := FromContext(ctx)

	got.Info().Msg("from context")
	if !strings.Contains(buf.String(), "from context") {
		t.Errorf("logger from context did not write to original writer")
	}
}

func TestForChat(t *testing.T) {
	var buf bytes.Buffer
	log := ForChat(NewWithWriter(&buf), "123456")

	log.Info().Msg("hello")
	if !strings.Contains(buf.String(), "123456") {
		t.Errorf("expected chat_id field in output, got: %s", buf.String())
	}
}
