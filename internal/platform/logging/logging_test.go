package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	t.Parallel()

	l, err := New("production", "warn")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) || !l.Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("expected warn level logger")
	}

	if _, err := New("development", "chatty"); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

func TestOrNop(t *testing.T) {
	t.Parallel()

	if OrNop(nil) == nil {
		t.Fatalf("OrNop(nil) returned nil")
	}
}
