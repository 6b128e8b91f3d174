package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInitTestEnvironmentIsSilenced(t *testing.T) {
	Init("test")

	log := Get()
	if log == nil {
		t.Fatal("expected a logger")
	}
	if log.Desugar().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected the test logger to discard entries")
	}

	// Sync on a nop logger must not fail.
	Sync()
}
