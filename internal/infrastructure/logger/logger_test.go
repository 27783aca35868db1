package logger

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestSetLevel(t *testing.T) {
	Setup()

	SetLevel("debug")
	if got := zerolog.GlobalLevel(); got != zerolog.DebugLevel {
		t.Errorf("level = %v, want debug", got)
	}

	SetLevel("WARN")
	if got := zerolog.GlobalLevel(); got != zerolog.WarnLevel {
		t.Errorf("mixed-case level = %v, want warn", got)
	}

	SetLevel("verbose")
	if got := zerolog.GlobalLevel(); got != zerolog.InfoLevel {
		t.Errorf("unknown level = %v, want info fallback", got)
	}

	SetLevel("")
	if got := zerolog.GlobalLevel(); got != zerolog.InfoLevel {
		t.Errorf("empty level = %v, want info fallback", got)
	}
}
