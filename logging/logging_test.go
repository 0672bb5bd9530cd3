package logging

import (
	"strings"
	"testing"
)

func TestLoggerWritesToDest(t *testing.T) {
	SetLogLevel("info")
	var sb strings.Builder
	logger := NewWithDest(&sb, "test")

	logger.Infof("hello %s", "world")

	if !strings.Contains(sb.String(), "hello world") {
		t.Errorf("expected log output to contain %q, got: %q", "hello world", sb.String())
	}
}

func TestLogLevelFilters(t *testing.T) {
	SetLogLevel("error")
	var sb strings.Builder
	logger := NewWithDest(&sb, "test")

	logger.Info("should not appear")

	if sb.Len() != 0 {
		t.Errorf("expected no output below the error level, got: %q", sb.String())
	}
}

func BenchmarkLogger(b *testing.B) {
	SetLogLevel("error")
	logger := New("test")

	for i := 0; i < b.N; i++ {
		logger.Info("test")
	}
}
