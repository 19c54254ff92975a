package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debug("should not appear")
	l.Info("also should not appear")
	l.Warn("visible warning")
	l.Error("visible error")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Fatalf("expected debug/info to be filtered, got: %s", out)
	}
	if !strings.Contains(out, "visible warning") || !strings.Contains(out, "visible error") {
		t.Fatalf("expected warn/error to be logged, got: %s", out)
	}
}

func TestNopLoggerDiscardsEverything(t *testing.T) {
	// Nop must satisfy Logger without panicking regardless of call shape.
	Nop.Debugf("x=%d", 1)
	Nop.Infof("x=%d", 1)
	Nop.Warnf("x=%d", 1)
	Nop.Errorf("x=%d", 1)
}
