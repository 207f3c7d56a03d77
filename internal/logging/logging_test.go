package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLevel(t *testing.T) {
	if got := New("debug").GetLevel(); got != logrus.DebugLevel {
		t.Fatalf("expected debug, got %s", got)
	}
	if got := New("nonsense").GetLevel(); got != logrus.InfoLevel {
		t.Fatalf("expected fallback to info, got %s", got)
	}
}
