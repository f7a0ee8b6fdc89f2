package logger

import "testing"

func TestNewParsesLevel(t *testing.T) {
	log, err := New("warn")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if log.Core().Enabled(-1) {
		t.Errorf("Expected debug to be disabled at warn level")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud"); err == nil {
		t.Errorf("Expected error for unknown level")
	}
}

func TestNamedNilBase(t *testing.T) {
	if Named(nil, "svc") == nil {
		t.Errorf("Expected a nop logger for nil base")
	}
}
