package logger

import "testing"

func TestSetup(t *testing.T) {
	if err := Setup("", ""); err != nil {
		t.Fatalf("Expected defaults to be accepted, got %v", err)
	}
	if err := Setup("debug", "UTC"); err != nil {
		t.Fatalf("Expected valid settings, got %v", err)
	}
	if err := Setup("loud", ""); err == nil {
		t.Error("Expected error for unknown level")
	}
	if err := Setup("", "Mars/Olympus"); err == nil {
		t.Error("Expected error for unknown time zone")
	}
	Setup("info", "")
}

func TestFor(t *testing.T) {
	l := For("Buffer")
	if l.GetPrefix() != "Buffer" {
		t.Errorf("Expected prefix 'Buffer', got %q", l.GetPrefix())
	}
}
