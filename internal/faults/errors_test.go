package faults_test

import (
	"errors"
	"strings"
	"testing"

	"sortbot/internal/faults"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := faults.Wrap(faults.ErrConfiguration, "organizer", "check layout", "root nested in category", base)
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"organizer", "check layout", "root nested in category"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := faults.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, faults.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "organizer failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	if !faults.IsFatal(faults.Wrap(faults.ErrConfiguration, "config", "load", "bad", nil)) {
		t.Fatal("expected configuration error to be fatal")
	}
	if !faults.IsFatal(faults.Wrap(faults.ErrValidation, "config", "validate", "bad", nil)) {
		t.Fatal("expected validation error to be fatal")
	}
	if faults.IsFatal(faults.Wrap(faults.ErrTransient, "mover", "rename", "busy", nil)) {
		t.Fatal("expected transient error to be non-fatal")
	}
	if faults.IsFatal(nil) {
		t.Fatal("expected nil to be non-fatal")
	}
}
