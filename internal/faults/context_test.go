package faults_test

import (
	"context"
	"testing"

	"sortbot/internal/faults"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = faults.WithRunID(ctx, "run-123")
	ctx = faults.WithRoot(ctx, "/tmp/downloads")

	if id, ok := faults.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if root, ok := faults.RootFromContext(ctx); !ok || root != "/tmp/downloads" {
		t.Fatalf("unexpected root: %v %v", root, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = faults.WithRunID(ctx, "")
	ctx = faults.WithRoot(ctx, "")
	if _, ok := faults.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := faults.RootFromContext(ctx); ok {
		t.Fatal("expected no root value")
	}
}
