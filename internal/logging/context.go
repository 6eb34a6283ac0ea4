package logging

import (
	"context"
	"log/slog"

	"sortbot/internal/faults"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID correlates every record emitted by one organize or watch invocation.
	FieldRunID = "run_id"
	// FieldRoot is the directory being organized.
	FieldRoot = "root"
	// FieldEventType is a stable machine-readable name for the logged event.
	FieldEventType = "event_type"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact         = "impact"
	FieldSourcePath     = "source_path"
	FieldCategory       = "category"
	FieldDestination    = "destination_path"
	FieldErrorKind      = "error_kind"
	FieldAttempts       = "attempts"
	FieldOutcomeReason  = "reason"
	FieldOutcomeStatus  = "status"
	FieldBackoffSeconds = "backoff_seconds"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := faults.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if root, ok := faults.RootFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRoot, root))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
