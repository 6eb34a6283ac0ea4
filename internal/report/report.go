package report

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"sortbot/internal/logging"
)

// Level ranks an Event for rendering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Slog maps the level onto slog.
func (l Level) Slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Event describes one terminal outcome for one source path.
type Event struct {
	Timestamp       time.Time
	Level           Level
	SourcePath      string
	Category        string
	DestinationPath string
	Status          string
	ErrorKind       string
	Attempts        int
	Message         string
}

// Sink receives every terminal Event. Implementations must be safe for
// concurrent use; Record errors are reported by the caller and never change
// the outcome of a move.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Record(ctx context.Context, event Event) error { return f(ctx, event) }

type logSink struct {
	logger *slog.Logger
}

// NewLogSink renders events as structured log records.
func NewLogSink(logger *slog.Logger) Sink {
	return &logSink{logger: logging.NewComponentLogger(logger, "organizer")}
}

func (s *logSink) Record(ctx context.Context, event Event) error {
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "organize_"+event.Status),
		logging.String(logging.FieldSourcePath, event.SourcePath),
	}
	if event.Category != "" {
		attrs = append(attrs, logging.String(logging.FieldCategory, event.Category))
	}
	if event.DestinationPath != "" {
		attrs = append(attrs, logging.String(logging.FieldDestination, event.DestinationPath))
	}
	if event.ErrorKind != "" {
		attrs = append(attrs, logging.String(logging.FieldErrorKind, event.ErrorKind))
	}
	if event.Attempts > 1 {
		attrs = append(attrs, logging.Int(logging.FieldAttempts, event.Attempts))
	}
	logging.WithContext(ctx, s.logger).LogAttrs(ctx, event.Level.Slog(), event.Message, attrs...)
	return nil
}

type multiSink []Sink

// Multi fans an Event out to every non-nil sink. All sinks are called; the
// returned error joins their failures.
func Multi(sinks ...Sink) Sink {
	filtered := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return filtered
}

func (m multiSink) Record(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps events in memory. It backs tests and the batch summary.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Record(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
