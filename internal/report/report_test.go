package report_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sortbot/internal/faults"
	"sortbot/internal/logging"
	"sortbot/internal/report"
)

func TestLogSinkRendersEvent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", Output: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	sink := report.NewLogSink(logger)

	ctx := faults.WithRunID(context.Background(), "run-7")
	err = sink.Record(ctx, report.Event{
		Timestamp:  time.Now(),
		Level:      report.LevelError,
		SourcePath: "/in/a.pdf",
		Category:   "Documents",
		Status:     "failed",
		ErrorKind:  "locked",
		Attempts:   4,
		Message:    "file stayed locked",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		`"level":"error"`,
		`"msg":"file stayed locked"`,
		`"component":"organizer"`,
		`"run_id":"run-7"`,
		`"event_type":"organize_failed"`,
		`"error_kind":"locked"`,
		`"attempts":4`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
	if strings.Contains(out, "destination_path") {
		t.Errorf("empty destination should be omitted: %s", out)
	}
}

func TestMultiCallsEverySink(t *testing.T) {
	var first, second report.Recorder
	boom := errors.New("boom")
	failing := report.SinkFunc(func(context.Context, report.Event) error { return boom })

	sink := report.Multi(&first, nil, failing, &second)
	err := sink.Record(context.Background(), report.Event{SourcePath: "/in/x"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(first.Events()) != 1 || len(second.Events()) != 1 {
		t.Fatalf("expected each recorder to see one event: %d %d", len(first.Events()), len(second.Events()))
	}
}

func TestMultiSingleSinkUnwrapped(t *testing.T) {
	var rec report.Recorder
	if got := report.Multi(nil, &rec); got != report.Sink(&rec) {
		t.Fatalf("expected single sink returned directly, got %T", got)
	}
}

func TestLevelSlog(t *testing.T) {
	if report.LevelWarn.Slog().String() != "WARN" || report.Level("").Slog().String() != "INFO" {
		t.Fatal("unexpected level mapping")
	}
}
