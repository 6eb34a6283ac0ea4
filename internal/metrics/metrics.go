// Package metrics exposes organize outcomes as Prometheus metrics. A Metrics
// value is a report.Sink, so it observes exactly the events the log and the
// history ledger receive.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sortbot/internal/logging"
	"sortbot/internal/report"
)

const namespace = "sortbot"

// Metrics tracks outcome counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	outcomesTotal *prometheus.CounterVec
	moveAttempts  prometheus.Histogram
	lastOutcome   prometheus.Gauge
}

// New creates the collectors and registers them.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	outcomesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "organizer",
			Name:      "outcomes_total",
			Help:      "Terminal organize outcomes by status, category, and error kind.",
		},
		[]string{"status", "category", "error_kind"},
	)
	moveAttempts := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mover",
			Name:      "attempts",
			Help:      "Move attempts per file, including retries of locked files.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8},
		},
	)
	lastOutcome := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "organizer",
			Name:      "last_outcome_timestamp_seconds",
			Help:      "Unix time of the most recent terminal outcome.",
		},
	)

	registry.MustRegister(outcomesTotal, moveAttempts, lastOutcome)

	return &Metrics{
		registry:      registry,
		outcomesTotal: outcomesTotal,
		moveAttempts:  moveAttempts,
		lastOutcome:   lastOutcome,
	}
}

// Record implements report.Sink.
func (m *Metrics) Record(_ context.Context, event report.Event) error {
	m.outcomesTotal.WithLabelValues(event.Status, event.Category, event.ErrorKind).Inc()
	if event.Attempts > 0 {
		m.moveAttempts.Observe(float64(event.Attempts))
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	m.lastOutcome.Set(float64(ts.Unix()))
	return nil
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled. The listener is bound
// before Serve returns, so a bad address fails immediately.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) (net.Addr, <-chan error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	logger = logging.NewComponentLogger(logger, "metrics")
	logger.Info("serving metrics",
		logging.String(logging.FieldEventType, "metrics_listen"),
		logging.String("address", ln.Addr().String()),
	)

	done := make(chan error, 1)
	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		done <- err
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Debug("metrics shutdown", logging.Error(err))
		}
	}()
	return ln.Addr(), done, nil
}
