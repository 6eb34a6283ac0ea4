package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"sortbot/internal/config"
	"sortbot/internal/destination"
	"sortbot/internal/faults"
	"sortbot/internal/history"
	"sortbot/internal/instance"
	"sortbot/internal/logging"
	"sortbot/internal/metrics"
	"sortbot/internal/mover"
	"sortbot/internal/organizer"
	"sortbot/internal/report"
	"sortbot/internal/watcher"
)

// CurrentLogName is the pointer in the log directory that tracks the newest run log.
const CurrentLogName = "sortbot.log"

// Options configures one CLI run.
type Options struct {
	// Root overrides the configured root when set.
	Root string
	// LogLevel overrides the configured level when set.
	LogLevel string
	// LogFile overrides the per-run log file; "-" disables file output.
	LogFile string
	// Output receives console log records. Defaults to stderr.
	Output io.Writer
	// Sleep replaces the mover's backoff sleeper.
	Sleep mover.Sleeper
	// Sink receives outcome events in addition to the log and history sinks.
	Sink report.Sink
	// Watch marks a long-running watch run. Outcome metrics are collected
	// only for watch runs, since /metrics is served from Watch.
	Watch bool
}

// Session owns the resources of one organize or watch run: the logger, the
// single-instance lock, the history ledger, and the organizer.
type Session struct {
	RunID     string
	Root      string
	LogPath   string
	Config    *config.Config
	Logger    *slog.Logger
	Organizer *organizer.Organizer
	History   *history.Store
	// Metrics is set for watch runs when metrics.listen is configured.
	Metrics *metrics.Metrics

	lock *instance.Lock
}

// Open prepares a run against cfg. The returned session holds the root lock
// until Close. Configuration problems wrap faults.ErrConfiguration.
func Open(cfg *config.Config, opts Options) (*Session, error) {
	if cfg == nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "session", "open", "config is required", nil)
	}
	local := *cfg
	if root := strings.TrimSpace(opts.Root); root != "" {
		expanded, err := config.ExpandPath(root)
		if err != nil {
			return nil, faults.Wrap(faults.ErrConfiguration, "session", "open", "resolve root", err)
		}
		local.Paths.Root = expanded
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		local.Logging.Level = level
	}
	if err := local.EnsureDirectories(); err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "session", "open", "prepare directories", err)
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	runID := uuid.NewString()
	logPath, err := resolveLogPath(&local, runID, opts.LogFile)
	if err != nil {
		return nil, err
	}
	fileArg := logPath
	if fileArg == "" {
		fileArg = "-"
	}
	logger, err := logging.NewFromConfig(&local, out, runID, fileArg)
	if err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "session", "open", "init logger", err)
	}

	if logPath != "" && filepath.Dir(logPath) == local.Paths.LogDir {
		if err := updateLogPointer(local.Paths.LogDir, logPath); err != nil {
			logging.WarnWithContext(logger, "log pointer update failed", "log_pointer_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, CurrentLogName+" may point at an older run"),
			)
		}
	}
	logging.CleanupOldLogs(logger, local.Paths.LogDir, local.Logging.RetentionDays, logPath)

	s := &Session{
		RunID:   runID,
		Root:    local.Paths.Root,
		LogPath: logPath,
		Config:  &local,
		Logger:  logger,
	}
	if err := s.wire(opts); err != nil {
		_ = s.Close()
		logger.Error("startup failed",
			logging.String(logging.FieldEventType, "startup_failed"),
			logging.Error(err),
		)
		return nil, err
	}
	s.logStartup()
	return s, nil
}

func (s *Session) wire(opts Options) error {
	cfg := s.Config
	lock, err := instance.Acquire(cfg.LockDir(), s.Root)
	if err != nil {
		return err
	}
	s.lock = lock

	categorizer, err := cfg.Categorizer()
	if err != nil {
		return faults.Wrap(faults.ErrConfiguration, "session", "open", "build categorizer", err)
	}

	sinks := []report.Sink{report.NewLogSink(s.Logger)}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			return faults.Wrap(faults.ErrConfiguration, "session", "open", "open history", err)
		}
		s.History = store
		sinks = append(sinks, store)
	}
	if opts.Watch && strings.TrimSpace(cfg.Metrics.Listen) != "" {
		s.Metrics = metrics.New()
		sinks = append(sinks, s.Metrics)
	}
	if opts.Sink != nil {
		sinks = append(sinks, opts.Sink)
	}

	org, err := organizer.New(organizer.Options{
		Root:        s.Root,
		Categorizer: categorizer,
		Resolver:    destination.NewResolver(),
		Locks:       destination.NewLocks(),
		Mover: mover.New(mover.Options{
			MaxRetries:     cfg.Mover.MaxRetries,
			InitialBackoff: cfg.InitialBackoff(),
			Sleep:          opts.Sleep,
			Logger:         s.Logger,
		}),
		Sink:    report.Multi(sinks...),
		Ignore:  cfg.Organize.Ignore,
		Workers: cfg.Organize.Workers,
		Logger:  s.Logger,
	})
	if err != nil {
		return err
	}
	if err := org.CheckLayout(cfg.Paths.LogDir, s.LogPath, cfg.HistoryPath(), cfg.LockDir()); err != nil {
		return err
	}
	s.Organizer = org
	return nil
}

// Context annotates ctx with the run identifier and root.
func (s *Session) Context(ctx context.Context) context.Context {
	return faults.WithRoot(faults.WithRunID(ctx, s.RunID), s.Root)
}

// OrganizeAll runs one batch pass over the root.
func (s *Session) OrganizeAll(ctx context.Context) (organizer.Summary, error) {
	ctx = s.Context(ctx)
	summary, err := s.Organizer.OrganizeAll(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.WithContext(ctx, s.Logger).Error("batch organize failed",
			logging.String(logging.FieldEventType, "organize_batch_failed"),
			logging.Error(err),
		)
	}
	return summary, err
}

// WatchOptions configures Watch.
type WatchOptions struct {
	// InitialScan organizes files already present before watching.
	InitialScan bool
	// Source replaces the fsnotify source.
	Source watcher.Source
}

// Watch organizes new files as they settle until ctx is cancelled. When
// metrics are configured, /metrics is served for the duration of the watch.
func (s *Session) Watch(ctx context.Context, opts WatchOptions) error {
	ctx = s.Context(ctx)
	if s.Metrics != nil {
		serveCtx, stopServing := context.WithCancel(ctx)
		_, done, err := s.Metrics.Serve(serveCtx, s.Config.Metrics.Listen, s.Logger)
		if err != nil {
			stopServing()
			return faults.Wrap(faults.ErrConfiguration, "session", "watch", "serve metrics", err)
		}
		defer func() {
			stopServing()
			if err := <-done; err != nil {
				s.Logger.Warn("metrics server failed",
					logging.String(logging.FieldEventType, "metrics_failed"),
					logging.Error(err),
				)
			}
		}()
	}
	if opts.InitialScan {
		if _, err := s.OrganizeAll(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}

	source := opts.Source
	if source == nil {
		fsSource, err := watcher.NewFSNotifySource(s.Root)
		if err != nil {
			return err
		}
		source = fsSource
	}
	w, err := watcher.New(s.Root, source, func(ctx context.Context, path string) {
		s.Organizer.OrganizeOne(ctx, path)
	}, watcher.Options{
		Debounce:   s.Config.DebounceWindow(),
		Categories: s.Organizer.Categorizer().Labels(),
		Logger:     s.Logger,
	})
	if err != nil {
		_ = source.Close()
		return err
	}
	return w.Run(ctx)
}

// Close releases the history ledger and the root lock. It is safe to call more than once.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.History != nil {
		if err := s.History.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close history: %w", err))
		}
		s.History = nil
	}
	if s.lock != nil {
		if err := s.lock.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release lock: %w", err))
		}
		s.lock = nil
	}
	return errors.Join(errs...)
}

func (s *Session) logStartup() {
	cfg := s.Config
	s.Logger.Info("sortbot starting",
		logging.String(logging.FieldEventType, "startup"),
		logging.String(logging.FieldRunID, s.RunID),
		logging.String(logging.FieldRoot, s.Root),
		logging.Int("categories", len(s.Organizer.Categorizer().Labels())),
		logging.Int("workers", cfg.Organize.Workers),
		logging.Duration("debounce", cfg.DebounceWindow()),
		logging.Int("max_retries", cfg.Mover.MaxRetries),
		logging.Bool("history_enabled", s.History != nil),
		logging.String("log_path", s.LogPath),
	)
}

func resolveLogPath(cfg *config.Config, runID, override string) (string, error) {
	override = strings.TrimSpace(override)
	switch {
	case override == "-":
		return "", nil
	case override != "":
		expanded, err := config.ExpandPath(override)
		if err != nil {
			return "", faults.Wrap(faults.ErrConfiguration, "session", "open", "resolve log file", err)
		}
		return expanded, nil
	case cfg.Paths.LogDir == "":
		return "", nil
	default:
		return logging.RunLogPath(cfg.Paths.LogDir, runID), nil
	}
}

func updateLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, CurrentLogName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}
