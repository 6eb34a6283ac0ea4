package mover

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"sortbot/internal/fileutil"
	"sortbot/internal/logging"
)

const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = time.Second
)

// Sleeper blocks for d or until ctx is done, returning ctx.Err in the latter case.
type Sleeper func(ctx context.Context, d time.Duration) error

// Options configures a Mover.
type Options struct {
	// MaxRetries is the number of attempts after the first when the file is locked.
	MaxRetries int
	// InitialBackoff is the first retry delay; each later delay doubles.
	InitialBackoff time.Duration
	Sleep          Sleeper
	Logger         *slog.Logger
}

// DefaultOptions returns three retries at 1s, 2s and 4s.
func DefaultOptions() Options {
	return Options{MaxRetries: DefaultMaxRetries, InitialBackoff: DefaultInitialBackoff}
}

type fsOps struct {
	rename func(src, dst string) error
	copy   func(src, dst string) error
	remove func(path string) error
}

// Mover relocates files. It is safe for concurrent use; callers serialize
// moves into the same directory.
type Mover struct {
	maxRetries     int
	initialBackoff time.Duration
	sleep          Sleeper
	logger         *slog.Logger
	ops            fsOps
}

// New constructs a Mover.
func New(opts Options) *Mover {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialBackoff < 0 {
		opts.InitialBackoff = 0
	}
	if opts.Sleep == nil {
		opts.Sleep = SleepContext
	}
	return &Mover{
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
		sleep:          opts.Sleep,
		logger:         logging.NewComponentLogger(opts.Logger, "mover"),
		ops: fsOps{
			rename: renameNoReplace,
			copy:   fileutil.CopyFileVerified,
			remove: os.Remove,
		},
	}
}

// SleepContext waits for d unless ctx is done first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryState tracks progress through the locked-file backoff schedule.
type retryState struct {
	attempt int
	delay   time.Duration
}

func (s *retryState) exhausted(maxRetries int) bool {
	return s.attempt > maxRetries
}

func (s *retryState) advance() {
	s.delay *= 2
}

// Move relocates src to dst. dst must name a free entry in an existing
// directory. Only a locked file is retried; every other failure is terminal.
func (m *Mover) Move(ctx context.Context, src, dst string) Outcome {
	logger := logging.WithContext(ctx, m.logger)
	state := retryState{delay: m.initialBackoff}
	for {
		if err := ctx.Err(); err != nil {
			out := Failed(KindCancelled, describe(KindCancelled), err)
			out.Attempts = state.attempt
			return out
		}

		state.attempt++
		out := m.attempt(src, dst)
		out.Attempts = state.attempt
		if out.Kind != KindLocked || state.exhausted(m.maxRetries) {
			return out
		}

		logger.Info("file locked; retrying",
			logging.String(logging.FieldEventType, "move_retry"),
			logging.String(logging.FieldSourcePath, src),
			logging.Int(logging.FieldAttempts, state.attempt),
			logging.Any(logging.FieldBackoffSeconds, state.delay.Seconds()),
		)
		if err := m.sleep(ctx, state.delay); err != nil {
			out = Failed(KindCancelled, describe(KindCancelled), err)
			out.Attempts = state.attempt
			return out
		}
		state.advance()
	}
}

func (m *Mover) attempt(src, dst string) Outcome {
	if _, err := os.Lstat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Skipped(KindVanished, describe(KindVanished))
		}
		return failure(err, SideSource)
	}

	dir, err := os.Stat(filepath.Dir(dst))
	if err != nil {
		kind := Classify(err, SideDestination)
		return Failed(kind, describe(kind), err)
	}
	if !dir.IsDir() {
		return Failed(KindPathInvalid, "destination parent is not a directory", nil)
	}

	if _, err := os.Lstat(dst); err == nil {
		return Failed(KindDestinationAppeared, describe(KindDestinationAppeared), fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return failure(err, SideDestination)
	}

	err = m.ops.rename(src, dst)
	switch {
	case err == nil:
		return Moved(dst)
	case isCrossDevice(err):
		return m.copyAcross(src, dst)
	case errors.Is(err, fs.ErrNotExist):
		return m.missingDuring(src, err)
	default:
		return failure(err, SideDestination)
	}
}

// copyAcross moves between filesystems. The copy is removed again if the
// source cannot be removed, so a file is never left in both places.
func (m *Mover) copyAcross(src, dst string) Outcome {
	if err := m.ops.copy(src, dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m.missingDuring(src, err)
		}
		return failure(err, SideDestination)
	}
	if err := m.ops.remove(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Moved(dst)
		}
		if rmErr := m.ops.remove(dst); rmErr != nil {
			m.logger.Error("remove copy after failed source removal",
				logging.String(logging.FieldEventType, "copy_cleanup_failed"),
				logging.String(logging.FieldDestination, dst),
				logging.Error(rmErr),
			)
		}
		return failure(err, SideSource)
	}
	return Moved(dst)
}

// missingDuring distinguishes a source that vanished mid-move from a
// destination component that disappeared.
func (m *Mover) missingDuring(src string, err error) Outcome {
	if _, statErr := os.Lstat(src); errors.Is(statErr, fs.ErrNotExist) {
		return Skipped(KindVanished, describe(KindVanished))
	}
	return Failed(KindPathInvalid, describe(KindPathInvalid), err)
}

func failure(err error, side Side) Outcome {
	kind := Classify(err, side)
	if kind == KindVanished {
		return Skipped(kind, describe(kind))
	}
	return Failed(kind, describe(kind), err)
}
