package watcher

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"sortbot/internal/faults"
	"sortbot/internal/logging"
)

// DefaultDebounce is the quiet period a path must observe before dispatch.
const DefaultDebounce = time.Second

// ErrSourceClosed is returned by Run when the Source closes its event channel
// before the watcher was stopped.
var ErrSourceClosed = errors.New("event source closed")

// Dispatch organizes one settled path. It runs in its own goroutine and must
// not call Stop.
type Dispatch func(ctx context.Context, path string)

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet window; zero dispatches on the next timer tick.
	Debounce time.Duration
	// Categories are the top-level directories under root that hold organized files.
	Categories []string
	Logger     *slog.Logger
}

// pending is the debounce entry for one path. gen identifies the most recent
// schedule; a fire carrying an older gen is stale and dropped.
type pending struct {
	timer *time.Timer
	gen   uint64
}

type firing struct {
	path string
	gen  uint64
}

// Watcher debounces notifications for root and dispatches settled paths.
type Watcher struct {
	root       string
	categories map[string]struct{}
	source     Source
	dispatch   Dispatch
	debounce   time.Duration
	logger     *slog.Logger

	pending map[string]*pending
	nextGen uint64
	fired   chan firing

	started  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	loopDone chan struct{}
	inflight sync.WaitGroup
}

// New constructs a Watcher. It does not start consuming events until Run.
func New(root string, source Source, dispatch Dispatch, opts Options) (*Watcher, error) {
	if strings.TrimSpace(root) == "" {
		return nil, faults.Wrap(faults.ErrConfiguration, "watcher", "new", "root must be set", nil)
	}
	if source == nil || dispatch == nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "watcher", "new", "source and dispatch are required", nil)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "watcher", "new", "resolve root", err)
	}
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}
	categories := make(map[string]struct{}, len(opts.Categories))
	for _, label := range opts.Categories {
		categories[label] = struct{}{}
	}
	return &Watcher{
		root:       abs,
		categories: categories,
		source:     source,
		dispatch:   dispatch,
		debounce:   opts.Debounce,
		logger:     logging.NewComponentLogger(opts.Logger, "watcher"),
		pending:    make(map[string]*pending),
		fired:      make(chan firing),
		stopCh:     make(chan struct{}),
		loopDone:   make(chan struct{}),
	}, nil
}

// Run consumes events until Stop is called or ctx is cancelled, then cancels
// pending timers, waits for in-flight dispatches, and closes the source. It
// returns nil after a Stop or ctx cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		select {
		case <-w.stopCh:
			return nil
		default:
			return errors.New("watcher already running")
		}
	}
	defer close(w.loopDone)

	dispatchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := logging.WithContext(ctx, w.logger)
	logger.Info("watching for new files",
		logging.String(logging.FieldEventType, "watch_start"),
		logging.String(logging.FieldRoot, w.root),
		logging.Duration("debounce", w.debounce),
	)

	err := w.loop(ctx, dispatchCtx, logger)
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.cancelPending()
	cancel()
	w.inflight.Wait()
	if closeErr := w.source.Close(); closeErr != nil {
		logger.Debug("close event source", logging.Error(closeErr))
	}
	logger.Info("watcher stopped", logging.String(logging.FieldEventType, "watch_stop"))
	return err
}

// Stop shuts the watcher down and returns once the dispatcher has exited and
// in-flight dispatches have returned. It is safe to call more than once and
// before Run.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	if w.started.CompareAndSwap(false, true) {
		// Never ran: release the source ourselves.
		_ = w.source.Close()
		close(w.loopDone)
		return
	}
	<-w.loopDone
}

func (w *Watcher) loop(ctx, dispatchCtx context.Context, logger *slog.Logger) error {
	events := w.source.Events()
	errs := w.source.Errors()
	for {
		select {
		case <-w.stopCh:
			return nil
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return ErrSourceClosed
			}
			w.handle(ev, logger)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logging.WarnWithContext(logger, "watch error; continuing", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some changes may be picked up on the next organize run"),
			)
		case f := <-w.fired:
			entry, ok := w.pending[f.path]
			if !ok || entry.gen != f.gen {
				continue
			}
			delete(w.pending, f.path)
			w.launch(dispatchCtx, f.path)
		}
	}
}

func (w *Watcher) handle(ev Event, logger *slog.Logger) {
	path := filepath.Clean(ev.Path)
	switch ev.Op {
	case OpCreate, OpWrite:
	case OpRemove, OpRename:
		w.cancel(path)
		return
	default:
		return
	}
	if ev.IsDir || !w.eligible(path) {
		return
	}
	w.schedule(path)
	logger.Debug("change observed",
		logging.String(logging.FieldSourcePath, path),
		logging.String("op", ev.Op.String()),
	)
}

// eligible reports whether path is a direct child of root outside every
// category subtree.
func (w *Watcher) eligible(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	if strings.ContainsRune(rel, filepath.Separator) {
		return false
	}
	_, isCategory := w.categories[rel]
	return !isCategory
}

// schedule starts or restarts the debounce timer for path.
func (w *Watcher) schedule(path string) {
	if entry, ok := w.pending[path]; ok {
		entry.timer.Stop()
	}
	w.nextGen++
	gen := w.nextGen
	timer := time.AfterFunc(w.debounce, func() {
		select {
		case w.fired <- firing{path: path, gen: gen}:
		case <-w.stopCh:
		}
	})
	w.pending[path] = &pending{timer: timer, gen: gen}
}

func (w *Watcher) cancel(path string) {
	if entry, ok := w.pending[path]; ok {
		entry.timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) cancelPending() {
	for path, entry := range w.pending {
		entry.timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) launch(ctx context.Context, path string) {
	w.inflight.Add(1)
	go func() {
		defer w.inflight.Done()
		w.dispatch(ctx, path)
	}()
}
