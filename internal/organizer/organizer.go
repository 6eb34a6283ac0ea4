package organizer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"sortbot/internal/categorize"
	"sortbot/internal/destination"
	"sortbot/internal/faults"
	"sortbot/internal/logging"
	"sortbot/internal/mover"
	"sortbot/internal/report"
)

// Skip reasons reported for entries that are deliberately left in place.
const (
	ReasonDirectory  = "directory"
	ReasonSymlink    = "symlink"
	ReasonHidden     = "hidden"
	ReasonIgnored    = "ignored"
	ReasonNotRegular = "not_regular"
)

// Options wires an Organizer. Nil collaborators get defaults.
type Options struct {
	Root        string
	Categorizer *categorize.Categorizer
	Resolver    *destination.Resolver
	Locks       *destination.Locks
	Mover       *mover.Mover
	Sink        report.Sink
	Ignore      []string
	Workers     int
	Logger      *slog.Logger
}

// Organizer relocates files from root into its category tree. It is safe for
// concurrent use.
type Organizer struct {
	root        string
	categorizer *categorize.Categorizer
	resolver    *destination.Resolver
	locks       *destination.Locks
	mover       *mover.Mover
	sink        report.Sink
	ignore      []string
	workers     int
	logger      *slog.Logger
}

// Result is the terminal outcome for one source path.
type Result struct {
	SourcePath string
	Category   string
	Outcome    mover.Outcome
}

// Summary aggregates a batch run. Results follow directory-listing order.
type Summary struct {
	Moved   int
	Results []Result
}

// Counts returns the number of moved, skipped, and failed results.
func (s Summary) Counts() (moved, skipped, failed int) {
	for _, r := range s.Results {
		switch r.Outcome.Status {
		case mover.StatusMoved:
			moved++
		case mover.StatusSkipped:
			skipped++
		default:
			failed++
		}
	}
	return moved, skipped, failed
}

// task is one organize attempt. It lives only for the duration of the call.
type task struct {
	source   string
	name     string
	category string
	modTime  time.Time
}

// New validates options and constructs an Organizer.
func New(opts Options) (*Organizer, error) {
	root := strings.TrimSpace(opts.Root)
	if root == "" {
		return nil, faults.Wrap(faults.ErrConfiguration, "organizer", "new", "root must be set", nil)
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "organizer", "new", "resolve root", err)
	}
	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, faults.Wrap(faults.ErrConfiguration, "organizer", "new",
				fmt.Sprintf("invalid ignore pattern %q", pattern), nil)
		}
	}

	o := &Organizer{
		root:        root,
		categorizer: opts.Categorizer,
		resolver:    opts.Resolver,
		locks:       opts.Locks,
		mover:       opts.Mover,
		sink:        opts.Sink,
		ignore:      append([]string(nil), opts.Ignore...),
		workers:     opts.Workers,
		logger:      logging.NewComponentLogger(opts.Logger, "organizer"),
	}
	if o.categorizer == nil {
		o.categorizer = categorize.MustDefault()
	}
	if o.resolver == nil {
		o.resolver = destination.NewResolver()
	}
	if o.locks == nil {
		o.locks = destination.NewLocks()
	}
	if o.mover == nil {
		o.mover = mover.New(mover.Options{MaxRetries: mover.DefaultMaxRetries, InitialBackoff: mover.DefaultInitialBackoff, Logger: opts.Logger})
	}
	if o.sink == nil {
		o.sink = report.NewLogSink(opts.Logger)
	}
	if o.workers < 1 {
		o.workers = 1
	}
	return o, nil
}

// Root returns the absolute organized directory.
func (o *Organizer) Root() string { return o.root }

// Categorizer returns the rule table in use.
func (o *Organizer) Categorizer() *categorize.Categorizer { return o.categorizer }

// OrganizeOne relocates path into its category tree and reports the outcome.
func (o *Organizer) OrganizeOne(ctx context.Context, path string) Result {
	path = filepath.Clean(path)
	result := Result{SourcePath: path}
	result.Outcome = o.organize(ctx, path, &result)
	o.report(ctx, result)
	return result
}

func (o *Organizer) organize(ctx context.Context, path string, result *Result) mover.Outcome {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return mover.Skipped(mover.KindNone, ReasonHidden)
	}
	if o.ignored(name) {
		return mover.Skipped(mover.KindNone, ReasonIgnored)
	}

	info, err := os.Lstat(path)
	if err != nil {
		kind := mover.Classify(err, mover.SideSource)
		if kind == mover.KindVanished {
			return mover.Skipped(kind, "source disappeared before it could be moved")
		}
		return mover.Failed(kind, "stat source", err)
	}
	switch mode := info.Mode(); {
	case mode.IsDir():
		return mover.Skipped(mover.KindNone, ReasonDirectory)
	case mode&fs.ModeSymlink != 0:
		return mover.Skipped(mover.KindNone, ReasonSymlink)
	case !mode.IsRegular():
		return mover.Skipped(mover.KindNone, ReasonNotRegular)
	}

	t := task{
		source:   path,
		name:     name,
		category: o.categorizer.Category(name),
		modTime:  info.ModTime(),
	}
	result.Category = t.category
	return o.relocate(ctx, t)
}

// relocate resolves the destination and moves the file while holding the
// destination directory lock, so check-then-create is serialized.
func (o *Organizer) relocate(ctx context.Context, t task) mover.Outcome {
	unlock := o.locks.Lock(destination.DirectoryPath(o.root, t.category, t.modTime))
	defer unlock()

	dir, err := o.resolver.DirectoryFor(o.root, t.category, t.modTime)
	if err != nil {
		return destinationFailure("create destination directory", err)
	}
	dst, err := o.resolver.Resolve(dir, t.name)
	if err != nil {
		return destinationFailure("resolve destination name", err)
	}
	if renamed := filepath.Base(dst); renamed != t.name {
		logging.WithContext(ctx, o.logger).Info("duplicate detected; renamed",
			logging.String(logging.FieldEventType, "duplicate_renamed"),
			logging.String(logging.FieldSourcePath, t.source),
			logging.String("original_name", t.name),
			logging.String("renamed_to", renamed),
		)
	}
	return o.mover.Move(ctx, t.source, dst)
}

func destinationFailure(reason string, err error) mover.Outcome {
	kind := mover.Classify(err, mover.SideDestination)
	if kind == mover.KindIOError || errors.Is(err, destination.ErrProbesExhausted) {
		kind = mover.KindPathInvalid
	}
	return mover.Failed(kind, reason, err)
}

func (o *Organizer) ignored(name string) bool {
	for _, pattern := range o.ignore {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// OrganizeAll organizes every direct entry of root. Per-file failures are
// reported in the summary; only a failure to list root or cancellation of ctx
// is returned as an error.
func (o *Organizer) OrganizeAll(ctx context.Context) (Summary, error) {
	logger := logging.WithContext(ctx, o.logger)
	entries, err := os.ReadDir(o.root)
	if err != nil {
		return Summary{}, faults.Wrap(faults.ErrNotFound, "organizer", "list root", o.root, err)
	}
	logger.Info("organizing directory",
		logging.String(logging.FieldEventType, "organize_batch_start"),
		logging.Int("entries", len(entries)),
		logging.Int("workers", o.workers),
	)

	results := make([]Result, len(entries))
	var g errgroup.Group
	g.SetLimit(o.workers)
	for i, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		path := filepath.Join(o.root, entry.Name())
		g.Go(func() error {
			results[i] = o.OrganizeOne(ctx, path)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary{Results: make([]Result, 0, len(results))}
	for _, r := range results {
		if r.SourcePath == "" {
			continue
		}
		if r.Outcome.Status == mover.StatusMoved {
			summary.Moved++
		}
		summary.Results = append(summary.Results, r)
	}

	moved, skipped, failed := summary.Counts()
	logger.Info("organize complete",
		logging.String(logging.FieldEventType, "organize_batch_complete"),
		logging.Int("moved", moved),
		logging.Int("skipped", skipped),
		logging.Int("failed", failed),
	)
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (o *Organizer) report(ctx context.Context, r Result) {
	out := r.Outcome
	event := report.Event{
		Timestamp:  time.Now(),
		SourcePath: r.SourcePath,
		Category:   r.Category,
		Status:     out.Status.String(),
		ErrorKind:  string(out.Kind),
		Attempts:   out.Attempts,
	}
	switch out.Status {
	case mover.StatusMoved:
		event.Level = report.LevelInfo
		event.DestinationPath = out.Path
		event.Message = "moved"
	case mover.StatusSkipped:
		event.Level = report.LevelDebug
		if out.Kind == mover.KindVanished {
			event.Level = report.LevelInfo
		}
		event.Message = "skipped: " + out.Reason
	default:
		event.Level = report.LevelError
		if out.Kind == mover.KindCancelled {
			event.Level = report.LevelWarn
		}
		event.Message = "move failed: " + out.Reason
		if out.Err != nil {
			event.Message += ": " + out.Err.Error()
		}
	}
	if err := o.sink.Record(ctx, event); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "outcome not recorded", "report_failed",
			logging.String(logging.FieldSourcePath, r.SourcePath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "history may be missing this outcome"),
		)
	}
}
