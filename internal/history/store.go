package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"sortbot/internal/faults"
	"sortbot/internal/report"
)

// Store is the SQLite-backed outcome ledger.
type Store struct {
	db   *sql.DB
	path string
}

// Entry is one recorded outcome.
type Entry struct {
	ID              int64
	RecordedAt      time.Time
	RunID           string
	SourcePath      string
	Category        string
	DestinationPath string
	Status          string
	ErrorKind       string
	Attempts        int
	Message         string
}

// Filter narrows List results. A zero Limit means DefaultListLimit.
type Filter struct {
	Limit  int
	Status string
	RunID  string
}

const (
	DefaultListLimit = 50

	// timeLayout is fixed width so recorded_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"

	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the ledger at path, creating its directory.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, faults.Wrap(faults.ErrConfiguration, "history", "open", "database path must be set", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends event to the ledger. It implements report.Sink.
func (s *Store) Record(ctx context.Context, event report.Event) error {
	if ctx == nil {
		ctx = context.Background()
	}
	recordedAt := event.Timestamp
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	runID, _ := faults.RunIDFromContext(ctx)

	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `INSERT INTO outcomes
			(recorded_at, run_id, source_path, category, destination_path, status, error_kind, attempts, message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			recordedAt.UTC().Format(timeLayout),
			runID,
			event.SourcePath,
			event.Category,
			event.DestinationPath,
			event.Status,
			event.ErrorKind,
			event.Attempts,
			event.Message,
		)
		if err != nil {
			return fmt.Errorf("insert outcome: %w", err)
		}
		return nil
	})
}

// List returns the most recent entries first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Entry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := strings.Builder{}
	query.WriteString(`SELECT id, recorded_at, run_id, source_path, category, destination_path,
		status, error_kind, attempts, message FROM outcomes`)
	var (
		clauses []string
		args    []any
	)
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.RunID != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if len(clauses) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(clauses, " AND "))
	}
	query.WriteString(" ORDER BY id DESC LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			recordedAt string
		)
		if err := rows.Scan(&entry.ID, &recordedAt, &entry.RunID, &entry.SourcePath, &entry.Category,
			&entry.DestinationPath, &entry.Status, &entry.ErrorKind, &entry.Attempts, &entry.Message); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		if ts, err := time.Parse(timeLayout, recordedAt); err == nil {
			entry.RecordedAt = ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return entries, nil
}

// CountByStatus returns the number of entries per status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM outcomes GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// Prune deletes entries recorded before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM outcomes WHERE recorded_at < ?",
			cutoff.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("prune outcomes: %w", err)
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	return removed, err
}
