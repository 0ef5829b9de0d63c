package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// Status is the result of one reseed attempt.
type Status string

// Outcome statuses.
const (
	StatusLoaded        Status = "loaded"
	StatusWouldLoad     Status = "would_load"
	StatusAlreadyLoaded Status = "already_loaded"
	StatusNotFound      Status = "not_found"
)

var (
	// ErrLocked means another process holds the ledger.
	ErrLocked = errors.New("ledger is locked by another process")
	// ErrSchemaMismatch means the database was written by an incompatible version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)

// Outcome is one recorded reseed attempt.
type Outcome struct {
	ID         int64
	Path       string
	Status     Status
	TorrentID  string
	InfoHash   string
	Directory  string
	Reason     string
	RecordedAt time.Time
}

// Store is an open ledger.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
	now  func() time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open opens or creates the ledger at path and locks it for this process.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire ledger lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, lock: lock, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database and releases the lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	if s.lock != nil {
		errs = append(errs, s.lock.Unlock())
	}
	return errors.Join(errs...)
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to start over)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Record stores an outcome. Path is made absolute and RecordedAt defaults
// to now.
func (s *Store) Record(ctx context.Context, o Outcome) (Outcome, error) {
	abs, err := filepath.Abs(o.Path)
	if err != nil {
		return o, fmt.Errorf("resolve %s: %w", o.Path, err)
	}
	o.Path = abs
	if o.RecordedAt.IsZero() {
		o.RecordedAt = s.now()
	}
	err = retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO outcomes (path, status, torrent_id, info_hash, directory, reason, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.Path, string(o.Status), o.TorrentID, o.InfoHash, o.Directory, o.Reason,
			o.RecordedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return err
		}
		o.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return o, fmt.Errorf("record outcome: %w", err)
	}
	return o, nil
}

// IsLoaded reports whether path was loaded into the client by an earlier run.
func (s *Store) IsLoaded(ctx context.Context, path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", path, err)
	}
	var count int
	err = retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM outcomes WHERE path = ? AND status IN (?, ?)",
			abs, string(StatusLoaded), string(StatusAlreadyLoaded),
		).Scan(&count)
	})
	if err != nil {
		return false, fmt.Errorf("query ledger: %w", err)
	}
	return count > 0, nil
}

// List returns every outcome in recording order.
func (s *Store) List(ctx context.Context) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, status, torrent_id, info_hash, directory, reason, recorded_at
		 FROM outcomes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var (
			o        Outcome
			status   string
			recorded string
		)
		if err := rows.Scan(&o.ID, &o.Path, &status, &o.TorrentID, &o.InfoHash, &o.Directory, &o.Reason, &recorded); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Status = Status(status)
		if ts, err := time.Parse(time.RFC3339Nano, recorded); err == nil {
			o.RecordedAt = ts
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

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
