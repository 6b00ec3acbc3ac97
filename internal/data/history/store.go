package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Save records a snapshot, filling in the ID, timestamp and schema version
// when they are unset. It returns the stored ID.
func (s *Store) Save(ctx context.Context, snapshot Snapshot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	} else if _, err := uuid.Parse(snapshot.ID); err != nil {
		return "", fmt.Errorf("invalid snapshot id %q: %w", snapshot.ID, err)
	}
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}
	if snapshot.SchemaVersion == 0 {
		snapshot.SchemaVersion = SchemaVersion
	}
	if snapshot.SchemaVersion != SchemaVersion {
		return "", fmt.Errorf("unsupported snapshot schema version %d", snapshot.SchemaVersion)
	}

	query := `
INSERT INTO builds (
  id, schema_version, ts_utc, entry_file, entry, found, node_count, edge_count,
  external_count, cycle_count, route_count, files_parsed, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`
	err := s.withRetry("save snapshot", func() error {
		_, err := s.db.ExecContext(ctx, query,
			snapshot.ID,
			snapshot.SchemaVersion,
			snapshot.Timestamp.UTC().Format(time.RFC3339Nano),
			snapshot.EntryFile,
			snapshot.Entry,
			snapshot.Found,
			snapshot.NodeCount,
			snapshot.EdgeCount,
			snapshot.ExternalCount,
			snapshot.CycleCount,
			snapshot.RouteCount,
			snapshot.FilesParsed,
			snapshot.Duration.Milliseconds(),
		)
		return err
	})
	if err != nil {
		return "", err
	}
	return snapshot.ID, nil
}

// List returns snapshots for entry (all entries when empty) taken at or after
// since, oldest first. A positive limit keeps only the newest limit rows.
func (s *Store) List(ctx context.Context, entry string, since time.Time, limit int) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := `
SELECT
  id, schema_version, ts_utc, entry_file, entry, found, node_count, edge_count,
  external_count, cycle_count, route_count, files_parsed, duration_ms
FROM builds
WHERE 1 = 1`
	args := make([]any, 0, 3)
	if entry = strings.TrimSpace(entry); entry != "" {
		base += " AND entry = ?"
		args = append(args, entry)
	}
	if !since.IsZero() {
		base += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	base += " ORDER BY ts_utc DESC, id DESC"
	if limit > 0 {
		base += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("list snapshots", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, base, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		var (
			tsRaw      string
			durationMS int64
			snapshot   Snapshot
		)
		if err := rows.Scan(
			&snapshot.ID,
			&snapshot.SchemaVersion,
			&tsRaw,
			&snapshot.EntryFile,
			&snapshot.Entry,
			&snapshot.Found,
			&snapshot.NodeCount,
			&snapshot.EdgeCount,
			&snapshot.ExternalCount,
			&snapshot.CycleCount,
			&snapshot.RouteCount,
			&snapshot.FilesParsed,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot timestamp %q: %w", tsRaw, err)
		}
		snapshot.Timestamp = ts.UTC()
		snapshot.Duration = time.Duration(durationMS) * time.Millisecond
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	for i, j := 0, len(snapshots)-1; i < j; i, j = i+1, j-1 {
		snapshots[i], snapshots[j] = snapshots[j], snapshots[i]
	}
	return snapshots, nil
}

// Prune deletes all but the newest keep snapshots and reports how many rows
// were removed. keep <= 0 disables pruning.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	err := s.withRetry("prune snapshots", func() error {
		res, err := s.db.ExecContext(ctx, `
DELETE FROM builds WHERE id NOT IN (
  SELECT id FROM builds ORDER BY ts_utc DESC, id DESC LIMIT ?
)`, keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
