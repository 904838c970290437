// Package state persists build history and page fingerprints in SQLite so
// watch mode can tell real content changes from editor noise.
package state

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed build store.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates (or opens) the store at dbPath.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		extra_files INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);

	CREATE TABLE IF NOT EXISTS fingerprints (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		updated INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BuildRecord is one persisted build.
type BuildRecord struct {
	ID         string
	Started    time.Time
	Finished   time.Time
	Pages      int
	ExtraFiles int
}

// RecordBuild persists one completed build.
func (s *Store) RecordBuild(ctx context.Context, rec BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO builds (id, started, finished, pages, extra_files) VALUES (?, ?, ?, ?, ?)",
		rec.ID, rec.Started.Unix(), rec.Finished.Unix(), rec.Pages, rec.ExtraFiles,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// LastBuild returns the most recent build, or nil when none exists.
func (s *Store) LastBuild(ctx context.Context) (*BuildRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, started, finished, pages, extra_files FROM builds ORDER BY started DESC, id DESC LIMIT 1")

	var rec BuildRecord
	var started, finished int64
	if err := row.Scan(&rec.ID, &started, &finished, &rec.Pages, &rec.ExtraFiles); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query last build: %w", err)
	}
	rec.Started = time.Unix(started, 0)
	rec.Finished = time.Unix(finished, 0)
	return &rec, nil
}

// BuildCount returns the number of recorded builds.
func (s *Store) BuildCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM builds").Scan(&n); err != nil {
		return 0, fmt.Errorf("count builds: %w", err)
	}
	return n, nil
}

// Fingerprint hashes content the way the store does.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Changed records the fingerprint for path and reports whether the content
// differs from the previously stored fingerprint. Unknown paths count as
// changed.
func (s *Store) Changed(ctx context.Context, path string, content []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := Fingerprint(content)

	var previous string
	err := s.db.QueryRowContext(ctx, "SELECT hash FROM fingerprints WHERE path = ?", path).Scan(&previous)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// First sighting
	case err != nil:
		return false, fmt.Errorf("query fingerprint: %w", err)
	case previous == hash:
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO fingerprints (path, hash, updated) VALUES (?, ?, ?)",
		path, hash, time.Now().Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("store fingerprint: %w", err)
	}
	return true, nil
}
