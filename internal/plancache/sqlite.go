package plancache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS plans (
	variant TEXT NOT NULL,
	n INTEGER NOT NULL,
	payload BLOB NOT NULL,
	PRIMARY KEY (variant, n)
)`

// SQLiteStore keeps plans in a SQLite file.
type SQLiteStore struct {
	sqlDB *sql.DB
	path  string
}

// Open opens or creates the cache at path, creating parent directories.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("plan cache path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create plan cache directory: %w", err)
	}
	sqlDB, err := sql.Open("sqlite", cleanPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create plans table: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB, path: cleanPath}, nil
}

// Recreate deletes the cache at path, together with its journal files, and
// opens an empty one in its place.
func Recreate(ctx context.Context, path string) (*SQLiteStore, error) {
	cleanPath := filepath.Clean(path)
	for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
		if err := os.Remove(cleanPath + suffix); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove plan cache: %w", err)
		}
	}
	return Open(ctx, cleanPath)
}

// Path returns the database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the SQLite connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) ([]Entry, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT variant, n, payload FROM plans ORDER BY variant, n`)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			key     Key
			payload []byte
		)
		if err := rows.Scan(&key.Variant, &key.N, &payload); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		e, err := decode(key, payload)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return entries, nil
}

// Save implements Store. All entries are written in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, entries []Entry) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO plans (variant, n, payload) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		payload, err := encode(e)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, e.Variant, e.N, payload); err != nil {
			return fmt.Errorf("insert plan %s: %w", e.Key(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
