// Package store implements the indexed, lockable Green's function store.
//
// The store maps a composite key (receiver depth, source depth, distance,
// component) to one time-series payload. SQLite provides the index and the
// cross-process write locking; all mutation happens inside an explicit
// write scope (see BeginWrite) so that lock release is guaranteed on every
// exit path.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// IndexFileName is the SQLite index file inside a store directory.
const IndexFileName = "index.db"

// Store provides durable keyed storage for computed Green's function
// traces. Reads may happen concurrently with one writer (WAL mode).
type Store struct {
	db  *sql.DB
	dir string
}

// Create initializes a fresh store index in dir. It fails if an index
// already exists, unless force is set, in which case the old index is
// removed first.
func Create(dir string, force bool) (*Store, error) {
	path := filepath.Join(dir, IndexFileName)
	if _, err := os.Stat(path); err == nil {
		if !force {
			return nil, fmt.Errorf("store index already exists: %s", path)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("remove existing index: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return Open(dir)
}

// Open opens (creating if necessary) the store index in dir.
//
// The database is configured with WAL mode for concurrent reads during
// writes, NORMAL synchronous mode, a busy timeout covering slow solver
// blocks, and immediate transactions so a write scope takes the write lock
// at BEGIN rather than at first write.
func Open(dir string) (*Store, error) {
	path := filepath.Join(dir, IndexFileName)
	db, err := sql.Open("sqlite3", "file:"+path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open store index: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to store index: %w", err)
	}

	// SQLite supports a single writer; keep the pool at one connection to
	// avoid SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if err := stampSchemaVersion(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, dir: dir}, nil
}

// Close closes the index. Must not be called while a write scope is open.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 60000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func stampSchemaVersion(db *sql.DB) error {
	_, err := db.Exec(`
		INSERT INTO meta (key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO NOTHING
	`, fmt.Sprintf("%d", currentSchemaVersion))
	if err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return nil
}

// SetMeta stores a store-level bookkeeping value.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set meta %q: %w", key, err)
	}
	return nil
}

// GetMeta reads a store-level bookkeeping value; ok is false if unset.
func (s *Store) GetMeta(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get meta %q: %w", key, err)
	}
	return value, true, nil
}
