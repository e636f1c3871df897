package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrScopeClosed is returned when a write scope is used after Commit or
// Rollback. This is a caller bug, not a recoverable condition.
var ErrScopeClosed = errors.New("store: write scope already released")

// PutResult reports the outcome of a single insert.
type PutResult int

const (
	// Inserted means the key was absent and the trace is now committed
	// (once the scope commits).
	Inserted PutResult = iota

	// Duplicate means the key was already present; the existing record is
	// untouched. Duplicates are counted, never fatal.
	Duplicate
)

// WriteScope is the store's write lock, held for the duration of writing
// all traces of one block. It is an immediate SQLite transaction: the
// write lock is taken at BeginWrite and released on Commit or Rollback,
// guaranteed on every exit path by deferring Rollback.
//
// All mutation goes through a scope; there is no unlocked Put.
type WriteScope struct {
	tx         *sql.Tx
	closed     bool
	duplicates int
}

// BeginWrite acquires the store's write lock and returns the scope guard.
// Blocks (up to the busy timeout) while another writer holds the lock.
func (s *Store) BeginWrite(ctx context.Context) (*WriteScope, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("acquire store write lock: %w", err)
	}
	return &WriteScope{tx: tx}, nil
}

// Put inserts a trace at key. An already present key leaves the committed
// record untouched and reports Duplicate. The trace must already carry its
// amplitude scaling; the store applies none.
func (w *WriteScope) Put(ctx context.Context, key Key, tr GFTrace) (PutResult, error) {
	if w.closed {
		return 0, ErrScopeClosed
	}
	res, err := w.tx.ExecContext(ctx, `
		INSERT INTO traces
		(receiver_depth, source_depth, distance, component, tmin, deltat, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		key.ReceiverDepth, key.SourceDepth, key.Distance, key.Component,
		tr.TMin, tr.DeltaT, encodeSamples(tr.Data),
	)
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", key, err)
	}
	if n == 0 {
		w.duplicates++
		return Duplicate, nil
	}
	return Inserted, nil
}

// MarkBlockDone records block completion in the same transaction as the
// block's trace writes, so a block is either fully committed and marked
// done, or neither.
func (w *WriteScope) MarkBlockDone(ctx context.Context, step, iblock int) error {
	if w.closed {
		return ErrScopeClosed
	}
	_, err := w.tx.ExecContext(ctx, `
		INSERT INTO blocks (step, iblock) VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, step, iblock)
	if err != nil {
		return fmt.Errorf("mark block %d/%d done: %w", step, iblock, err)
	}
	return nil
}

// Duplicates returns the number of duplicate inserts seen by this scope.
func (w *WriteScope) Duplicates() int {
	return w.duplicates
}

// Commit releases the write lock, making all writes durable.
func (w *WriteScope) Commit() error {
	if w.closed {
		return ErrScopeClosed
	}
	w.closed = true
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("commit write scope: %w", err)
	}
	return nil
}

// Rollback releases the write lock, discarding all writes. Safe to defer:
// calling it after Commit is a no-op.
func (w *WriteScope) Rollback() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback write scope: %w", err)
	}
	return nil
}
