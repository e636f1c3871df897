package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Get returns the trace stored at key; ok is false if the key is absent.
func (s *Store) Get(ctx context.Context, key Key) (tr GFTrace, ok bool, err error) {
	var blob []byte
	err = s.db.QueryRowContext(ctx, `
		SELECT tmin, deltat, data FROM traces
		WHERE receiver_depth = ? AND source_depth = ? AND distance = ? AND component = ?
	`, key.ReceiverDepth, key.SourceDepth, key.Distance, key.Component).
		Scan(&tr.TMin, &tr.DeltaT, &blob)
	if err == sql.ErrNoRows {
		return GFTrace{}, false, nil
	}
	if err != nil {
		return GFTrace{}, false, fmt.Errorf("get %s: %w", key, err)
	}
	tr.Data, err = decodeSamples(blob)
	if err != nil {
		return GFTrace{}, false, fmt.Errorf("get %s: %w", key, err)
	}
	return tr, true, nil
}

// Count returns the number of committed trace records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM traces`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count traces: %w", err)
	}
	return n, nil
}

// Keys returns all committed keys in index order. Intended for
// verification and tests; a full store may hold millions of records.
func (s *Store) Keys(ctx context.Context) ([]Key, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT receiver_depth, source_depth, distance, component FROM traces
		ORDER BY receiver_depth, source_depth, distance, component
	`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var k Key
		if err := rows.Scan(&k.ReceiverDepth, &k.SourceDepth, &k.Distance, &k.Component); err != nil {
			return nil, fmt.Errorf("list keys: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

// BlockDone reports whether a block has been committed by a previous build.
func (s *Store) BlockDone(ctx context.Context, step, iblock int) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM blocks WHERE step = ? AND iblock = ?`, step, iblock).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query block %d/%d: %w", step, iblock, err)
	}
	return true, nil
}

// DoneBlocks returns the set of completed block indexes of a step.
func (s *Store) DoneBlocks(ctx context.Context, step int) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT iblock FROM blocks WHERE step = ?`, step)
	if err != nil {
		return nil, fmt.Errorf("query done blocks: %w", err)
	}
	defer rows.Close()

	done := make(map[int]bool)
	for rows.Next() {
		var i int
		if err := rows.Scan(&i); err != nil {
			return nil, fmt.Errorf("query done blocks: %w", err)
		}
		done[i] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query done blocks: %w", err)
	}
	return done, nil
}

// ClearProgress forgets all block completion records, forcing a rebuild of
// every block on the next build.
func (s *Store) ClearProgress(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blocks`); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}
