package store

import (
	"context"
	"fmt"
	"strings"
)

// Selection restricts a trace query to ranges of the key space. Nil range
// bounds are open; an empty component list means all components. Range
// bounds are inclusive on both ends, matching the grid node semantics.
type Selection struct {
	SourceDepthMin *float64
	SourceDepthMax *float64
	DistanceMin    *float64
	DistanceMax    *float64
	Components     []int
}

// Record pairs a key with its stored trace.
type Record struct {
	Key   Key
	Trace GFTrace
}

// compile turns the selection into a parameterized WHERE fragment. Values
// are never interpolated into the SQL text.
func (sel Selection) compile() (string, []any) {
	var conds []string
	var params []any

	rangeCond := func(field string, min, max *float64) {
		if min != nil {
			conds = append(conds, field+" >= ?")
			params = append(params, *min)
		}
		if max != nil {
			conds = append(conds, field+" <= ?")
			params = append(params, *max)
		}
	}
	rangeCond("source_depth", sel.SourceDepthMin, sel.SourceDepthMax)
	rangeCond("distance", sel.DistanceMin, sel.DistanceMax)

	if len(sel.Components) > 0 {
		placeholders := make([]string, len(sel.Components))
		for i, c := range sel.Components {
			placeholders[i] = "?"
			params = append(params, c)
		}
		conds = append(conds, "component IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), params
}

// Select returns all committed records matching the selection, in index
// order. Every query carries the full ORDER BY so results are
// deterministic regardless of insertion order.
func (s *Store) Select(ctx context.Context, sel Selection) ([]Record, error) {
	where, params := sel.compile()
	query := `
		SELECT receiver_depth, source_depth, distance, component, tmin, deltat, data
		FROM traces` + where + `
		ORDER BY receiver_depth, source_depth, distance, component`

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("select traces: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var blob []byte
		if err := rows.Scan(
			&r.Key.ReceiverDepth, &r.Key.SourceDepth, &r.Key.Distance,
			&r.Key.Component, &r.Trace.TMin, &r.Trace.DeltaT, &blob); err != nil {
			return nil, fmt.Errorf("select traces: %w", err)
		}
		r.Trace.Data, err = decodeSamples(blob)
		if err != nil {
			return nil, fmt.Errorf("select %s: %w", r.Key, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select traces: %w", err)
	}
	return records, nil
}
