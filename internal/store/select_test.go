package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

// populate writes a 2-depth x 3-distance x 2-component grid.
func populate(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	scope, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	for _, depth := range []float64{1000, 2000} {
		for _, dist := range []float64{0, 5000, 10000} {
			for comp := 0; comp < 2; comp++ {
				key := Key{SourceDepth: depth, Distance: dist, Component: comp}
				_, err := scope.Put(ctx, key, GFTrace{
					DeltaT: 86400,
					Data:   []float64{0, depth + dist + float64(comp)},
				})
				require.NoError(t, err)
			}
		}
	}
	require.NoError(t, scope.Commit())
}

func TestSelect_All(t *testing.T) {
	s := openTestStore(t)
	populate(t, s)

	records, err := s.Select(context.Background(), Selection{})
	require.NoError(t, err)
	require.Len(t, records, 12)

	// Index order: depth, then distance, then component.
	assert.Equal(t, Key{SourceDepth: 1000, Distance: 0, Component: 0}, records[0].Key)
	assert.Equal(t, Key{SourceDepth: 2000, Distance: 10000, Component: 1}, records[11].Key)
	assert.InDelta(t, 1000.0, records[0].Trace.Data[1], 1e-3)
}

func TestSelect_Ranges(t *testing.T) {
	s := openTestStore(t)
	populate(t, s)
	ctx := context.Background()

	records, err := s.Select(ctx, Selection{
		SourceDepthMin: ptr(1500),
	})
	require.NoError(t, err)
	assert.Len(t, records, 6, "only the deeper source survives")

	records, err = s.Select(ctx, Selection{
		DistanceMin: ptr(5000),
		DistanceMax: ptr(5000),
	})
	require.NoError(t, err)
	require.Len(t, records, 4, "range bounds are inclusive")
	for _, r := range records {
		assert.Equal(t, 5000.0, r.Key.Distance)
	}

	records, err = s.Select(ctx, Selection{
		SourceDepthMax: ptr(1000),
		DistanceMax:    ptr(0),
		Components:     []int{1},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, Key{SourceDepth: 1000, Distance: 0, Component: 1}, records[0].Key)
}

func TestSelect_Components(t *testing.T) {
	s := openTestStore(t)
	populate(t, s)

	records, err := s.Select(context.Background(), Selection{Components: []int{0}})
	require.NoError(t, err)
	require.Len(t, records, 6)
	for _, r := range records {
		assert.Equal(t, 0, r.Key.Component)
	}
}

func TestSelect_Empty(t *testing.T) {
	s := openTestStore(t)
	populate(t, s)

	records, err := s.Select(context.Background(), Selection{
		SourceDepthMin: ptr(99999),
	})
	require.NoError(t, err)
	assert.Empty(t, records)
}
