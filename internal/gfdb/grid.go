// Package gfdb defines the index space of a Green's function store: the
// source-depth x distance x time grid, its partitioning into independently
// computable blocks, and the store configuration file.
package gfdb

import (
	"fmt"
	"math"
)

// Grid is the spatial/temporal sampling of a store. All lengths in meters,
// sample rate in Hz. Immutable.
type Grid struct {
	ReceiverDepth float64 `yaml:"receiver_depth"`

	SourceDepthMin   float64 `yaml:"source_depth_min"`
	SourceDepthMax   float64 `yaml:"source_depth_max"`
	SourceDepthDelta float64 `yaml:"source_depth_delta"`

	DistanceMin   float64 `yaml:"distance_min"`
	DistanceMax   float64 `yaml:"distance_max"`
	DistanceDelta float64 `yaml:"distance_delta"`

	SampleRate float64 `yaml:"sample_rate"`
}

// Validate checks the grid invariants: positive steps, max >= min,
// positive sample rate.
func (g Grid) Validate() error {
	if g.SourceDepthDelta <= 0 {
		return fmt.Errorf("grid: source depth delta must be > 0, got %g", g.SourceDepthDelta)
	}
	if g.DistanceDelta <= 0 {
		return fmt.Errorf("grid: distance delta must be > 0, got %g", g.DistanceDelta)
	}
	if g.SourceDepthMax < g.SourceDepthMin {
		return fmt.Errorf("grid: source depth max %g < min %g", g.SourceDepthMax, g.SourceDepthMin)
	}
	if g.DistanceMax < g.DistanceMin {
		return fmt.Errorf("grid: distance max %g < min %g", g.DistanceMax, g.DistanceMin)
	}
	if g.SampleRate <= 0 {
		return fmt.Errorf("grid: sample rate must be > 0, got %g", g.SampleRate)
	}
	return nil
}

// NSourceDepths returns the number of source depth samples.
func (g Grid) NSourceDepths() int {
	return int(math.Round((g.SourceDepthMax-g.SourceDepthMin)/g.SourceDepthDelta)) + 1
}

// NDistances returns the number of distance samples.
func (g Grid) NDistances() int {
	return int(math.Round((g.DistanceMax-g.DistanceMin)/g.DistanceDelta)) + 1
}

// SourceDepths returns the source depth samples, shallow to deep.
func (g Grid) SourceDepths() []float64 {
	n := g.NSourceDepths()
	out := make([]float64, n)
	for i := range out {
		out[i] = g.SourceDepthMin + float64(i)*g.SourceDepthDelta
	}
	return out
}

// Distances returns the distance samples, near to far.
func (g Grid) Distances() []float64 {
	n := g.NDistances()
	out := make([]float64, n)
	for i := range out {
		out[i] = g.DistanceMin + float64(i)*g.DistanceDelta
	}
	return out
}
