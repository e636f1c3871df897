package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/seismech/gfbuild/internal/gfdb"
	"github.com/seismech/gfbuild/internal/solver"
	"github.com/seismech/gfbuild/internal/source"
	"github.com/seismech/gfbuild/internal/store"
)

// gfMapping fixes, per canonical moment-tensor component, which output
// channel of the convolution solver feeds which store component index.
// Downstream consumers rely on these indexes positionally; the order of
// the entries is the solver invocation order within a block.
//
// Only the horizontal displacement channels are stored: the vertical (ud)
// responses the solver also produces are intentionally not mapped to any
// component, keeping the set at one record per canonical component.
var gfMapping = []struct {
	comp    source.Component
	channel string
	igf     int
}{
	{source.NN, "un", 0},
	{source.NE, "ue", 3},
	{source.ND, "un", 1},
	{source.ED, "ue", 4},
	{source.DD, "un", 2},
	{source.EE, "un", 5},
}

// blockTrace pairs a finished, scaled trace with its store key.
type blockTrace struct {
	key store.Key
	tr  store.GFTrace
}

// workBlock computes one step-1 block: six convolution solver runs, one
// per canonical component, then a single write scope committing all
// resulting traces together with the block-done marker.
func (b *Builder) workBlock(ctx context.Context, iblock, blockSize, nblocks int, scratch string) error {
	g := b.cfg.Grid

	block, err := g.BlockExtents(gfdb.StepConvolution, blockSize, iblock)
	if err != nil {
		return err
	}

	slog.Info("starting block",
		"step", 2, "nsteps", gfdb.NSteps, "block", iblock+1, "nblocks", nblocks)

	izSource := block.SourceDepths.First
	sourceDepth := g.SourceDepths()[izSource]
	distances := g.Distances()[block.Distances.First : block.Distances.First+block.Distances.Count]

	// Elastic parameters at the block's source depth, by precomputed
	// lookup.
	moduli := b.moduli[izSource]
	nullf, sf := source.IsoScaling(moduli.Mu, moduli.Lambda)
	mui := 1.0 / moduli.Mu

	dx := g.DistanceDelta
	mtsize := dx * b.cfg.PsCmp.FaultSizeFactor
	ai := 1.0 / (mtsize * mtsize)

	geom := source.Geometry{
		Lat:    0.001 * dx / metersPerDegree,
		Lon:    0.0,
		Depth:  sourceDepth,
		Length: mtsize,
		Width:  mtsize,
	}

	cc := solver.NewPsCmpConfig()
	cc.GFDir = gfdb.GFDir(b.storeDir)
	cc.Snapshots = solver.Snapshots{
		TMinDays:  0,
		TMaxDays:  b.cfg.TMaxDays,
		DeltaDays: b.deltatDays(),
	}
	cc.Observation = solver.ProfileObservation{
		NSteps:    len(distances),
		SLat:      -0.001 / metersPerDegree,
		SLon:      0,
		ELat:      distances[len(distances)-1] / metersPerDegree,
		ELon:      0,
		Distances: distances,
	}

	var collected []blockTrace
	for _, entry := range gfMapping {
		if err := ctx.Err(); err != nil {
			return err
		}

		factor := ai * mui
		if entry.comp.Isotropic() {
			factor = ai * sf
		}

		patches, err := source.Decompose(entry.comp, geom, nullf)
		if err != nil {
			return err
		}
		cc.SourcePatches = patches

		traces, err := b.runConvolution(ctx, &cc, scratch, distances)
		if err != nil {
			return err
		}

		for _, tr := range traces {
			if tr.Channel != entry.channel {
				continue
			}
			collected = append(collected, blockTrace{
				key: store.Key{
					ReceiverDepth: g.ReceiverDepth,
					SourceDepth:   sourceDepth,
					Distance:      tr.Distance,
					Component:     entry.igf,
				},
				tr: store.GFTrace{
					TMin:   tr.TMin,
					DeltaT: tr.DeltaT,
					Data:   tr.Data,
				}.Scaled(factor),
			})
		}
	}

	// One write scope per block: the lock spans all trace writes and the
	// done marker, and is released on every exit path.
	scope, err := b.st.BeginWrite(ctx)
	if err != nil {
		return err
	}
	defer scope.Rollback()

	for _, bt := range collected {
		if _, err := scope.Put(ctx, bt.key, bt.tr); err != nil {
			return err
		}
	}
	if err := scope.MarkBlockDone(ctx, gfdb.StepConvolution, iblock); err != nil {
		return err
	}
	if err := scope.Commit(); err != nil {
		return err
	}

	if n := scope.Duplicates(); n > 0 {
		slog.Warn("insertions skipped (duplicates)", "block", iblock+1, "count", n)
	}

	slog.Info("done with block",
		"step", 2, "nsteps", gfdb.NSteps, "block", iblock+1, "nblocks", nblocks)
	return nil
}

// runConvolution performs one convolution solver run in a fresh scratch
// directory and reads back the displacement traces.
func (b *Builder) runConvolution(ctx context.Context, cc *solver.PsCmpConfig, scratch string, distances []float64) ([]solver.RawTrace, error) {
	input, err := cc.Render()
	if err != nil {
		return nil, err
	}

	rundir := filepath.Join(scratch, "pscmprun-"+uuid.NewString())
	runner := &solver.Runner{
		Program: solver.PsCmpProgram(b.cfg.Variant),
		Dir:     rundir,
		Force:   true,
	}

	keep := false
	defer func() {
		if keep {
			slog.Warn("keeping solver run directory for diagnosis", "dir", rundir)
			return
		}
		if err := os.RemoveAll(rundir); err != nil {
			slog.Warn("could not remove solver run directory", "dir", rundir, "error", err)
		}
	}()

	if _, err := runner.Run(ctx, input); err != nil {
		var runErr *solver.RunError
		if errors.As(err, &runErr) {
			keep = true
		}
		return nil, err
	}

	traces, err := runner.ReadTraces(cc, solver.GroupDispl, distances)
	if err != nil {
		keep = true
		return nil, fmt.Errorf("collect solver results: %w", err)
	}
	return traces, nil
}
