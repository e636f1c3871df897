// Package builder orchestrates the two-step construction of a Green's
// function store: step 0 computes the layered-medium response with the
// external response solver once over the whole grid; step 1 walks the
// distance/depth blocks, convolving elementary dislocation sources and
// writing the scaled traces into the store.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/seismech/gfbuild/internal/gfdb"
	"github.com/seismech/gfbuild/internal/model"
	"github.com/seismech/gfbuild/internal/solver"
	"github.com/seismech/gfbuild/internal/store"
)

const day = 24. * 3600.

// metersPerDegree converts surface distance to geographic degrees for the
// solver's lat/lon observation coordinates.
const metersPerDegree = 111195.0

// State is the build state machine position.
type State int

const (
	StateInit State = iota
	StateStep0Running
	StateStep1Running
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateStep0Running:
		return "step0-running"
	case StateStep1Running:
		return "step1-running"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options control one build run.
type Options struct {
	// Force overwrites existing intermediate results and ignores previous
	// build progress.
	Force bool

	// Continue resumes an earlier build: completed blocks are skipped and
	// step 0 is not re-run if already done.
	Continue bool

	// NWorkers is the number of parallel step-1 workers; <= 0 means 1.
	NWorkers int

	// Step restricts the run to a single step (0 or 1) for debugging;
	// nil runs both.
	Step *int

	// Block restricts step 1 to a single block index; nil runs all.
	Block *int

	// BlockSize is the distance-axis chunk per step-1 block; <= 0 means
	// the whole distance axis.
	BlockSize int

	// Scratch overrides the parent directory of the per-invocation
	// working directories of the convolution solver.
	Scratch string
}

// Builder drives one store build. Not safe for concurrent use; step-1
// block workers are managed internally.
type Builder struct {
	storeDir string
	cfg      *gfdb.Config
	st       *store.Store
	mod      *model.ElasticModel

	// moduli holds (mu, lambda) per source depth index, precomputed so
	// blocks resolve their elastic parameters by lookup.
	moduli []model.Moduli

	state State
}

// New opens an initialized store directory for building. The directory is
// resolved to an absolute path: it is embedded into convolution solver
// inputs that run in unrelated scratch directories.
func New(storeDir string) (*Builder, error) {
	storeDir, err := filepath.Abs(storeDir)
	if err != nil {
		return nil, fmt.Errorf("resolve store directory: %w", err)
	}
	cfg, err := gfdb.ReadConfig(storeDir)
	if err != nil {
		return nil, err
	}
	if err := solver.CheckVariant(cfg.Variant); err != nil {
		return nil, err
	}
	mod, err := model.Load(filepath.Join(storeDir, cfg.ModelFile))
	if err != nil {
		return nil, err
	}
	st, err := store.Open(storeDir)
	if err != nil {
		return nil, err
	}
	return &Builder{
		storeDir: storeDir,
		cfg:      cfg,
		st:       st,
		mod:      mod,
		moduli:   mod.ModuliTable(cfg.Grid.SourceDepths()),
		state:    StateInit,
	}, nil
}

// Close releases the store.
func (b *Builder) Close() error {
	return b.st.Close()
}

// State returns the current build state.
func (b *Builder) State() State {
	return b.state
}

// Store exposes the underlying store for verification.
func (b *Builder) Store() *store.Store {
	return b.st
}

// Run executes the build state machine. On cancellation or a classified
// solver failure the build unwinds, releasing any held write scope, and
// returns the distinct cancellation or failure condition.
func (b *Builder) Run(ctx context.Context, opts Options) error {
	if err := b.checkResume(ctx, opts); err != nil {
		return err
	}

	runStep := func(step int) bool {
		return opts.Step == nil || *opts.Step == step
	}

	if runStep(gfdb.StepResponse) {
		b.state = StateStep0Running
		if err := b.runStep0(ctx, opts); err != nil {
			b.state = StateAborted
			return err
		}
	}

	if runStep(gfdb.StepConvolution) {
		b.state = StateStep1Running
		if err := b.runStep1(ctx, opts); err != nil {
			b.state = StateAborted
			return err
		}
	}

	b.state = StateDone
	return nil
}

// checkResume guards against accidentally re-entering a half-built store:
// without --continue or --force, previous progress is an error.
func (b *Builder) checkResume(ctx context.Context, opts Options) error {
	if opts.Continue {
		return nil
	}
	if opts.Force {
		return b.st.ClearProgress(ctx)
	}
	for step := 0; step < gfdb.NSteps; step++ {
		done, err := b.st.DoneBlocks(ctx, step)
		if err != nil {
			return err
		}
		if len(done) > 0 {
			return fmt.Errorf(
				"store has previous build progress; use --continue to resume or --force to restart")
		}
	}
	return nil
}

// deltatDays is the store sample interval expressed in days.
func (b *Builder) deltatDays() float64 {
	return 1.0 / (b.cfg.Grid.SampleRate * day)
}

// runStep0 invokes the response solver once over the full grid. Its
// output lands in the store's exchange directory, which the convolution
// solver of step 1 reads directly; no data passes through our own types.
func (b *Builder) runStep0(ctx context.Context, opts Options) error {
	g := b.cfg.Grid

	if opts.Continue {
		done, err := b.st.BlockDone(ctx, gfdb.StepResponse, 0)
		if err != nil {
			return err
		}
		if done {
			slog.Info("step 0 already complete, skipping")
			return nil
		}
	}

	slog.Info("starting step", "step", 1, "nsteps", gfdb.NSteps)

	depthSpacing := b.cfg.PsGrn.DepthSpacing
	if depthSpacing <= 0 {
		depthSpacing = g.SourceDepthDelta
	}
	distanceSpacing := b.cfg.PsGrn.DistanceSpacing
	if distanceSpacing <= 0 {
		distanceSpacing = g.DistanceDelta
	}

	cg := solver.NewPsGrnConfig()
	cg.ObservationDepth = b.cfg.PsGrn.ObservationDepth
	cg.Continental = b.cfg.PsGrn.Continental
	cg.Gravity = b.cfg.PsGrn.Gravity
	cg.SamplingInterval = b.cfg.PsGrn.SamplingInterval
	cg.Accuracy = b.cfg.PsGrn.Accuracy
	cg.Model = b.mod
	cg.NTimeSamples = int(b.cfg.TMaxDays / b.deltatDays())
	cg.MaxTimeDays = b.cfg.TMaxDays
	cg.DepthGrid = solver.SpatialSampling{
		N:     int((g.SourceDepthMax-g.SourceDepthMin)/depthSpacing) + 1,
		Start: g.SourceDepthMin,
		End:   g.SourceDepthMax,
	}
	cg.DistanceGrid = solver.SpatialSampling{
		N:     int((g.DistanceMax-g.DistanceMin)/distanceSpacing) + 1,
		Start: g.DistanceMin,
		End:   g.DistanceMax,
	}

	input, err := cg.Render()
	if err != nil {
		return err
	}

	runner := &solver.Runner{
		Program: solver.PsGrnProgram(b.cfg.Variant),
		Dir:     gfdb.GFDir(b.storeDir),
		Force:   opts.Force || opts.Continue,
	}
	if _, err := runner.Run(ctx, input); err != nil {
		return err
	}

	scope, err := b.st.BeginWrite(ctx)
	if err != nil {
		return err
	}
	defer scope.Rollback()
	if err := scope.MarkBlockDone(ctx, gfdb.StepResponse, 0); err != nil {
		return err
	}
	if err := scope.Commit(); err != nil {
		return err
	}

	slog.Info("done with step", "step", 1, "nsteps", gfdb.NSteps)
	return nil
}

// runStep1 distributes the convolution blocks over a worker pool. Each
// block runs its solvers without holding the store lock and acquires one
// write scope to commit all of its traces.
func (b *Builder) runStep1(ctx context.Context, opts Options) error {
	g := b.cfg.Grid
	nblocks := g.BlockCount(gfdb.StepConvolution, opts.BlockSize)

	var pending []int
	if opts.Block != nil {
		if _, err := g.BlockExtents(gfdb.StepConvolution, opts.BlockSize, *opts.Block); err != nil {
			return err
		}
		pending = []int{*opts.Block}
	} else {
		done := map[int]bool{}
		if opts.Continue {
			var err error
			done, err = b.st.DoneBlocks(ctx, gfdb.StepConvolution)
			if err != nil {
				return err
			}
		}
		for i := 0; i < nblocks; i++ {
			if !done[i] {
				pending = append(pending, i)
			}
		}
	}

	if len(pending) == 0 {
		slog.Info("step 1 already complete, skipping")
		return nil
	}

	scratch := opts.Scratch
	if scratch == "" {
		scratch = os.TempDir()
	}

	nworkers := opts.NWorkers
	if nworkers <= 0 {
		nworkers = 1
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(nworkers)
	for _, iblock := range pending {
		iblock := iblock
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return b.workBlock(ctx, iblock, opts.BlockSize, nblocks, scratch)
		})
	}

	if err := eg.Wait(); err != nil {
		if errors.Is(err, solver.ErrInterrupted) || errors.Is(err, context.Canceled) {
			slog.Info("build interrupted; completed blocks are committed and resumable")
		}
		return err
	}
	return nil
}
