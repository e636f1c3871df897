package cli

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seismech/gfbuild/internal/builder"
	"github.com/seismech/gfbuild/internal/solver"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Force     bool
	Continue  bool
	NWorkers  int
	Step      int
	Block     int
	BlockSize int
	Scratch   string
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <store-dir>",
		Short: "Run the two-step store build",
		Long: `Run the store build: step 0 computes the layered-medium response with
the response solver, step 1 convolves elementary dislocation sources
block by block and fills the store.

An interrupted build leaves the store consistent; re-run with
--continue to resume from the last committed block.

Example:
  gfbuild build ./gf_stores/crust_visco --workers 4
  gfbuild build ./gf_stores/crust_visco --continue
  gfbuild build ./gf_stores/crust_visco --step 1 --block 3 -v`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "restart, ignoring previous build progress")
	cmd.Flags().BoolVar(&opts.Continue, "continue", false, "resume an interrupted build")
	cmd.Flags().IntVar(&opts.NWorkers, "workers", 1, "number of parallel block workers")
	cmd.Flags().IntVar(&opts.Step, "step", -1, "run a single step (0 or 1)")
	cmd.Flags().IntVar(&opts.Block, "block", -1, "run a single step-1 block")
	cmd.Flags().IntVar(&opts.BlockSize, "block-size", 0, "distances per step-1 block (0: all)")
	cmd.Flags().StringVar(&opts.Scratch, "scratch", "", "scratch directory for solver runs")

	return cmd
}

func runBuild(parentCtx context.Context, opts *BuildOptions, storeDir string) error {
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := builder.New(storeDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer func() {
		if closeErr := b.Close(); closeErr != nil {
			slog.Error("error closing store", "error", closeErr)
		}
	}()

	buildOpts := builder.Options{
		Force:     opts.Force,
		Continue:  opts.Continue,
		NWorkers:  opts.NWorkers,
		BlockSize: opts.BlockSize,
		Scratch:   opts.Scratch,
	}
	if opts.Step >= 0 {
		step := opts.Step
		buildOpts.Step = &step
	}
	if opts.Block >= 0 {
		block := opts.Block
		buildOpts.Block = &block
	}

	if err := b.Run(ctx, buildOpts); err != nil {
		if errors.Is(err, solver.ErrInterrupted) || errors.Is(err, context.Canceled) {
			return WrapExitError(ExitFailure, "build interrupted", err)
		}
		var cfgErr *solver.ConfigError
		if errors.As(err, &cfgErr) {
			return WrapExitError(ExitCommandError, "build not started", err)
		}
		return WrapExitError(ExitFailure, "build failed", err)
	}

	slog.Info("build complete", "dir", storeDir)
	return nil
}
