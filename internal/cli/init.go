package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/seismech/gfbuild/internal/builder"
	"github.com/seismech/gfbuild/internal/solver"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Variant string
	Force   bool
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init <store-dir>",
		Short: "Initialize a new Green's function store",
		Long: `Initialize a new store directory: a default configuration, a default
layered earth model and an empty index. Edit config.yaml and the model
file before building.

Example:
  gfbuild init ./gf_stores/crust_visco
  gfbuild init ./gf_stores/crust_visco --variant 2008a --force`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Variant, "variant", "", "modelling code variant (default: newest supported)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing store")

	return cmd
}

func runInit(opts *InitOptions, storeDir string) error {
	if err := builder.InitStore(storeDir, opts.Variant, opts.Force); err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize store", err)
	}
	slog.Info("store initialized", "dir", storeDir)

	variant := opts.Variant
	if variant == "" {
		variant = solver.Variants[0]
	}
	if !solver.HaveBackend(variant) {
		slog.Warn("modelling code executables not found on PATH; install them before building",
			"psgrn", solver.PsGrnProgram(variant),
			"pscmp", solver.PsCmpProgram(variant))
	}
	return nil
}
