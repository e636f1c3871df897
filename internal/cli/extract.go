package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/seismech/gfbuild/internal/gfdb"
	"github.com/seismech/gfbuild/internal/store"
)

// ExtractOptions holds flags for the extract command.
type ExtractOptions struct {
	*RootOptions
	SourceDepthMin float64
	SourceDepthMax float64
	DistanceMin    float64
	DistanceMax    float64
	Components     []int
	Output         string
}

// NewExtractCommand creates the extract command.
func NewExtractCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExtractOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "extract <store-dir>",
		Short: "Dump stored traces as text",
		Long: `Extract traces from a built store as a plain-text table, optionally
restricted to ranges of source depth, distance and component index.
One line per trace: the key columns, tmin, deltat, the sample count and
the samples.

Example:
  gfbuild extract ./gf_stores/crust_visco
  gfbuild extract ./gf_stores/crust_visco --distance-max 20000 --component 0 -o traces.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, opts, args[0])
		},
	}

	cmd.Flags().Float64Var(&opts.SourceDepthMin, "sdepth-min", 0, "minimum source depth [m]")
	cmd.Flags().Float64Var(&opts.SourceDepthMax, "sdepth-max", 0, "maximum source depth [m]")
	cmd.Flags().Float64Var(&opts.DistanceMin, "distance-min", 0, "minimum distance [m]")
	cmd.Flags().Float64Var(&opts.DistanceMax, "distance-max", 0, "maximum distance [m]")
	cmd.Flags().IntSliceVar(&opts.Components, "component", nil, "component indexes (repeatable)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func runExtract(cmd *cobra.Command, opts *ExtractOptions, storeDir string) error {
	cfg, err := gfdb.ReadConfig(storeDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}

	st, err := store.Open(storeDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()

	sel := store.Selection{Components: opts.Components}
	if cmd.Flags().Changed("sdepth-min") {
		sel.SourceDepthMin = &opts.SourceDepthMin
	}
	if cmd.Flags().Changed("sdepth-max") {
		sel.SourceDepthMax = &opts.SourceDepthMax
	}
	if cmd.Flags().Changed("distance-min") {
		sel.DistanceMin = &opts.DistanceMin
	}
	if cmd.Flags().Changed("distance-max") {
		sel.DistanceMax = &opts.DistanceMax
	}

	records, err := st.Select(cmd.Context(), sel)
	if err != nil {
		return WrapExitError(ExitFailure, "extraction failed", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output file", err)
		}
		defer f.Close()
		w = f
	}

	fmt.Fprintf(w, "# store %s: %d traces\n", cfg.ID, len(records))
	fmt.Fprintf(w, "# receiver_depth source_depth distance component tmin deltat n samples...\n")
	for _, r := range records {
		fmt.Fprintf(w, "%g %g %g %d %g %g %d",
			r.Key.ReceiverDepth, r.Key.SourceDepth, r.Key.Distance,
			r.Key.Component, r.Trace.TMin, r.Trace.DeltaT, len(r.Trace.Data))
		for _, v := range r.Trace.Data {
			fmt.Fprintf(w, " %e", v)
		}
		fmt.Fprintln(w)
	}
	return nil
}
