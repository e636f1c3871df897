package solver

import (
	"bytes"
	"fmt"

	"github.com/seismech/gfbuild/internal/model"
)

// PsGrnConfig assembles one complete input file for the response solver.
// The program parses positionally; field ordering and counts below must
// not change. Comment lines are ignored by the solver and emitted purely
// for the benefit of anyone reading the generated file.
type PsGrnConfig struct {
	// ObservationDepth is the uniform depth of the observation points [m].
	ObservationDepth float64

	// Continental selects the continental source regime (vs. oceanic).
	Continental bool

	DistanceGrid SpatialSampling
	DepthGrid    SpatialSampling

	// SamplingInterval >= 1; 1.0 means equidistant distance sampling.
	SamplingInterval float64

	// NTimeSamples is rounded up to the next power of two at render time
	// (FFT rule). MaxTime is the time window [days].
	NTimeSamples int
	MaxTimeDays  float64

	// Accuracy of the wavenumber integration, suggested 0.1 - 0.01.
	Accuracy float64

	// Gravity includes the influence of earth's gravity on the field.
	Gravity bool

	Model *model.ElasticModel

	DisplFilenames   [3]string
	StressFilenames  [6]string
	TiltFilenames    [3]string
	GravityFilenames [2]string
}

// NewPsGrnConfig returns a config with the conventional output file names
// and solver defaults filled in.
func NewPsGrnConfig() PsGrnConfig {
	return PsGrnConfig{
		Continental:      true,
		SamplingInterval: 1.0,
		Accuracy:         0.025,
		DisplFilenames:   PsGrnDisplNames,
		StressFilenames:  PsGrnStressNames,
		TiltFilenames:    PsGrnTiltNames,
		GravityFilenames: PsGrnGravityNames,
	}
}

// Render produces the text input consumed by the response solver. The
// output directory is always './': the solver runs inside the exchange
// directory.
func (c *PsGrnConfig) Render() ([]byte, error) {
	if c.Model == nil {
		return nil, fmt.Errorf("psgrn config: no earth model")
	}
	if c.DistanceGrid.N < 1 || c.DepthGrid.N < 1 {
		return nil, fmt.Errorf("psgrn config: empty sampling grid")
	}

	modelRows, nModelRows := renderModelRows(c.Model)

	var b bytes.Buffer
	b.WriteString("# autogenerated input for the psgrn08a response solver\n")

	b.WriteString("#\n# source-observation configuration:\n")
	b.WriteString("# observation depth [km], source regime switch (0 ocean, 1 continental)\n")
	b.WriteString("# n distances, start/end distance [km], sampling ratio\n")
	b.WriteString("# n source depths, start/end source depth [km]\n")
	fmt.Fprintf(&b, " %e  %d\n", c.ObservationDepth/km, boolSwitch(c.Continental))
	fmt.Fprintf(&b, " %s  %e\n", c.DistanceGrid.render(), c.SamplingInterval)
	fmt.Fprintf(&b, " %s\n", c.DepthGrid.render())

	b.WriteString("#\n# time sampling: n samples (power of 2), time window [days]\n")
	fmt.Fprintf(&b, " %d    %f\n", nextPow2(c.NTimeSamples), c.MaxTimeDays)

	b.WriteString("#\n# wavenumber integration accuracy, gravity switch\n")
	fmt.Fprintf(&b, " %e\n", c.Accuracy)
	fmt.Fprintf(&b, " %d\n", boolSwitch(c.Gravity))

	b.WriteString("#\n# output directory and file names (displacement, stress,\n")
	b.WriteString("# tilt + gravity); extensions .ep/.ss/.ds/.cl appended by the solver\n")
	fmt.Fprintf(&b, " '%s'\n", "./")
	fmt.Fprintf(&b, " %s\n", strVals(c.DisplFilenames[:]...))
	fmt.Fprintf(&b, " %s\n", strVals(c.StressFilenames[:]...))
	fmt.Fprintf(&b, " %s %s\n", strVals(c.TiltFilenames[:]...), strVals(c.GravityFilenames[:]...))

	b.WriteString("#\n# layered model:\n")
	fmt.Fprintf(&b, " %d\n", nModelRows)
	b.WriteString("# no depth[km] vp[km/s] vs[km/s] rho[kg/m^3] eta1[Pa*s] eta2[Pa*s] alpha\n")
	b.WriteString(modelRows)
	b.WriteString("\n#=======================end of input===========================================\n")

	return b.Bytes(), nil
}
