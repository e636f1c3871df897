package solver

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/seismech/gfbuild/internal/source"
)

// Observation selects where the convolution solver evaluates the field:
// scattered points, a 1-D profile or a 2-D array.
type Observation interface {
	// swCode is the iposrec switch value of the input protocol.
	swCode() int
	// render returns the point-count line and the position line(s).
	render() (npoints string, positions string)
}

// ScatterObservation evaluates at irregular (lat, lon) positions.
type ScatterObservation struct {
	Lats []float64
	Lons []float64
}

func (o ScatterObservation) swCode() int { return 0 }

func (o ScatterObservation) render() (string, string) {
	rows := make([]string, len(o.Lats))
	for i := range o.Lats {
		rows[i] = fmt.Sprintf("(%15f, %15f)", o.Lats[i], o.Lons[i])
	}
	return fmt.Sprintf(" %d", len(rows)), strings.Join(rows, "\n")
}

// ProfileObservation evaluates along a regular profile between two points.
// Distances records the receiver distance [m] of each sample for mapping
// solver output rows back to grid nodes.
type ProfileObservation struct {
	NSteps     int
	SLat, SLon float64
	ELat, ELon float64
	Distances  []float64
}

func (o ProfileObservation) swCode() int { return 1 }

func (o ProfileObservation) render() (string, string) {
	return fmt.Sprintf(" %d", o.NSteps),
		fmt.Sprintf(" ( %15f, %15f ), ( %15f, %15f )", o.SLat, o.SLon, o.ELat, o.ELon)
}

// ArrayObservation evaluates on a regular 2-D lat/lon grid.
type ArrayObservation struct {
	NLat       int
	SLat, ELat float64
	NLon       int
	SLon, ELon float64
}

func (o ArrayObservation) swCode() int { return 2 }

func (o ArrayObservation) render() (string, string) {
	return fmt.Sprintf(" %d %15f %15f ", o.NLat, o.SLat, o.ELat),
		fmt.Sprintf(" %d %15f %15f ", o.NLon, o.SLon, o.ELon)
}

// Snapshots defines the output time series: spatial snapshots at regular
// times [days after origin].
type Snapshots struct {
	TMinDays  float64
	TMaxDays  float64
	DeltaDays float64
}

// Times returns the snapshot times [days]. A window shorter than one step
// collapses to a single coseismic snapshot at TMinDays.
func (s Snapshots) Times() []float64 {
	nt := int(math.Ceil((s.TMaxDays - s.TMinDays) / s.DeltaDays))
	if nt < 1 {
		nt = 1
	}
	times := make([]float64, nt)
	if nt == 1 {
		times[0] = s.TMinDays
		return times
	}
	step := (s.TMaxDays - s.TMinDays) / float64(nt-1)
	for i := range times {
		times[i] = s.TMinDays + float64(i)*step
	}
	return times
}

// DeltaT returns the sample interval in seconds.
func (s Snapshots) DeltaT() float64 {
	return s.DeltaDays * 24 * 3600
}

// CoulombMasterFault parameterizes the optional Coulomb stress output:
// a uniform regional master fault mechanism and principal stresses [Pa].
type CoulombMasterFault struct {
	Friction      float64
	SkemptonRatio float64
	Strike        float64
	Dip           float64
	Rake          float64
	Sigma1        float64
	Sigma2        float64
	Sigma3        float64
}

func (c CoulombMasterFault) render() string {
	return fmt.Sprintf("%15e %15e %15f%15f %15f%15e %15e %15e",
		c.Friction, c.SkemptonRatio, c.Strike, c.Dip, c.Rake,
		c.Sigma1, c.Sigma2, c.Sigma3)
}

// SnapshotBaseName is the basename of the convolution solver's snapshot
// output files: snapshot_<i>.txt, 1-based.
const SnapshotBaseName = "snapshot"

// PsCmpConfig assembles one complete input file for the convolution
// solver. Like the response solver it parses positionally.
type PsCmpConfig struct {
	Observation Observation
	Snapshots   Snapshots

	// GFDir is where the response solver left its Green's function files.
	// Must end with a path separator in the rendered input.
	GFDir string

	// LOSVector enables line-of-sight displacement output when non-nil.
	LOSVector *[3]float64

	// Coulomb enables Coulomb stress output when non-nil.
	Coulomb *CoulombMasterFault

	SourcePatches []source.RectangularSource

	// Per-observable switches for separate time-series output files.
	DisplOutput   [3]bool
	StressOutput  [6]bool
	TiltOutput    [3]bool
	GravityOutput [2]bool

	InDisplFilenames   [3]string
	InStressFilenames  [6]string
	InTiltFilenames    [3]string
	InGravityFilenames [2]string

	OutDisplFilenames   [3]string
	OutStressFilenames  [6]string
	OutTiltFilenames    [3]string
	OutGravityFilenames [2]string
}

// NewPsCmpConfig returns a config wired to the conventional response
// solver file names and NED output names.
func NewPsCmpConfig() PsCmpConfig {
	return PsCmpConfig{
		InDisplFilenames:    PsGrnDisplNames,
		InStressFilenames:   PsGrnStressNames,
		InTiltFilenames:     PsGrnTiltNames,
		InGravityFilenames:  PsGrnGravityNames,
		OutDisplFilenames:   PsCmpDisplNames,
		OutStressFilenames:  PsCmpStressNames,
		OutTiltFilenames:    PsCmpTiltNames,
		OutGravityFilenames: PsCmpGravityNames,
	}
}

// SnapshotFilenames returns the snapshot output files the solver will
// write into rundir, in time order.
func (c *PsCmpConfig) SnapshotFilenames() []string {
	times := c.Snapshots.Times()
	names := make([]string, len(times))
	for i := range times {
		names[i] = fmt.Sprintf("%s_%d.txt", SnapshotBaseName, i+1)
	}
	return names
}

func boolSwitches(bs []bool) string {
	vals := make([]int, len(bs))
	for i, b := range bs {
		vals[i] = boolSwitch(b)
	}
	return intVals(vals...)
}

// renderPatch formats one elementary rectangular source as the two-line
// subfault record: reference point and geometry with a 1x1 patch grid,
// then the patch position and dislocation row.
func renderPatch(i int, s source.RectangularSource) string {
	return fmt.Sprintf(
		"%d %15f %15f %15f%15f %15f %15f%15f 1 1 %15f \n"+
			" %15f %15f %15f %15f %15f",
		i+1, s.Lat, s.Lon, s.Depth/km,
		s.Length/km, s.Width/km, s.Strike,
		s.Dip, s.OriginTime,
		s.PosS, s.PosD, s.StrikeSlip(), s.DipSlip(), s.Opening)
}

// Render produces the text input consumed by the convolution solver.
func (c *PsCmpConfig) Render() ([]byte, error) {
	if c.Observation == nil {
		return nil, fmt.Errorf("pscmp config: no observation")
	}
	if c.GFDir == "" {
		return nil, fmt.Errorf("pscmp config: no Green's function directory")
	}
	if len(c.SourcePatches) == 0 {
		return nil, fmt.Errorf("pscmp config: no source patches")
	}

	gfdir := c.GFDir
	if !strings.HasSuffix(gfdir, "/") {
		gfdir += "/"
	}

	npoints, positions := c.Observation.render()

	var losVector string
	if c.LOSVector != nil {
		losVector = floatVals(c.LOSVector[0], c.LOSVector[1], c.LOSVector[2])
	}
	var coulomb string
	if c.Coulomb != nil {
		coulomb = c.Coulomb.render()
	}

	times := c.Snapshots.Times()
	var snapshotLines strings.Builder
	for i, t := range times {
		fmt.Fprintf(&snapshotLines, "%f  '%s_%d.txt'\n", t, SnapshotBaseName, i+1)
	}
	snapshotLines.WriteString("#")

	patchRows := make([]string, len(c.SourcePatches))
	for i, p := range c.SourcePatches {
		patchRows[i] = renderPatch(i, p)
	}

	var b bytes.Buffer
	b.WriteString("# autogenerated input for the pscmp08 convolution solver\n")

	b.WriteString("#\n# observation array: iposrec switch, point count, positions\n")
	fmt.Fprintf(&b, " %d\n", c.Observation.swCode())
	fmt.Fprintf(&b, "%s\n", npoints)
	fmt.Fprintf(&b, "%s\n", positions)

	b.WriteString("#\n# outputs: los switch + vector, coulomb switch + master fault,\n")
	b.WriteString("# output directory, per-observable file switches and names, snapshots\n")
	fmt.Fprintf(&b, " %d    %s\n", boolSwitch(c.LOSVector != nil), losVector)
	fmt.Fprintf(&b, " %d    %s\n", boolSwitch(c.Coulomb != nil), coulomb)
	fmt.Fprintf(&b, " '%s'\n", "./")
	fmt.Fprintf(&b, " %s\n", boolSwitches(c.DisplOutput[:]))
	fmt.Fprintf(&b, " %s\n", strVals(c.OutDisplFilenames[:]...))
	fmt.Fprintf(&b, " %s\n", boolSwitches(c.StressOutput[:]))
	fmt.Fprintf(&b, " %s\n", strVals(c.OutStressFilenames[:]...))
	fmt.Fprintf(&b, " %s    %s\n", boolSwitches(c.TiltOutput[:]), boolSwitches(c.GravityOutput[:]))
	fmt.Fprintf(&b, " %s %s\n", strVals(c.OutTiltFilenames[:]...), strVals(c.OutGravityFilenames[:]...))
	fmt.Fprintf(&b, " %d\n", len(times))
	fmt.Fprintf(&b, "%s\n", snapshotLines.String())

	b.WriteString("#\n# Green's function database: directory and the 13 input file names\n")
	fmt.Fprintf(&b, " '%s'\n", gfdir)
	fmt.Fprintf(&b, " %s\n", strVals(c.InDisplFilenames[:]...))
	fmt.Fprintf(&b, " %s\n", strVals(c.InStressFilenames[:]...))
	fmt.Fprintf(&b, " %s    %s\n", strVals(c.InTiltFilenames[:]...), strVals(c.InGravityFilenames[:]...))

	b.WriteString("#\n# rectangular subfaults\n")
	fmt.Fprintf(&b, " %d\n", len(c.SourcePatches))
	b.WriteString("# n O_lat[deg] O_lon[deg] O_depth[km] length[km] width[km] strike dip np_st np_di t0[day]\n")
	b.WriteString("#   pos_s[km] pos_d[km] slp_stk[m] slp_ddip[m] open[m]\n")
	fmt.Fprintf(&b, "%s\n", strings.Join(patchRows, "\n"))
	b.WriteString("#================================end of input===================================\n")

	return b.Bytes(), nil
}
