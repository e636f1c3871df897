package solver

import (
	"fmt"
	"math"
	"strings"

	"github.com/seismech/gfbuild/internal/model"
)

// The solver input files use km for lengths; SI meters everywhere else.
const km = 1000.0

// nextPow2 rounds up to the next power of two (FFT rule of the time
// sampling block).
func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << int(math.Ceil(math.Log2(float64(n))))
}

func floatVals(vals ...float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%e", v)
	}
	return strings.Join(parts, " ")
}

func intVals(vals ...int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, " ")
}

func strVals(vals ...string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("'%s'", v)
	}
	return strings.Join(parts, " ")
}

func boolSwitch(b bool) int {
	if b {
		return 1
	}
	return 0
}

// renderModelRows formats the layered model as indexed solver rows:
//
//	no depth[km] vp[km/s] vs[km/s] rho[kg/m^3] eta1[Pa*s] eta2[Pa*s] alpha
func renderModelRows(m *model.ElasticModel) (string, int) {
	layers := m.Layers()
	rows := make([]string, len(layers))
	for i, l := range layers {
		rows[i] = fmt.Sprintf("%d %15s", i+1, floatVals(
			l.Depth/km, l.VP/km, l.VS/km, l.Rho,
			l.EtaKelvin, l.EtaMaxwell, l.Alpha))
	}
	return strings.Join(rows, "\n"), len(rows)
}

// SpatialSampling is one equidistant sampling block of the response solver
// input: sample count plus start/end coordinate [m].
type SpatialSampling struct {
	N     int
	Start float64
	End   float64
}

func (s SpatialSampling) render() string {
	return fmt.Sprintf("%d %15e %15e", s.N, s.Start/km, s.End/km)
}
