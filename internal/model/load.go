package model

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Load reads a layered model from a plain-text file. One layer per line:
//
//	depth[m] vp[m/s] vs[m/s] rho[kg/m^3] eta_kelvin[Pa*s] eta_maxwell[Pa*s] alpha
//
// The two viscosity columns and alpha may be omitted for purely elastic
// layers. Blank lines and lines starting with '#' are ignored.
func Load(path string) (*ElasticModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	defer f.Close()

	var layers []Layer
	sc := bufio.NewScanner(f)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 && len(fields) != 7 {
			return nil, fmt.Errorf(
				"load model: line %d: want 4 or 7 columns, got %d", lineno, len(fields))
		}
		vals := make([]float64, len(fields))
		for i, fs := range fields {
			v, err := strconv.ParseFloat(fs, 64)
			if err != nil {
				return nil, fmt.Errorf("load model: line %d, column %d: %w", lineno, i+1, err)
			}
			vals[i] = v
		}
		l := Layer{Depth: vals[0], VP: vals[1], VS: vals[2], Rho: vals[3], Alpha: 1.0}
		if len(vals) == 7 {
			l.EtaKelvin = vals[4]
			l.EtaMaxwell = vals[5]
			l.Alpha = vals[6]
		}
		layers = append(layers, l)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return New(layers)
}

// Default returns a simple two-layer continental model with a viscous
// mantle, good enough to initialize a fresh store with.
func Default() *ElasticModel {
	m, err := New([]Layer{
		{Depth: 0, VP: 5800, VS: 3200, Rho: 2600, Alpha: 1},
		{Depth: 17000, VP: 6500, VS: 3650, Rho: 2870, Alpha: 1},
		{Depth: 32000, VP: 8000, VS: 4600, Rho: 3300,
			EtaKelvin: 5e17, EtaMaxwell: 1e19, Alpha: 1},
	})
	if err != nil {
		panic(err)
	}
	return m
}

// Save writes the model in the format read by Load.
func Save(path string, m *ElasticModel) error {
	var b strings.Builder
	b.WriteString("# depth[m] vp[m/s] vs[m/s] rho[kg/m^3] eta_kelvin[Pa*s] eta_maxwell[Pa*s] alpha\n")
	for _, l := range m.Layers() {
		fmt.Fprintf(&b, "%g %g %g %g %g %g %g\n",
			l.Depth, l.VP, l.VS, l.Rho, l.EtaKelvin, l.EtaMaxwell, l.Alpha)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
