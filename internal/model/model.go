// Package model holds the layered 1-D viscoelastic earth model consumed by
// the build. Models are immutable once constructed; workers share them
// without synchronization.
package model

import (
	"fmt"
	"sort"
)

// Layer is one row of the layered model. All quantities are SI: depth in
// meters, velocities in m/s, density in kg/m^3, viscosities in Pa*s.
//
// A viscosity <= 0 means infinity (purely elastic behaviour for that
// mechanism). Alpha is the ratio between effective and unrelaxed shear
// modulus of the Burgers rheology, in (0, 1].
type Layer struct {
	Depth      float64
	VP         float64
	VS         float64
	Rho        float64
	EtaKelvin  float64 // transient (Kelvin-Voigt) viscosity
	EtaMaxwell float64 // steady-state (Maxwell) viscosity
	Alpha      float64
}

// Mu returns the shear modulus rho*vs^2 [Pa].
func (l Layer) Mu() float64 {
	return l.Rho * l.VS * l.VS
}

// Lambda returns the Lame parameter rho*vp^2 - 2*mu [Pa].
func (l Layer) Lambda() float64 {
	return l.Rho*l.VP*l.VP - 2.0*l.Mu()
}

// ElasticModel is an ordered stack of layers. Depths are non-decreasing;
// repeated depths describe a discontinuity (upper-side and lower-side
// values on consecutive rows), matching the solver's input convention.
type ElasticModel struct {
	layers []Layer
}

// New validates the layer stack and wraps it in an immutable model.
func New(layers []Layer) (*ElasticModel, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("elastic model: need at least one layer")
	}
	for i, l := range layers {
		if i > 0 && l.Depth < layers[i-1].Depth {
			return nil, fmt.Errorf(
				"elastic model: depth decreases at row %d: %g after %g",
				i+1, l.Depth, layers[i-1].Depth)
		}
		if l.VP <= 0 || l.Rho <= 0 {
			return nil, fmt.Errorf("elastic model: non-positive vp or rho at row %d", i+1)
		}
		if l.VS < 0 {
			return nil, fmt.Errorf("elastic model: negative vs at row %d", i+1)
		}
	}
	cp := make([]Layer, len(layers))
	copy(cp, layers)
	return &ElasticModel{layers: cp}, nil
}

// Layers returns a copy of the layer stack.
func (m *ElasticModel) Layers() []Layer {
	cp := make([]Layer, len(m.layers))
	copy(cp, m.layers)
	return cp
}

// NLayers returns the number of model rows.
func (m *ElasticModel) NLayers() int {
	return len(m.layers)
}

// At returns the layer governing the given depth: the deepest row whose
// depth is at or above the query. Queries above the first row return the
// first row.
func (m *ElasticModel) At(depth float64) Layer {
	// First row with Depth > depth; the row before it governs.
	i := sort.Search(len(m.layers), func(i int) bool {
		return m.layers[i].Depth > depth
	})
	if i == 0 {
		return m.layers[0]
	}
	return m.layers[i-1]
}

// Moduli bundles the elastic moduli at one source depth.
type Moduli struct {
	Mu     float64
	Lambda float64
}

// ModuliTable precomputes (mu, lambda) for each of the given depths so
// blocks can look their values up without touching the model again.
func (m *ElasticModel) ModuliTable(depths []float64) []Moduli {
	out := make([]Moduli, len(depths))
	for i, z := range depths {
		l := m.At(z)
		out[i] = Moduli{Mu: l.Mu(), Lambda: l.Lambda()}
	}
	return out
}
