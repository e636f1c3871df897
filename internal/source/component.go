// Package source decomposes canonical moment-tensor components into
// elementary rectangular dislocation sources and provides the elastic
// scaling factors that make their superposition a unit-moment point source.
package source

import "fmt"

// Component is one of the six canonical symmetric moment-tensor indices in
// NED (north, east, down) coordinates. The first three are isotropic
// (tensile) components, the remaining three deviatoric (shear) components.
type Component int

const (
	NN Component = iota
	EE
	DD
	NE
	ND
	ED
)

// Components lists all six canonical components in canonical order.
var Components = [...]Component{NN, EE, DD, NE, ND, ED}

// isotropics lists the tensile triad in canonical order.
var isotropics = [...]Component{NN, EE, DD}

var componentNames = [...]string{"nn", "ee", "dd", "ne", "nd", "ed"}

func (c Component) String() string {
	if c < NN || c > ED {
		return fmt.Sprintf("Component(%d)", int(c))
	}
	return componentNames[c]
}

// Isotropic reports whether the component maps to a triad of orthogonal
// tensile sources (true) or to a single shear source (false).
func (c Component) Isotropic() bool {
	return c == NN || c == EE || c == DD
}

// ParseComponent converts a canonical component name to its Component.
func ParseComponent(s string) (Component, error) {
	for i, name := range componentNames {
		if s == name {
			return Component(i), nil
		}
	}
	return 0, fmt.Errorf("unknown moment tensor component %q", s)
}
