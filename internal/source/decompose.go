package source

import "fmt"

// mechanism fixes strike/dip/rake and unit dislocation of an elementary
// source. Values reproduce the respective canonical component when the
// source is embedded in an unbounded medium.
type mechanism struct {
	strike, dip, rake float64
	slip, opening     float64
}

var isoMechanisms = map[Component]mechanism{
	NN: {strike: 90, dip: 90, rake: 0, slip: 0, opening: 1},
	EE: {strike: 0, dip: 90, rake: 0, slip: 0, opening: 1},
	DD: {strike: 0, dip: 0, rake: -90, slip: 0, opening: 1},
}

var devMechanisms = map[Component]mechanism{
	NE: {strike: 90, dip: 90, rake: 180, slip: 1, opening: 0},
	ND: {strike: 180, dip: 0, rake: 0, slip: 1, opening: 0},
	ED: {strike: 270, dip: 0, rake: 0, slip: 1, opening: 0},
}

// Geometry places the elementary patches of one decomposition: all patches
// share position, size and origin time, only their mechanism differs.
type Geometry struct {
	Lat, Lon   float64
	Depth      float64
	Length     float64
	Width      float64
	OriginTime float64
}

func (g Geometry) apply(m mechanism) RectangularSource {
	return RectangularSource{
		Lat: g.Lat, Lon: g.Lon, Depth: g.Depth,
		Length: g.Length, Width: g.Width,
		Strike: m.strike, Dip: m.dip, Rake: m.rake,
		Slip: m.slip, Opening: m.opening,
		OriginTime: g.OriginTime,
	}
}

// Decompose converts one canonical moment-tensor component into its
// elementary rectangular sources.
//
// A deviatoric component yields exactly one shear source. An isotropic
// component yields three orthogonal tensile sources: the requested axis
// keeps full opening, the other two have their opening multiplied by the
// nullification factor, which cancels their isotropic contributions so the
// superposition acts as a pure explosive/implosive point source.
//
// The nullification factor must be computed by the caller from the moduli
// at the source depth (see Nullification); no modulus lookup happens here.
func Decompose(c Component, g Geometry, nullification float64) ([]RectangularSource, error) {
	switch {
	case c.Isotropic():
		out := make([]RectangularSource, 0, 3)
		for _, axis := range isotropics {
			m := isoMechanisms[axis]
			if axis != c {
				m.opening *= nullification
			}
			out = append(out, g.apply(m))
		}
		return out, nil

	case c >= NE && c <= ED:
		return []RectangularSource{g.apply(devMechanisms[c])}, nil

	default:
		return nil, fmt.Errorf("moment tensor component not supported: %d", int(c))
	}
}
