package source

import "math"

// RectangularSource is a rectangular dislocation patch with a single
// slip/opening mechanism. Coordinates lat/lon in degrees, depth, lengths
// and dislocations in meters, angles in degrees, origin time in days.
//
// Instances are constructed per canonical component per block, fed to the
// convolution solver and then discarded; they have no persistent identity.
type RectangularSource struct {
	Lat, Lon float64
	Depth    float64
	Length   float64
	Width    float64
	Strike   float64
	Dip      float64
	Rake     float64
	Slip     float64
	Opening  float64

	// PosS, PosD shift the patch center along strike and down dip [m].
	PosS, PosD float64

	OriginTime float64
}

// dsin and dcos evaluate degree-based trigonometry; the solver's angular
// convention is degrees throughout.
func dsin(deg float64) float64 {
	return math.Sin(deg * math.Pi / 180.0)
}

func dcos(deg float64) float64 {
	return math.Cos(deg * math.Pi / 180.0)
}

// DipSlip returns the down-dip slip projection slip*sin(rake)*(-1).
func (s RectangularSource) DipSlip() float64 {
	return s.Slip * dsin(s.Rake) * -1.0
}

// StrikeSlip returns the along-strike slip projection slip*cos(rake).
func (s RectangularSource) StrikeSlip() float64 {
	return s.Slip * dcos(s.Rake)
}
