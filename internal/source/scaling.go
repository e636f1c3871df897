package source

// Nullification returns the factor applied to the opening of two of the
// three tensile sources so that their isotropic components cancel:
//
//	-lambda / (2*mu + 2*lambda)
//
// For physically meaningful moduli (mu, lambda > 0) the factor lies in
// (-0.5, 0).
func Nullification(mu, lambda float64) float64 {
	return -lambda / (2.0*mu + 2.0*lambda)
}

// TraceNormalization returns the factor an elementary Green's function
// trace of an isotropic component must be multiplied by to represent unit
// displacement:
//
//	1 / (2*mu + lambda + 2*lambda*nullification)
func TraceNormalization(mu, lambda, nullification float64) float64 {
	return 1.0 / (2.0*mu + lambda + 2.0*lambda*nullification)
}

// IsoScaling derives both isotropic scaling factors from the moduli at the
// source depth. Computed once per block.
func IsoScaling(mu, lambda float64) (nullification, traceNorm float64) {
	nullification = Nullification(mu, lambda)
	traceNorm = TraceNormalization(mu, lambda, nullification)
	return nullification, traceNorm
}
