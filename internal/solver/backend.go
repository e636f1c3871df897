package solver

import (
	"fmt"
	"os/exec"
)

// Variants enumerates the supported releases of the modelling codes.
var Variants = []string{"2008a"}

// PsGrnProgram returns the executable name of the response solver for a
// variant.
func PsGrnProgram(variant string) string {
	return "fomosto_psgrn" + variant
}

// PsCmpProgram returns the executable name of the convolution solver for
// a variant.
func PsCmpProgram(variant string) string {
	return "fomosto_pscmp" + variant
}

// SupportedVariant reports whether both solver programs of a variant are
// known to this build.
func SupportedVariant(variant string) bool {
	for _, v := range Variants {
		if v == variant {
			return true
		}
	}
	return false
}

// HaveBackend reports whether both external programs of the given variant
// can be resolved on PATH.
func HaveBackend(variant string) bool {
	for _, program := range []string{PsGrnProgram(variant), PsCmpProgram(variant)} {
		if _, err := exec.LookPath(program); err != nil {
			return false
		}
	}
	return true
}

// CheckVariant returns a configuration error for unsupported variants.
func CheckVariant(variant string) error {
	if !SupportedVariant(variant) {
		return fmt.Errorf("unsupported solver variant: %s (supported: %v)",
			variant, Variants)
	}
	return nil
}
