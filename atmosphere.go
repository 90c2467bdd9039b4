package shower

import "math"

// AtmosphereProfile converts a height above sea level (meters) into a
// vertical atmospheric column density (grammage, g/cm^2), used to derive
// Xmax from Hmax. Real deployments interpolate a
// tabulated profile; only this interface and one
// simple concrete implementation are defined here, kept minimal so a richer
// tabulated model can be supplied as an external collaborator without
// changing any caller.
type AtmosphereProfile interface {
	// ColumnDensity returns the grammage (g/cm^2) above the given height
	// (meters), integrated along the vertical.
	ColumnDensity(heightM float64) float64
}

// ExponentialAtmosphere is a single-scale-height exponential model,
// ColumnDensity(h) = rho0 * H * exp(-h/H), adequate for testing the stereo
// reconstructor's Xmax wiring without a tabulated US-Standard-Atmosphere
// table.
type ExponentialAtmosphere struct {
	ScaleHeightM    float64 // H
	SeaLevelDensity float64 // rho0, in g/cm^3-equivalent column units
}

// NewExponentialAtmosphere returns the standard ~CORSIKA-like approximation:
// scale height 8000 m, sea-level column density ~1030 g/cm^2/ScaleHeightM.
func NewExponentialAtmosphere() *ExponentialAtmosphere {
	return &ExponentialAtmosphere{ScaleHeightM: 8000.0, SeaLevelDensity: 1030.0 / 8000.0}
}

func (e *ExponentialAtmosphere) ColumnDensity(heightM float64) float64 {
	return e.SeaLevelDensity * e.ScaleHeightM * math.Exp(-heightM/e.ScaleHeightM)
}
