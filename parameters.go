package shower

import "math"

// ExtraParameters hold simulation-truth comparison fields, filled only when
// truth is available.
type ExtraParameters struct {
	Miss    float64
	Disp    float64
	Theta   float64
	TruePsi float64
	CogErr  float64
	BetaErr float64
}

// ImageParameters is the full set of per-telescope, per-event image
// parameters computed by parameterization.
type ImageParameters struct {
	Hillas        HillasParameters
	Leakage       LeakageParameters
	Concentration ConcentrationParameters
	Morphology    MorphologyParameters
	Intensity     IntensityParameters
	Extra         *ExtraParameters
}

// ComputeImageParameters runs the full parameterization stage
// over a cleaned image: Hillas moments first (everything else either
// depends on it or shares the same NaN-on-degenerate-mask contract),
// then leakage, concentration, morphology and intensity statistics.
func ComputeImageParameters(cam *CameraGeometry, image []float64, mask []bool) ImageParameters {
	hillas := HillasMoments(cam, image, mask)
	return ImageParameters{
		Hillas:        hillas,
		Leakage:       ComputeLeakage(cam, image, mask),
		Concentration: ComputeConcentration(cam, image, mask, hillas),
		Morphology:    ComputeMorphology(cam, mask),
		Intensity:     ComputeIntensityStats(image, mask),
	}
}

// ComputeExtraParameters derives the disp-method simulation-truth comparison
// fields for one telescope's Hillas ellipse: the true shower direction is
// projected into this telescope's camera frame from its pointing direction,
// then compared against the fitted centroid and major axis.
func ComputeExtraParameters(hillas HillasParameters, focalLength float64, pointing TelPointing, truth SimulatedShower) ExtraParameters {
	offset := SkyToNominal(truth.Alt, truth.Az, pointing.Altitude, pointing.Azimuth)
	srcX := offset.Xi * focalLength
	srcY := offset.Eta * focalLength

	dx := srcX - hillas.X
	dy := srcY - hillas.Y

	cosPsi, sinPsi := math.Cos(hillas.Psi), math.Sin(hillas.Psi)
	miss := math.Abs(dx*sinPsi - dy*cosPsi)
	disp := math.Hypot(dx, dy)
	truePsi := math.Atan2(dy, dx)
	theta := normalizeAxisAngle(truePsi - hillas.Psi)

	alongAxis := dx*cosPsi + dy*sinPsi
	cogErr := disp - alongAxis

	originAngle := math.Atan2(-hillas.Y, -hillas.X)
	betaErr := normalizeAxisAngle(truePsi - originAngle)

	return ExtraParameters{
		Miss:    miss,
		Disp:    disp,
		Theta:   theta,
		TruePsi: truePsi,
		CogErr:  cogErr,
		BetaErr: betaErr,
	}
}

// normalizeAxisAngle wraps an angle difference into (-pi/2, pi/2]: a Hillas
// major axis is a line, not a ray, so psi and psi+pi describe the same axis.
func normalizeAxisAngle(d float64) float64 {
	for d > math.Pi/2 {
		d -= math.Pi
	}
	for d <= -math.Pi/2 {
		d += math.Pi
	}
	return d
}
