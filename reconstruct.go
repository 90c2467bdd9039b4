package shower

import (
	"math"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/mat"
)

// minSin2Alpha is the near-parallel-axis rejection threshold for the pairwise
// axis intersection: pairs whose sin^2(alpha) falls below this are dropped.
const minSin2Alpha = 1e-6

// maxConditionNumber rejects ill-conditioned core-position normal equations.
const maxConditionNumber = 1e12

// TelescopeHillasInput bundles the per-telescope inputs to stereo
// reconstruction: ground position, pointing direction, Hillas ellipse, and
// the optics needed to project the ellipse into the nominal frame.
type TelescopeHillasInput struct {
	TelID                int
	Position             Position3
	Pointing             TelPointing
	Hillas               HillasParameters
	EffectiveFocalLength float64
}

// HillasReconstructor implements the stereoscopic Hillas reconstruction
// algorithm: per-telescope ellipse axes intersected in the nominal frame,
// a weighted-least-squares core position, and an Hmax/Xmax estimate.
type HillasReconstructor struct {
	Name       string
	Atmosphere AtmosphereProfile
}

// NewHillasReconstructor returns a reconstructor named `name`, using atm for
// the Hmax -> Xmax integration. If atm is nil, an
// ExponentialAtmosphere is used.
func NewHillasReconstructor(name string, atm AtmosphereProfile) *HillasReconstructor {
	if atm == nil {
		atm = NewExponentialAtmosphere()
	}
	return &HillasReconstructor{Name: name, Atmosphere: atm}
}

type telNominal struct {
	telID    int
	centroid NominalCoord // (xi_t, eta_t), full nominal-frame position of the Hillas centroid
	axis     NominalCoord // unit vector (cos psi_t, sin psi_t)
	intensity float64
	length, width float64
}

// Reconstruct combines the per-telescope Hillas ellipses of `inputs` into a
// single shower direction, core position, Hmax/Xmax, and per-telescope
// impact parameters. `arrayPointing` gives the array-level
// pointing center used to build the shared nominal frame. `truth`, if
// non-nil, is used to fill DirectionError.
func (r *HillasReconstructor) Reconstruct(
	inputs []TelescopeHillasInput,
	arrayPointing PointingInfo,
	truth *SimulatedShower,
) (ReconstructedGeometry, map[int]ImpactParameter) {

	if len(inputs) < 2 {
		return ReconstructedGeometry{IsValid: false}, nil
	}

	tels := make([]telNominal, 0, len(inputs))
	telIDs := make([]int, 0, len(inputs))
	for _, in := range inputs {
		if math.IsNaN(in.Hillas.Intensity) || in.Hillas.Intensity <= 0 {
			continue
		}

		offset := SkyToNominal(in.Pointing.Altitude, in.Pointing.Azimuth, arrayPointing.ArrayAltitude, arrayPointing.ArrayAzimuth)
		cam := CameraToNominal(in.Hillas.X, in.Hillas.Y, in.EffectiveFocalLength, 0)
		centroid := NominalCoord{Xi: offset.Xi + cam.Xi, Eta: offset.Eta + cam.Eta}

		tels = append(tels, telNominal{
			telID:     in.TelID,
			centroid:  centroid,
			axis:      NominalCoord{Xi: math.Cos(in.Hillas.Psi), Eta: math.Sin(in.Hillas.Psi)},
			intensity: in.Hillas.Intensity,
			length:    in.Hillas.Length,
			width:     in.Hillas.Width,
		})
		telIDs = append(telIDs, in.TelID)
	}

	if len(tels) < 2 {
		return ReconstructedGeometry{IsValid: false}, nil
	}

	xi, eta, altUnc, azUnc, ok := intersectAxes(tels)
	if !ok {
		return ReconstructedGeometry{IsValid: false}, nil
	}

	direction := NominalToSky(NominalCoord{Xi: xi, Eta: eta}, arrayPointing.ArrayAltitude, arrayPointing.ArrayAzimuth)

	coreX, coreY, coreErr, ok := solveCorePosition(inputs, arrayPointing)
	if !ok {
		return ReconstructedGeometry{IsValid: false}, nil
	}

	impacts := make(map[int]ImpactParameter, len(inputs))
	for _, in := range inputs {
		dist := math.Hypot(in.Position.X-coreX, in.Position.Y-coreY)
		impacts[in.TelID] = ImpactParameter{Distance: dist, DistanceError: coreErr}
	}

	hmax := r.computeHmax(tels, xi, eta, impacts)
	zenith := math.Pi/2 - float64(direction.Alt)
	xmax := r.Atmosphere.ColumnDensity(hmax)
	if math.Cos(zenith) > 1e-3 {
		xmax /= math.Cos(zenith)
	}

	geom := ReconstructedGeometry{
		IsValid:        true,
		Alt:            direction.Alt,
		Az:             direction.Az,
		AltUncertainty: unit.Angle(altUnc),
		AzUncertainty:  unit.Angle(azUnc),
		CoreX:          coreX,
		CoreY:          coreY,
		CorePosError:   coreErr,
		Hmax:           hmax,
		Xmax:           xmax,
		Telescopes:     telIDs,
	}

	if truth != nil {
		geom.DirectionError = AngularSeparation(SkyCoord{Alt: direction.Alt, Az: direction.Az}, SkyCoord{Alt: truth.Alt, Az: truth.Az})
	}

	return geom, impacts
}

// intersectAxes performs pairwise axis
// intersection in the nominal frame, weighted by I_a*I_b*sin^2(alpha), and
// combined by weighted mean; uncertainty is the weighted RMS of the pair
// intersections about the mean.
func intersectAxes(tels []telNominal) (xi, eta, altUnc, azUnc float64, ok bool) {
	var sumW, sumWXi, sumWEta float64
	var xs, ys, ws []float64

	for a := 0; a < len(tels); a++ {
		for b := a + 1; b < len(tels); b++ {
			cross := tels[a].axis.Xi*tels[b].axis.Eta - tels[a].axis.Eta*tels[b].axis.Xi
			sin2alpha := cross * cross
			if sin2alpha < minSin2Alpha {
				continue
			}

			px, py, intersects := lineIntersection(tels[a].centroid, tels[a].axis, tels[b].centroid, tels[b].axis)
			if !intersects {
				continue
			}

			w := tels[a].intensity * tels[b].intensity * sin2alpha
			sumW += w
			sumWXi += w * px
			sumWEta += w * py
			xs = append(xs, px)
			ys = append(ys, py)
			ws = append(ws, w)
		}
	}

	if sumW <= 0 || len(xs) == 0 {
		return 0, 0, 0, 0, false
	}

	xi = sumWXi / sumW
	eta = sumWEta / sumW

	var varXi, varEta float64
	for i := range xs {
		varXi += ws[i] * (xs[i] - xi) * (xs[i] - xi)
		varEta += ws[i] * (ys[i] - eta) * (ys[i] - eta)
	}
	varXi /= sumW
	varEta /= sumW

	return xi, eta, math.Sqrt(varEta), math.Sqrt(varXi), true
}

// lineIntersection solves for the intersection of two lines in the plane,
// each given as a point and a (not necessarily unit) direction vector, via
// Cramer's rule. ok is false when the directions are parallel.
func lineIntersection(p1, d1, p2, d2 NominalCoord) (x, y float64, ok bool) {
	denom := d1.Xi*d2.Eta - d1.Eta*d2.Xi
	if math.Abs(denom) < 1e-12 {
		return 0, 0, false
	}
	dx := p2.Xi - p1.Xi
	dy := p2.Eta - p1.Eta
	s := (dx*d2.Eta - dy*d2.Xi) / denom
	return p1.Xi + s*d1.Xi, p1.Eta + s*d1.Eta, true
}

// solveCorePosition finds the ground impact point: each telescope
// contributes a ground line through its position along the azimuthal
// projection of its Hillas axis; accumulate Σ w_t(I - n_t n_t^T) and solve
// the resulting 2x2 weighted-least-squares normal equations. The weight
// w_t = intensity_t * (1 - width_t/length_t) favors well-elongated (high
// signal-to-noise orientation) ellipses, a choice recorded as a design
// decision in DESIGN.md.
func solveCorePosition(inputs []TelescopeHillasInput, arrayPointing PointingInfo) (coreX, coreY, coreErr float64, ok bool) {
	var A00, A01, A11, b0, b1 float64
	count := 0

	for _, in := range inputs {
		if math.IsNaN(in.Hillas.Intensity) || in.Hillas.Intensity <= 0 || in.Hillas.Length <= 0 {
			continue
		}
		w := in.Hillas.Intensity * (1.0 - in.Hillas.Width/in.Hillas.Length)
		if w <= 0 {
			continue
		}

		theta := float64(arrayPointing.ArrayAzimuth) + in.Hillas.Psi
		nx, ny := math.Cos(theta), math.Sin(theta)

		// I - n n^T
		m00 := 1 - nx*nx
		m01 := -nx * ny
		m11 := 1 - ny*ny

		A00 += w * m00
		A01 += w * m01
		A11 += w * m11

		px, py := in.Position.X, in.Position.Y
		b0 += w * (m00*px + m01*py)
		b1 += w * (m01*px + m11*py)
		count++
	}

	if count < 2 {
		return 0, 0, 0, false
	}

	A := mat.NewDense(2, 2, []float64{A00, A01, A01, A11})
	var svd mat.SVD
	if !svd.Factorize(A, mat.SVDNone) {
		return 0, 0, 0, false
	}
	sv := svd.Values(nil)
	if len(sv) < 2 || sv[1] <= 0 || sv[0]/sv[1] > maxConditionNumber {
		return 0, 0, 0, false
	}

	b := mat.NewVecDense(2, []float64{b0, b1})
	var core mat.VecDense
	if err := core.SolveVec(A, b); err != nil {
		return 0, 0, 0, false
	}

	// residual covariance: A^-1, whose larger eigenvalue is core_pos_error.
	var Ainv mat.Dense
	if err := Ainv.Inverse(A); err != nil {
		return 0, 0, 0, false
	}
	cov := mat.NewSymDense(2, []float64{Ainv.At(0, 0), Ainv.At(0, 1), Ainv.At(1, 0), Ainv.At(1, 1)})
	var eig mat.EigenSym
	if !eig.Factorize(cov, false) {
		return 0, 0, 0, false
	}
	values := eig.Values(nil)
	errEig := values[0]
	if values[1] > errEig {
		errEig = values[1]
	}

	return core.AtVec(0), core.AtVec(1), errEig, true
}

// computeHmax triangulates, for each telescope,
// the height of shower maximum from that telescope's impact parameter and
// the angular distance, in its own view, between its Hillas centroid and the
// combined reconstructed direction; return the intensity-weighted average
// over telescopes.
func (r *HillasReconstructor) computeHmax(tels []telNominal, xi, eta float64, impacts map[int]ImpactParameter) float64 {
	var sumW, sumWH float64
	for _, t := range tels {
		theta := math.Hypot(t.centroid.Xi-xi, t.centroid.Eta-eta)
		if theta < 1e-9 {
			continue
		}
		impact, ok := impacts[t.telID]
		if !ok {
			continue
		}
		h := impact.Distance / math.Tan(theta)
		w := t.intensity
		sumW += w
		sumWH += w * h
	}
	if sumW <= 0 {
		return math.NaN()
	}
	return sumWH / sumW
}
