package shower

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// HillasParameters are the moments of a cleaned shower image treated as a 2D
// charge distribution, summarizing the shower as an ellipse.
type HillasParameters struct {
	Intensity float64
	X         float64
	Y         float64
	Length    float64
	Width     float64
	Psi       float64
	R         float64
	Phi       float64
	Skewness  float64
	Kurtosis  float64
}

// nanHillas is the all-NaN sentinel emitted when the mask has fewer than 3
// surviving pixels or non-positive total intensity.
func nanHillas() HillasParameters {
	nan := math.NaN()
	return HillasParameters{nan, nan, nan, nan, nan, nan, nan, nan, nan, nan}
}

// HillasMoments computes the Hillas ellipse parameters for the pixels
// selected by mask:
//
//   - W = Σ w_i, centroid = Σ w_i·(x_i,y_i) / W
//   - central second moments Cxx, Cyy, Cxy
//   - eigendecomposition of the 2x2 covariance (λ1 ≥ λ2); length=√λ1, width=√λ2
//   - psi from the λ1 eigenvector, reduced to (-π/2, π/2]
//   - skewness/kurtosis from the third/fourth standardized moment along the
//     major axis
func HillasMoments(cam *CameraGeometry, image []float64, mask []bool) HillasParameters {
	n := CountSet(mask)
	if n < 3 {
		return nanHillas()
	}

	var sumW, sumWx, sumWy float64
	for i := 0; i < cam.NumPixels; i++ {
		if !mask[i] {
			continue
		}
		w := image[i]
		sumW += w
		sumWx += w * cam.PixX[i]
		sumWy += w * cam.PixY[i]
	}

	if sumW <= 0 {
		return nanHillas()
	}

	xbar := sumWx / sumW
	ybar := sumWy / sumW

	var cxx, cyy, cxy float64
	for i := 0; i < cam.NumPixels; i++ {
		if !mask[i] {
			continue
		}
		w := image[i]
		dx := cam.PixX[i] - xbar
		dy := cam.PixY[i] - ybar
		cxx += w * dx * dx
		cyy += w * dy * dy
		cxy += w * dx * dy
	}
	cxx /= sumW
	cyy /= sumW
	cxy /= sumW

	cov := mat.NewSymDense(2, []float64{cxx, cxy, cxy, cyy})
	var eig mat.EigenSym
	ok := eig.Factorize(cov, true)
	if !ok {
		return nanHillas()
	}

	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// gonum returns eigenvalues ascending; we want λ1 >= λ2.
	lambda1, lambda2 := values[1], values[0]
	vx, vy := vectors.At(0, 1), vectors.At(1, 1)
	if values[0] > values[1] {
		lambda1, lambda2 = values[0], values[1]
		vx, vy = vectors.At(0, 0), vectors.At(1, 0)
	}
	if lambda2 < 0 {
		lambda2 = 0
	}
	if lambda1 < 0 {
		lambda1 = 0
	}

	length := math.Sqrt(lambda1)
	width := math.Sqrt(lambda2)

	psi := math.Atan2(vy, vx)
	psi = reducePsi(psi)

	r := math.Hypot(xbar, ybar)
	phi := math.Atan2(ybar, xbar)

	cospsi, sinpsi := math.Cos(psi), math.Sin(psi)
	var m3, m4 float64
	for i := 0; i < cam.NumPixels; i++ {
		if !mask[i] {
			continue
		}
		w := image[i]
		dx := cam.PixX[i] - xbar
		dy := cam.PixY[i] - ybar
		t := dx*cospsi + dy*sinpsi
		m3 += w * t * t * t
		m4 += w * t * t * t * t
	}
	m3 /= sumW
	m4 /= sumW

	var skewness, kurtosis float64
	if length > 0 {
		skewness = m3 / (length * length * length)
		kurtosis = m4 / (length * length * length * length)
	} else {
		skewness = math.NaN()
		kurtosis = math.NaN()
	}

	return HillasParameters{
		Intensity: sumW,
		X:         xbar,
		Y:         ybar,
		Length:    length,
		Width:     width,
		Psi:       psi,
		R:         r,
		Phi:       phi,
		Skewness:  skewness,
		Kurtosis:  kurtosis,
	}
}

// reducePsi maps an angle into (-π/2, π/2], the canonical range for a
// headless (undirected) major-axis orientation.
func reducePsi(psi float64) float64 {
	for psi <= -math.Pi/2 {
		psi += math.Pi
	}
	for psi > math.Pi/2 {
		psi -= math.Pi
	}
	return psi
}
