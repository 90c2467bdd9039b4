package shower

import "math"

// ConcentrationParameters summarise how tightly the charge is packed close
// to the shower image's centroid, core, and peak pixel.
type ConcentrationParameters struct {
	ConcentrationCog    float64
	ConcentrationCore   float64
	ConcentrationPixel  float64
}

func nanConcentration() ConcentrationParameters {
	nan := math.NaN()
	return ConcentrationParameters{nan, nan, nan}
}

// ComputeConcentration computes concentration statistics. It requires a
// valid Hillas fit (the ellipse radius/orientation); if hillas.Intensity is
// NaN the result is the NaN sentinel.
func ComputeConcentration(cam *CameraGeometry, image []float64, mask []bool, h HillasParameters) ConcentrationParameters {
	if math.IsNaN(h.Intensity) || h.Intensity <= 0 {
		return nanConcentration()
	}

	var cog, core, maxPixel float64
	cospsi, sinpsi := math.Cos(h.Psi), math.Sin(h.Psi)

	for i := 0; i < cam.NumPixels; i++ {
		if !mask[i] {
			continue
		}
		w := image[i]
		if w > maxPixel {
			maxPixel = w
		}

		dx := cam.PixX[i] - h.X
		dy := cam.PixY[i] - h.Y

		// concentration_cog: sum within radius = length of (x̄,ȳ)
		if math.Hypot(dx, dy) <= h.Length {
			cog += w
		}

		// concentration_core: sum over pixels inside the Hillas ellipse,
		// axes (length, width), orientation psi.
		u := dx*cospsi + dy*sinpsi
		v := -dx*sinpsi + dy*cospsi
		if h.Length > 0 && h.Width > 0 {
			if (u*u)/(h.Length*h.Length)+(v*v)/(h.Width*h.Width) <= 1.0 {
				core += w
			}
		}
	}

	return ConcentrationParameters{
		ConcentrationCog:   cog / h.Intensity,
		ConcentrationCore:  core / h.Intensity,
		ConcentrationPixel: maxPixel / h.Intensity,
	}
}
