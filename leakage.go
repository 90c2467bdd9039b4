package shower

import "math"

// LeakageParameters describe the fraction of image charge/pixels at the
// camera edge.
type LeakageParameters struct {
	PixelsWidth1    float64
	PixelsWidth2    float64
	IntensityWidth1 float64
	IntensityWidth2 float64
}

func nanLeakage() LeakageParameters {
	nan := math.NaN()
	return LeakageParameters{nan, nan, nan, nan}
}

// ComputeLeakage computes leakage statistics using an outer-ring
// definition based on an adjacency-count deficit relative to
// the camera's canonical full-connectivity degree, shape-agnostic
// across hex/square.
func ComputeLeakage(cam *CameraGeometry, image []float64, mask []bool) LeakageParameters {
	nMask := CountSet(mask)
	if nMask == 0 {
		return nanLeakage()
	}

	var totalW float64
	for i := 0; i < cam.NumPixels; i++ {
		if mask[i] {
			totalW += image[i]
		}
	}
	if totalW == 0 {
		return nanLeakage()
	}

	outer1 := cam.OuterRing1()
	outer2 := cam.OuterRing2()

	var nOuter1, nOuter2 int
	var wOuter1, wOuter2 float64
	for i := 0; i < cam.NumPixels; i++ {
		if !mask[i] {
			continue
		}
		if outer1[i] {
			nOuter1++
			wOuter1 += image[i]
		}
		if outer2[i] {
			nOuter2++
			wOuter2 += image[i]
		}
	}

	return LeakageParameters{
		PixelsWidth1:    float64(nOuter1) / float64(nMask),
		PixelsWidth2:    float64(nOuter2) / float64(nMask),
		IntensityWidth1: wOuter1 / totalW,
		IntensityWidth2: wOuter2 / totalW,
	}
}
