package shower

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// IntensityParameters are the straight (unweighted-by-position) moments of
// the cleaned image over the surviving pixels.
type IntensityParameters struct {
	IntensityMax      float64
	IntensityMean     float64
	IntensityStd      float64
	IntensitySkewness float64
	IntensityKurtosis float64
}

func nanIntensityStats() IntensityParameters {
	nan := math.NaN()
	return IntensityParameters{nan, nan, nan, nan, nan}
}

// ComputeIntensityStats computes per-pixel intensity statistics, using
// gonum/stat for the weighted mean/variance/skewness/kurtosis so that every
// masked pixel contributes with uniform weight 1 (a plain statistical
// summary of the surviving pixel values, independent of the Hillas weighting
// by position).
func ComputeIntensityStats(image []float64, mask []bool) IntensityParameters {
	var values []float64
	maxVal := math.Inf(-1)
	for i, m := range mask {
		if !m {
			continue
		}
		values = append(values, image[i])
		if image[i] > maxVal {
			maxVal = image[i]
		}
	}
	if len(values) < 3 {
		return nanIntensityStats()
	}

	mean, std := stat.MeanStdDev(values, nil)
	skew := stat.Skew(values, nil)
	kurt := stat.ExKurtosis(values, nil) + 3.0

	return IntensityParameters{
		IntensityMax:      maxVal,
		IntensityMean:     mean,
		IntensityStd:      std,
		IntensitySkewness: skew,
		IntensityKurtosis: kurt,
	}
}
