package shower

import (
	"math"
	"testing"
)

func TestComputeIntensityStatsBasic(t *testing.T) {
	image := []float64{10, 20, 30, 40}
	mask := []bool{true, true, true, true}

	got := ComputeIntensityStats(image, mask)

	if !closeEnough(got.IntensityMax, 40) {
		t.Errorf("IntensityMax = %v, want 40", got.IntensityMax)
	}
	if !closeEnough(got.IntensityMean, 25) {
		t.Errorf("IntensityMean = %v, want 25", got.IntensityMean)
	}
	if got.IntensityStd <= 0 {
		t.Errorf("IntensityStd = %v, want > 0 for a non-constant sample", got.IntensityStd)
	}
}

func TestComputeIntensityStatsMasksExcludedPixels(t *testing.T) {
	image := []float64{1000, 10, 20, 30}
	mask := []bool{false, true, true, true}

	got := ComputeIntensityStats(image, mask)
	if !closeEnough(got.IntensityMax, 30) {
		t.Errorf("IntensityMax should ignore masked-out pixels, got %v, want 30", got.IntensityMax)
	}
	if !closeEnough(got.IntensityMean, 20) {
		t.Errorf("IntensityMean should ignore masked-out pixels, got %v, want 20", got.IntensityMean)
	}
}

func TestComputeIntensityStatsTooFewPixelsReturnsNaN(t *testing.T) {
	image := []float64{10, 20}
	mask := []bool{true, true}

	got := ComputeIntensityStats(image, mask)
	if !math.IsNaN(got.IntensityMean) || !math.IsNaN(got.IntensityStd) {
		t.Errorf("fewer than 3 surviving pixels should yield an all-NaN result, got %+v", got)
	}
}
