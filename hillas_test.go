package shower

import (
	"math"
	"testing"
)

func TestHillasMomentsHorizontalLine(t *testing.T) {
	// three equal-weight pixels on the x axis, centered at the origin: a
	// degenerate (zero-width) horizontal ellipse.
	cam := &CameraGeometry{
		NumPixels: 3,
		PixX:      []float64{-1, 0, 1},
		PixY:      []float64{0, 0, 0},
		PixArea:   []float64{1, 1, 1},
		PixType:   []PixelType{PixelSquare, PixelSquare, PixelSquare},
	}
	image := []float64{1, 1, 1}
	mask := []bool{true, true, true}

	got := HillasMoments(cam, image, mask)

	if !closeEnough(got.Intensity, 3) {
		t.Errorf("Intensity = %v, want 3", got.Intensity)
	}
	if !closeEnough(got.X, 0) || !closeEnough(got.Y, 0) {
		t.Errorf("centroid = (%v, %v), want (0, 0)", got.X, got.Y)
	}
	wantLength := math.Sqrt(2.0 / 3.0)
	if !closeEnough(got.Length, wantLength) {
		t.Errorf("Length = %v, want %v", got.Length, wantLength)
	}
	if !closeEnough(got.Width, 0) {
		t.Errorf("Width = %v, want 0 for a perfectly collinear image", got.Width)
	}
	if !closeEnough(math.Abs(got.Psi), 0) {
		t.Errorf("Psi = %v, want 0 for an axis-aligned horizontal line", got.Psi)
	}
}

func TestHillasMomentsTooFewPixels(t *testing.T) {
	cam := &CameraGeometry{
		NumPixels: 2,
		PixX:      []float64{0, 1},
		PixY:      []float64{0, 0},
		PixArea:   []float64{1, 1},
		PixType:   []PixelType{PixelSquare, PixelSquare},
	}
	got := HillasMoments(cam, []float64{1, 1}, []bool{true, true})
	if !math.IsNaN(got.Intensity) {
		t.Errorf("fewer than 3 masked pixels should yield the NaN sentinel, got %+v", got)
	}
}

func TestHillasMomentsZeroTotalWeight(t *testing.T) {
	cam := &CameraGeometry{
		NumPixels: 3,
		PixX:      []float64{-1, 0, 1},
		PixY:      []float64{0, 0, 0},
		PixArea:   []float64{1, 1, 1},
		PixType:   []PixelType{PixelSquare, PixelSquare, PixelSquare},
	}
	got := HillasMoments(cam, []float64{0, 0, 0}, []bool{true, true, true})
	if !math.IsNaN(got.Intensity) {
		t.Errorf("zero total weight should yield the NaN sentinel, got %+v", got)
	}
}

func TestReducePsiRange(t *testing.T) {
	cases := []float64{-10, -math.Pi, -math.Pi/2 - 0.001, 0, math.Pi / 2, math.Pi, 10}
	for _, in := range cases {
		out := reducePsi(in)
		if out <= -math.Pi/2 || out > math.Pi/2+1e-9 {
			t.Errorf("reducePsi(%v) = %v, out of (-pi/2, pi/2]", in, out)
		}
	}
}
