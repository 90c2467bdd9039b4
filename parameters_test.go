package shower

import (
	"math"
	"testing"

	"github.com/soniakeys/unit"
)

func TestComputeExtraParametersAlignedSource(t *testing.T) {
	pointing := TelPointing{Altitude: 0, Azimuth: 0}
	truth := SimulatedShower{Alt: 0, Az: 0}
	hillas := HillasParameters{X: 0, Y: 0, Psi: 0}

	extra := ComputeExtraParameters(hillas, 1.0, pointing, truth)

	if !closeEnough(extra.Miss, 0) {
		t.Errorf("Miss = %v, want 0 (centroid already sits on the true source)", extra.Miss)
	}
	if !closeEnough(extra.Disp, 0) {
		t.Errorf("Disp = %v, want 0", extra.Disp)
	}
	if !closeEnough(extra.Theta, 0) {
		t.Errorf("Theta = %v, want 0", extra.Theta)
	}
}

func TestComputeExtraParametersOffsetSource(t *testing.T) {
	delta := math.Atan(0.7)
	pointing := TelPointing{Altitude: 0, Azimuth: 0}
	truth := SimulatedShower{Alt: 0, Az: unit.Angle(delta)}
	hillas := HillasParameters{X: 0.3, Y: 0, Psi: math.Pi / 4}

	extra := ComputeExtraParameters(hillas, 1.0, pointing, truth)

	// source projects to (0.7, 0) in this telescope's camera frame (eta
	// stays exactly zero for an azimuth-only offset at zero altitude), so
	// dx=0.4, dy=0 relative to the centroid.
	wantMiss := 0.4 * math.Sin(math.Pi/4)
	wantDisp := 0.4
	wantTruePsi := 0.0
	wantTheta := -math.Pi / 4
	wantCogErr := wantDisp - 0.4*math.Cos(math.Pi/4)
	wantBetaErr := 0.0

	if !closeEnough(extra.Miss, wantMiss) {
		t.Errorf("Miss = %v, want %v", extra.Miss, wantMiss)
	}
	if !closeEnough(extra.Disp, wantDisp) {
		t.Errorf("Disp = %v, want %v", extra.Disp, wantDisp)
	}
	if !closeEnough(extra.TruePsi, wantTruePsi) {
		t.Errorf("TruePsi = %v, want %v", extra.TruePsi, wantTruePsi)
	}
	if !closeEnough(extra.Theta, wantTheta) {
		t.Errorf("Theta = %v, want %v", extra.Theta, wantTheta)
	}
	if !closeEnough(extra.CogErr, wantCogErr) {
		t.Errorf("CogErr = %v, want %v", extra.CogErr, wantCogErr)
	}
	if !closeEnough(extra.BetaErr, wantBetaErr) {
		t.Errorf("BetaErr = %v, want %v", extra.BetaErr, wantBetaErr)
	}
}

func TestNormalizeAxisAngleWrapsToHalfPi(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi / 4, math.Pi / 4},
		{math.Pi, 0},
		{-math.Pi, 0},
		{3 * math.Pi / 4, 3*math.Pi/4 - math.Pi},
	}
	for _, c := range cases {
		got := normalizeAxisAngle(c.in)
		if !closeEnough(got, c.want) {
			t.Errorf("normalizeAxisAngle(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
