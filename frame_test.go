package shower

import (
	"math"
	"testing"

	"github.com/soniakeys/unit"
)

func TestSkyToNominalAtPointingCenterIsOrigin(t *testing.T) {
	center := unit.Angle(0.9)
	az := unit.Angle(1.2)

	got := SkyToNominal(center, az, center, az)
	if !closeEnough(got.Xi, 0) || !closeEnough(got.Eta, 0) {
		t.Errorf("a sky point at the pointing center should project to the origin, got %+v", got)
	}
}

func TestSkyToNominalNominalToSkyRoundTrip(t *testing.T) {
	centerAlt := unit.Angle(60 * math.Pi / 180)
	centerAz := unit.Angle(90 * math.Pi / 180)
	alt := unit.Angle(62 * math.Pi / 180)
	az := unit.Angle(93 * math.Pi / 180)

	nom := SkyToNominal(alt, az, centerAlt, centerAz)
	back := NominalToSky(nom, centerAlt, centerAz)

	if math.Abs(float64(back.Alt)-float64(alt)) > 1e-9 {
		t.Errorf("round-tripped Alt = %v, want %v", float64(back.Alt), float64(alt))
	}
	if math.Abs(float64(back.Az)-float64(az)) > 1e-9 {
		t.Errorf("round-tripped Az = %v, want %v", float64(back.Az), float64(az))
	}
}

func TestAngularSeparationZeroForIdenticalPoints(t *testing.T) {
	p := SkyCoord{Alt: unit.Angle(0.5), Az: unit.Angle(1.0)}
	sep := AngularSeparation(p, p)
	if !closeEnough(float64(sep), 0) {
		t.Errorf("AngularSeparation of identical points = %v, want 0", float64(sep))
	}
}

func TestAngularSeparationQuarterCircle(t *testing.T) {
	a := SkyCoord{Alt: unit.Angle(0), Az: unit.Angle(0)}
	b := SkyCoord{Alt: unit.Angle(math.Pi / 2), Az: unit.Angle(0)}
	sep := AngularSeparation(a, b)
	if math.Abs(float64(sep)-math.Pi/2) > 1e-9 {
		t.Errorf("AngularSeparation from horizon to zenith = %v, want pi/2", float64(sep))
	}
}

func TestCameraToNominalNoRotation(t *testing.T) {
	got := CameraToNominal(2.0, 4.0, 2.0, 0)
	if !closeEnough(got.Xi, 1.0) || !closeEnough(got.Eta, 2.0) {
		t.Errorf("CameraToNominal(2,4,f=2,rot=0) = %+v, want (1, 2)", got)
	}
}

func TestCameraToNominalQuarterTurn(t *testing.T) {
	got := CameraToNominal(1.0, 0, 1.0, math.Pi/2)
	if !closeEnough(got.Xi, 0) || !closeEnough(got.Eta, 1) {
		t.Errorf("CameraToNominal(1,0,f=1,rot=pi/2) = %+v, want (0, 1)", got)
	}
}
