package shower

import (
	"math"

	"github.com/soniakeys/unit"
)

// SkyCoord is a point on the horizontal (sky) frame: altitude and azimuth,
// both in radians. unit.Angle is soniakeys/unit's typed radian wrapper, used
// here so altitude/azimuth/zenith quantities aren't passed around as bare,
// unit-less float64s.
type SkyCoord struct {
	Alt unit.Angle
	Az  unit.Angle
}

// NominalCoord is a point in a telescope's nominal frame: a tangent plane at
// the array's pointing direction, in radians.
type NominalCoord struct {
	Xi  float64
	Eta float64
}

func clampUnit(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// SkyToNominal projects a sky point onto the tangent plane centered at
// (centerAlt, centerAz). This is a standard gnomonic (tangent-plane)
// projection about a reference point, the spherical generalization of a
// flat-earth local bearing/range linearization.
func SkyToNominal(alt, az, centerAlt, centerAz unit.Angle) NominalCoord {
	a, A := float64(alt), float64(az)
	a0, A0 := float64(centerAlt), float64(centerAz)

	cosC := clampUnit(math.Sin(a0)*math.Sin(a) + math.Cos(a0)*math.Cos(a)*math.Cos(A-A0))
	// cosC is cos(angular separation); guard the tangent-plane scale factor
	// against the antipodal singularity.
	if cosC <= 1e-12 {
		return NominalCoord{Xi: math.NaN(), Eta: math.NaN()}
	}

	xi := math.Cos(a) * math.Sin(A-A0) / cosC
	eta := (math.Cos(a0)*math.Sin(a) - math.Sin(a0)*math.Cos(a)*math.Cos(A-A0)) / cosC

	return NominalCoord{Xi: xi, Eta: eta}
}

// NominalToSky is the inverse gnomonic projection, mapping a nominal-frame
// point back to the sky given the array's pointing center.
func NominalToSky(n NominalCoord, centerAlt, centerAz unit.Angle) SkyCoord {
	a0 := float64(centerAlt)
	A0 := float64(centerAz)

	rho := math.Hypot(n.Xi, n.Eta)
	if rho == 0 {
		return SkyCoord{Alt: centerAlt, Az: centerAz}
	}
	c := math.Atan(rho)
	sinc, cosc := math.Sin(c), math.Cos(c)

	sinAlt := cosc*math.Sin(a0) + (n.Eta*sinc*math.Cos(a0))/rho
	sinAlt = clampUnit(sinAlt)
	alt := math.Asin(sinAlt)

	num := n.Xi * sinc
	den := rho*math.Cos(a0)*cosc - n.Eta*math.Sin(a0)*sinc
	az := A0 + math.Atan2(num, den)

	return SkyCoord{Alt: unit.Angle(alt), Az: unit.Angle(az)}
}

// AngularSeparation computes the great-circle angle between two sky points,
// clamping the acos argument to [-1,1].
func AngularSeparation(a, b SkyCoord) unit.Angle {
	alt1, alt2 := float64(a.Alt), float64(b.Alt)
	dAz := float64(b.Az) - float64(a.Az)

	cosSep := clampUnit(math.Sin(alt1)*math.Sin(alt2) + math.Cos(alt1)*math.Cos(alt2)*math.Cos(dAz))
	return unit.Angle(math.Acos(cosSep))
}

// CameraToNominal maps a Hillas centroid (camera-frame meters) into angular
// nominal-frame coordinates: x/f, y/f, then a rotation aligning camera axes
// with nominal-frame axes.
func CameraToNominal(x, y, effectiveFocalLength float64, rotation float64) NominalCoord {
	xiCam := x / effectiveFocalLength
	etaCam := y / effectiveFocalLength

	cosR, sinR := math.Cos(rotation), math.Sin(rotation)
	return NominalCoord{
		Xi:  xiCam*cosR - etaCam*sinR,
		Eta: xiCam*sinR + etaCam*cosR,
	}
}
