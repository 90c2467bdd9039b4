package shower

import (
	"math"
	"testing"

	"github.com/soniakeys/unit"
)

func buildTwoTelescopeSubarray() *SubarrayDescription {
	sub := NewSubarrayDescription(Position3{})
	cam := square5x5Camera()
	optics := OpticsDescription{EffectiveFocalLength: 1, EquivalentFocalLength: 1}
	sub.AddTelescope(1, TelescopeDescription{CameraDescription: cam, OpticsDescription: optics}, Position3{X: 0, Y: 0})
	sub.AddTelescope(2, TelescopeDescription{CameraDescription: cam, OpticsDescription: optics}, Position3{X: 100, Y: 0})
	return sub
}

func buildTwoTelescopeEvent(sub *SubarrayDescription, pointing PointingInfo) *ArrayEvent {
	event := NewArrayEvent(1, 1)
	event.Pointing = &pointing

	for _, in := range twoTelescopeStereoInputs(pointing) {
		event.DL1[in.TelID] = &DL1Camera{
			ImageParameters: ImageParameters{Hillas: in.Hillas},
		}
	}
	return event
}

func TestShowerProcessorProcessWritesGeometry(t *testing.T) {
	sub := buildTwoTelescopeSubarray()
	pointing := PointingInfo{
		ArrayAltitude: unit.Angle(70 * math.Pi / 180),
		ArrayAzimuth:  unit.Angle(0),
		Tels: map[int]TelPointing{
			1: {Altitude: unit.Angle(70 * math.Pi / 180), Azimuth: unit.Angle(0)},
			2: {Altitude: unit.Angle(70 * math.Pi / 180), Azimuth: unit.Angle(0)},
		},
	}
	event := buildTwoTelescopeEvent(sub, pointing)

	cfg := ShowerProcessorConfig{
		GeometryReconstructionTypes: []string{"HillasReconstructor"},
		Reconstructors: map[string]ReconstructorConfig{
			"HillasReconstructor": {ImageQuery: "hillas_intensity > 50"},
		},
	}
	sp, err := NewShowerProcessor(cfg, sub, NewExponentialAtmosphere())
	if err != nil {
		t.Fatalf("NewShowerProcessor returned error: %v", err)
	}

	if err := sp.Process(event); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	geom, ok := event.DL2.Geometry["HillasReconstructor"]
	if !ok {
		t.Fatalf("expected a geometry result under \"HillasReconstructor\"")
	}
	if !geom.IsValid {
		t.Errorf("expected a valid reconstruction")
	}
	if event.DL2.Tels[1] == nil {
		t.Fatalf("expected per-telescope impact parameters for telescope 1")
	}
	if _, ok := event.DL2.Tels[1].ImpactParameters["HillasReconstructor"]; !ok {
		t.Errorf("expected an impact parameter for telescope 1 under \"HillasReconstructor\"")
	}
	if event.DL2.Tels[2] == nil {
		t.Fatalf("expected per-telescope impact parameters for telescope 2")
	}
}

func TestShowerProcessorProcessQueryExcludesTelescope(t *testing.T) {
	sub := buildTwoTelescopeSubarray()
	pointing := PointingInfo{
		ArrayAltitude: unit.Angle(70 * math.Pi / 180),
		ArrayAzimuth:  unit.Angle(0),
		Tels: map[int]TelPointing{
			1: {Altitude: unit.Angle(70 * math.Pi / 180), Azimuth: unit.Angle(0)},
			2: {Altitude: unit.Angle(70 * math.Pi / 180), Azimuth: unit.Angle(0)},
		},
	}
	event := buildTwoTelescopeEvent(sub, pointing)

	// a query that only telescope 2 can pass (telescope 1's X is 0), so
	// fewer than two telescopes survive and the result is invalid.
	cfg := ShowerProcessorConfig{
		GeometryReconstructionTypes: []string{"HillasReconstructor"},
		Reconstructors: map[string]ReconstructorConfig{
			"HillasReconstructor": {ImageQuery: "hillas_x > 0.01"},
		},
	}
	sp, err := NewShowerProcessor(cfg, sub, NewExponentialAtmosphere())
	if err != nil {
		t.Fatalf("NewShowerProcessor returned error: %v", err)
	}

	if err := sp.Process(event); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	geom := event.DL2.Geometry["HillasReconstructor"]
	if geom.IsValid {
		t.Errorf("expected the quality query to reject telescope 1, leaving fewer than two telescopes")
	}
}

func TestShowerProcessorUnknownReconstructorRejected(t *testing.T) {
	sub := buildTwoTelescopeSubarray()
	cfg := ShowerProcessorConfig{
		GeometryReconstructionTypes: []string{"NotARealReconstructor"},
		Reconstructors:              map[string]ReconstructorConfig{},
	}
	_, err := NewShowerProcessor(cfg, sub, NewExponentialAtmosphere())
	if err == nil {
		t.Errorf("expected an error constructing a ShowerProcessor with an unknown reconstructor name")
	}
}

func TestShowerProcessorNoPointingIsAnError(t *testing.T) {
	sub := buildTwoTelescopeSubarray()
	cfg := ShowerProcessorConfig{
		GeometryReconstructionTypes: []string{"HillasReconstructor"},
		Reconstructors: map[string]ReconstructorConfig{
			"HillasReconstructor": {ImageQuery: "hillas_intensity > 0"},
		},
	}
	sp, err := NewShowerProcessor(cfg, sub, NewExponentialAtmosphere())
	if err != nil {
		t.Fatalf("NewShowerProcessor returned error: %v", err)
	}

	event := NewArrayEvent(1, 1)
	if err := sp.Process(event); err == nil {
		t.Errorf("expected an error processing an event with no Pointing")
	}
}

func TestShowerProcessorProcessPopulatesExtraWhenSimulationPresent(t *testing.T) {
	sub := buildTwoTelescopeSubarray()
	pointing := PointingInfo{
		ArrayAltitude: unit.Angle(70 * math.Pi / 180),
		ArrayAzimuth:  unit.Angle(0),
		Tels: map[int]TelPointing{
			1: {Altitude: unit.Angle(70 * math.Pi / 180), Azimuth: unit.Angle(0)},
			2: {Altitude: unit.Angle(70 * math.Pi / 180), Azimuth: unit.Angle(0)},
		},
	}
	event := buildTwoTelescopeEvent(sub, pointing)
	event.Simulation = &SimulatedShower{Alt: unit.Angle(70 * math.Pi / 180), Az: unit.Angle(0)}

	cfg := ShowerProcessorConfig{
		GeometryReconstructionTypes: []string{"HillasReconstructor"},
		Reconstructors: map[string]ReconstructorConfig{
			"HillasReconstructor": {ImageQuery: "hillas_intensity > 0"},
		},
	}
	sp, err := NewShowerProcessor(cfg, sub, NewExponentialAtmosphere())
	if err != nil {
		t.Fatalf("NewShowerProcessor returned error: %v", err)
	}

	if err := sp.Process(event); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	if event.DL1[1].ImageParameters.Extra == nil {
		t.Fatalf("expected Extra to be populated on telescope 1's DL1 image parameters when Simulation truth is present")
	}
}

func TestFakeHillasRecomputesFromTrueImage(t *testing.T) {
	cam := square3x3Camera()
	event := NewArrayEvent(1, 1)
	// a DL1 image is also present, with different intensity, to confirm
	// fakeHillas prefers simulation truth over the calibrated image.
	event.DL1[1] = &DL1Camera{Image: []float64{0, 0, 0, 0, 1, 0, 0, 0, 0}}
	event.SimulatedCameras[1] = &SimulatedCamera{TrueImage: []float64{2, 0, 0, 0, 5, 0, 0, 0, 3}}

	got := fakeHillas(event, 1, cam)
	if math.IsNaN(got.Intensity) {
		t.Fatalf("expected a real Hillas fit from a true image with >=3 positive pixels, got NaN")
	}
	if !closeEnough(got.Intensity, 10) {
		t.Errorf("Intensity = %v, want 10 (sum of the three positive true-image pixels)", got.Intensity)
	}
}

func TestFakeHillasNoTrueImageFallsBackToDL1(t *testing.T) {
	cam := square3x3Camera()
	event := NewArrayEvent(1, 1)
	event.DL1[1] = &DL1Camera{ImageParameters: ImageParameters{Hillas: HillasParameters{Intensity: 42}}}

	got := fakeHillas(event, 1, cam)
	if !closeEnough(got.Intensity, 42) {
		t.Errorf("Intensity = %v, want 42 (the DL1 Hillas fit, with no true image to prefer)", got.Intensity)
	}
}

func TestFakeHillasNoDL1ReturnsNaN(t *testing.T) {
	cam := square3x3Camera()
	event := NewArrayEvent(1, 1)

	got := fakeHillas(event, 1, cam)
	if !math.IsNaN(got.Intensity) {
		t.Errorf("expected NaN sentinel when neither a true image nor a DL1 image is present, got %+v", got)
	}
}
