package shower

import "github.com/soniakeys/unit"

// DL1Camera holds the per-telescope, per-event calibrated image. It is produced by ImageProcessor and is read-only afterwards.
type DL1Camera struct {
	Image           []float64
	PeakTime        []float64
	Mask            []bool
	ImageParameters ImageParameters
}

// R1Camera holds the per-telescope waveform samples produced by
// calibration's upstream stage, consumed by Calibrator.Calibrate.
type R1Camera struct {
	Waveform [][]float64 // [pixel][sample]
}

// R0Camera holds raw, pre-gain-calibration waveform samples. Populating it
// is an EventSource's concern (the R0->R1 gain correction is an external
// collaborator's concern, same as the format-specific EventSource itself);
// this pipeline's own Calibrator only consumes R1.
type R0Camera struct {
	Waveform [][]float64
}

// DL0Camera holds reduced (e.g. zero-suppressed) waveform samples, another
// EventSource-populated, Calibrator-independent layer.
type DL0Camera struct {
	Waveform [][]float64
}

// MonitorCamera carries per-pixel calibration constants (pedestal, relative
// gain) for one telescope at the time of the event, populated by an
// EventSource that tracks slow-control/monitoring data alongside the event
// stream.
type MonitorCamera struct {
	Pedestal []float64
	Gain     []float64
}

// PointingInfo carries the array- and per-telescope pointing direction.
type PointingInfo struct {
	ArrayAltitude unit.Angle
	ArrayAzimuth  unit.Angle
	Tels          map[int]TelPointing
}

// TelPointing is a single telescope's pointing direction.
type TelPointing struct {
	Azimuth  unit.Angle
	Altitude unit.Angle
}

// ImpactParameter is a reconstructed telescope's distance to the shower core.
type ImpactParameter struct {
	Distance      float64
	DistanceError float64
}

// ReconstructedGeometry is the output of a single stereo reconstructor for
// one event.
type ReconstructedGeometry struct {
	IsValid         bool
	Alt             unit.Angle
	Az              unit.Angle
	AltUncertainty  unit.Angle
	AzUncertainty   unit.Angle
	CoreX           float64
	CoreY           float64
	CorePosError    float64
	Hmax            float64
	Xmax            float64
	DirectionError  unit.Angle
	Telescopes      []int
}

// DL2TelInfo carries per-telescope DL2 products.
type DL2TelInfo struct {
	ImpactParameters map[string]ImpactParameter
}

// DL2Data is the reconstructed-geometry data-level.
type DL2Data struct {
	Geometry map[string]ReconstructedGeometry // keyed by reconstructor name
	Energy   map[int]float64
	Particle map[int]int
	Tels     map[int]*DL2TelInfo
}

// SimulatedShower carries array-level simulation-truth shower parameters,
// present only when the EventSource is backed by simulated data.
type SimulatedShower struct {
	Alt    unit.Angle
	Az     unit.Angle
	CoreX  float64
	CoreY  float64
	Energy float64
	Hmax   float64
}

// SimulatedCamera carries per-telescope simulation truth: the true,
// noiseless photoelectron image before any calibration or noise is applied.
// fakeHillas and Poisson-noise synthesis both read TrueImage rather than the
// calibrated DL1 image.
type SimulatedCamera struct {
	TrueImage []float64
}

// ArrayEvent is the shared, mutable, in-memory event carrying R0 through DL2
// layers. Each layer is an optional tagged field -- present or
// nil -- rather than a base-class/inheritance hierarchy, so every stage checks presence before dispatch.
type ArrayEvent struct {
	EventID int
	RunID   int

	R0  map[int]*R0Camera
	R1  map[int]*R1Camera
	DL0 map[int]*DL0Camera
	DL1 map[int]*DL1Camera
	DL2 *DL2Data

	Simulation       *SimulatedShower
	SimulatedCameras map[int]*SimulatedCamera
	Pointing         *PointingInfo
	Monitor          map[int]*MonitorCamera
}

// NewArrayEvent constructs an empty event shell for the given identifiers.
func NewArrayEvent(eventID, runID int) *ArrayEvent {
	return &ArrayEvent{
		EventID:          eventID,
		RunID:            runID,
		R0:               make(map[int]*R0Camera),
		R1:               make(map[int]*R1Camera),
		DL0:              make(map[int]*DL0Camera),
		DL1:              make(map[int]*DL1Camera),
		SimulatedCameras: make(map[int]*SimulatedCamera),
		Monitor:          make(map[int]*MonitorCamera),
	}
}

// EnsureDL2 lazily initialises the DL2 layer the first time a reconstructor
// needs to record a result.
func (e *ArrayEvent) EnsureDL2() *DL2Data {
	if e.DL2 == nil {
		e.DL2 = &DL2Data{
			Geometry: make(map[string]ReconstructedGeometry),
			Energy:   make(map[int]float64),
			Particle: make(map[int]int),
			Tels:     make(map[int]*DL2TelInfo),
		}
	}
	return e.DL2
}
