package shower

import (
	"fmt"
)

// ShowerProcessor selects telescopes per reconstructor via an ImageQuery and
// dispatches to every configured geometry reconstructor. The reconstructor
// set is built once at startup from a name->factory registry
// rather than via package-level init() self-registration, so construction
// failures (an unknown reconstructor name in config) surface as an error
// instead of a panic at import time.
type ShowerProcessor struct {
	cfg         ShowerProcessorConfig
	subarray    *SubarrayDescription
	queries     map[string]*ImageQuery
	reconstruct map[string]*HillasReconstructor
	order       []string
}

// reconstructorFactory builds a named reconstructor instance. Registered in
// builtinReconstructors' table -- new reconstructor types are added there.
type reconstructorFactory func(name string, atm AtmosphereProfile) *HillasReconstructor

func builtinReconstructors() map[string]reconstructorFactory {
	return map[string]reconstructorFactory{
		"HillasReconstructor": NewHillasReconstructor,
	}
}

// NewShowerProcessor validates cfg.GeometryReconstructionTypes against the
// builtin registry, parses each reconstructor's ImageQuery once, and returns
// a ready-to-run processor.
func NewShowerProcessor(cfg ShowerProcessorConfig, sub *SubarrayDescription, atm AtmosphereProfile) (*ShowerProcessor, error) {
	registry := builtinReconstructors()

	sp := &ShowerProcessor{
		cfg:         cfg,
		subarray:    sub,
		queries:     make(map[string]*ImageQuery),
		reconstruct: make(map[string]*HillasReconstructor),
		order:       append([]string(nil), cfg.GeometryReconstructionTypes...),
	}

	for _, name := range cfg.GeometryReconstructionTypes {
		factory, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownReconstructor, name)
		}

		rc := cfg.Reconstructors[name]
		q, err := ParseImageQuery(rc.ImageQuery)
		if err != nil {
			return nil, fmt.Errorf("reconstructor %s: %w", name, err)
		}

		sp.queries[name] = q
		sp.reconstruct[name] = factory(name, atm)
	}

	return sp, nil
}

// Process runs every configured reconstructor over event, writing results
// into event.DL2.Geometry[name] and event.DL2.Tels[*].ImpactParameters[name].
func (sp *ShowerProcessor) Process(event *ArrayEvent) error {
	if event.Pointing == nil {
		return ErrInsufficientTelescopes
	}

	dl2 := event.EnsureDL2()

	for _, name := range sp.order {
		q := sp.queries[name]
		useFake := sp.cfg.Reconstructors[name].UseFakeHillas

		telIDs := make(map[int]struct{}, len(event.DL1))
		for telID := range event.DL1 {
			telIDs[telID] = struct{}{}
		}
		if useFake {
			// a telescope below the calibration threshold has no DL1 image
			// but may still carry simulation truth to recompute Hillas
			// parameters from.
			for telID := range event.SimulatedCameras {
				telIDs[telID] = struct{}{}
			}
		}

		var inputs []TelescopeHillasInput
		for telID := range telIDs {
			tel, ok := sp.subarray.Telescopes[telID]
			if !ok {
				continue
			}
			pos, ok := sp.subarray.Positions[telID]
			if !ok {
				continue
			}
			pointing, ok := event.Pointing.Tels[telID]
			if !ok {
				continue
			}

			var params ImageParameters
			dl1 := event.DL1[telID]
			if dl1 != nil {
				params = dl1.ImageParameters
			}
			if useFake {
				params.Hillas = fakeHillas(event, telID, tel.CameraDescription)
			}

			if event.Simulation != nil {
				extra := ComputeExtraParameters(params.Hillas, tel.OpticsDescription.EffectiveFocalLength, pointing, *event.Simulation)
				params.Extra = &extra
				if dl1 != nil {
					dl1.ImageParameters.Extra = &extra
				}
			}

			if !q.Evaluate(params) {
				continue
			}

			inputs = append(inputs, TelescopeHillasInput{
				TelID:                telID,
				Position:             pos,
				Pointing:             pointing,
				Hillas:               params.Hillas,
				EffectiveFocalLength: tel.OpticsDescription.EffectiveFocalLength,
			})
		}

		if len(inputs) < 2 {
			dl2.Geometry[name] = ReconstructedGeometry{IsValid: false}
			continue
		}

		rc := sp.reconstruct[name]
		geom, impacts := rc.Reconstruct(inputs, *event.Pointing, event.Simulation)
		dl2.Geometry[name] = geom

		for telID, impact := range impacts {
			info := dl2.Tels[telID]
			if info == nil {
				info = &DL2TelInfo{ImpactParameters: make(map[string]ImpactParameter)}
				dl2.Tels[telID] = info
			}
			info.ImpactParameters[name] = impact
		}
	}

	return nil
}

// fakeHillas substitutes the true simulated image's moments for the
// calibrated-and-cleaned DL1 Hillas parameters, a debugging mode that
// isolates reconstruction-stage error from calibration/cleaning error by
// validating the stereo math against simulation truth rather than against
// noisy calibrated images. When no true image is available on the event it
// falls back to the real DL1 Hillas parameters, and when neither is present
// it returns the NaN sentinel.
func fakeHillas(event *ArrayEvent, telID int, cam *CameraGeometry) HillasParameters {
	if sc := event.SimulatedCameras[telID]; sc != nil && sc.TrueImage != nil {
		mask := make([]bool, len(sc.TrueImage))
		for i, v := range sc.TrueImage {
			mask[i] = v > 0
		}
		return HillasMoments(cam, sc.TrueImage, mask)
	}
	if dl1 := event.DL1[telID]; dl1 != nil {
		return dl1.ImageParameters.Hillas
	}
	return nanHillas()
}
