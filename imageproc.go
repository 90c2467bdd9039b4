package shower

import (
	"math"
	"math/rand"
)

// ImageProcessorConfig configures cleaning and parameterization.
type ImageProcessorConfig struct {
	ImageCleanerType string
	Tailcuts         TailcutsConfig
	PoissonNoise     float64 // simulation-only: mean noise PE added before re-cleaning; 0 disables

	// DilateBeforeParameterization makes explicit a choice that's easy to
	// get inconsistent across call sites: when true, the mask is dilated once immediately
	// after cleaning and that dilated mask is what gets parameterized; when
	// false (default), the cleaned mask is parameterized as-is. Leakage's
	// outer rings are dilations of the camera edge, not of this mask.
	DilateBeforeParameterization bool

	CutPixelDistance bool
	CutRadiusDeg     float64
	FocalLengthM     float64
}

// ImageProcessor drives cleaning and parameterization for every telescope in
// an event.
type ImageProcessor struct {
	cfg   ImageProcessorConfig
	cams  map[int]*CameraGeometry
	rng   *rand.Rand
}

// NewImageProcessor validates the cleaner type and builds a processor bound
// to the given per-telescope camera geometries.
func NewImageProcessor(cfg ImageProcessorConfig, cams map[int]*CameraGeometry) (*ImageProcessor, error) {
	switch cfg.ImageCleanerType {
	case "Tailcuts_cleaner", "":
	default:
		return nil, ErrUnknownImageCleaner
	}
	return &ImageProcessor{cfg: cfg, cams: cams, rng: rand.New(rand.NewSource(1))}, nil
}

// Process runs cleaning, optional dilation, the optional FOV cut, and then
// parameterization for every telescope with a DL1 image on the event.
func (ip *ImageProcessor) Process(event *ArrayEvent) {
	for telID, dl1 := range event.DL1 {
		cam, ok := ip.cams[telID]
		if !ok {
			continue
		}

		image := dl1.Image
		if ip.cfg.PoissonNoise > 0 {
			if sc := event.SimulatedCameras[telID]; sc != nil && sc.TrueImage != nil {
				image = ip.injectPoissonNoise(sc.TrueImage)
			}
		}

		mask := TailcutsClean(cam, image, ip.cfg.Tailcuts)
		if ip.cfg.DilateBeforeParameterization {
			mask = Dilate(cam, mask)
		}

		if ip.cfg.CutPixelDistance {
			mask = ip.applyFOVCut(cam, mask)
		}

		dl1.Mask = mask
		dl1.ImageParameters = ComputeImageParameters(cam, image, mask)
	}
}

// injectPoissonNoise synthesizes a calibrated image from the true PE image
// plus Poisson noise.
func (ip *ImageProcessor) injectPoissonNoise(trueImage []float64) []float64 {
	out := make([]float64, len(trueImage))
	for i, v := range trueImage {
		noise := ip.poissonSample(ip.cfg.PoissonNoise)
		out[i] = v + noise
	}
	return out
}

// poissonSample draws from a Poisson distribution with mean lambda using
// Knuth's algorithm, adequate for the small lambda typical of camera
// electronic-noise rates.
func (ip *ImageProcessor) poissonSample(lambda float64) float64 {
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		k++
		p *= ip.rng.Float64()
		if p <= l {
			break
		}
	}
	return float64(k - 1)
}

// applyFOVCut removes pixels whose angular distance from the camera center
// exceeds cutRadius degrees, given the telescope's focal length.
func (ip *ImageProcessor) applyFOVCut(cam *CameraGeometry, mask []bool) []bool {
	focal := ip.cfg.FocalLengthM
	if focal <= 0 {
		focal = cam.effectiveFocalLengthFallback()
	}
	cutRadRad := ip.cfg.CutRadiusDeg * math.Pi / 180.0

	out := make([]bool, cam.NumPixels)
	for i := 0; i < cam.NumPixels; i++ {
		if !mask[i] {
			continue
		}
		radialDist := math.Hypot(cam.PixX[i], cam.PixY[i])
		angularDist := math.Atan(radialDist / focal)
		out[i] = angularDist <= cutRadRad
	}
	return out
}

// effectiveFocalLengthFallback guards applyFOVCut against a misconfigured
// (zero) focal length by falling back to 1, which degenerates the FOV cut to
// a cut in camera-plane meters rather than angle; only reached when the
// caller didn't supply FocalLengthM.
func (cam *CameraGeometry) effectiveFocalLengthFallback() float64 {
	return 1.0
}
