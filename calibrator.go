package shower

// ExtractorConfig configures the waveform charge extractor.
type ExtractorConfig struct {
	WindowShift     int
	WindowWidth     int
	ApplyCorrection bool
}

// CalibratorConfig selects and configures the calibration stage
// (R1 waveforms -> DL1 image+peak_time), a minimal config-driven
// implementation so the pipeline is runnable end to end without an
// external calibrator.
type CalibratorConfig struct {
	ImageExtractorType string
	LocalPeak          ExtractorConfig
}

// Calibrator implements the R1 -> DL1 image+peak_time stage using the
// extractor selected by config.
type Calibrator struct {
	cfg CalibratorConfig
}

// NewCalibrator validates the extractor type and returns a Calibrator.
func NewCalibrator(cfg CalibratorConfig) (*Calibrator, error) {
	switch cfg.ImageExtractorType {
	case "LocalPeakExtractor", "":
		return &Calibrator{cfg: cfg}, nil
	default:
		return nil, ErrUnknownImageExtractor
	}
}

// Calibrate fills DL1 image+peak_time for every telescope with an R1
// waveform present on the event.
func (c *Calibrator) Calibrate(event *ArrayEvent) {
	for telID, r1 := range event.R1 {
		event.DL1[telID] = c.extractLocalPeak(r1)
	}
}

// extractLocalPeak implements a local-peak charge extractor: for each
// pixel's waveform, find the sample of maximum amplitude, sum a fixed window
// around it (shifted by WindowShift, width WindowWidth) as the integrated
// charge, and record the peak sample index (scaled to ns by the caller's
// sampling configuration -- left as raw sample index here since sampling
// rate is a property of the external waveform source, out of scope).
func (c *Calibrator) extractLocalPeak(r1 *R1Camera) *DL1Camera {
	npix := len(r1.Waveform)
	image := make([]float64, npix)
	peakTime := make([]float64, npix)

	width := c.cfg.LocalPeak.WindowWidth
	if width <= 0 {
		width = 7
	}
	shift := c.cfg.LocalPeak.WindowShift

	for i, samples := range r1.Waveform {
		if len(samples) == 0 {
			continue
		}
		peakIdx := 0
		peakVal := samples[0]
		for s, v := range samples {
			if v > peakVal {
				peakVal = v
				peakIdx = s
			}
		}

		start := peakIdx - shift
		if start < 0 {
			start = 0
		}
		end := start + width
		if end > len(samples) {
			end = len(samples)
		}

		var sum float64
		for s := start; s < end; s++ {
			sum += samples[s]
		}
		if c.cfg.LocalPeak.ApplyCorrection && end > start {
			sum *= float64(len(samples)) / float64(end-start)
		}

		image[i] = sum
		peakTime[i] = float64(peakIdx)
	}

	return &DL1Camera{Image: image, PeakTime: peakTime}
}
