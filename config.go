package shower

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ReconstructorConfig configures one named geometry reconstructor.
type ReconstructorConfig struct {
	ImageQuery    string `json:"ImageQuery"`
	UseFakeHillas bool   `json:"use_fake_hillas"`
}

// ShowerProcessorConfig configures telescope selection and reconstructor
// dispatch.
type ShowerProcessorConfig struct {
	GeometryReconstructionTypes []string                       `json:"GeometryReconstructionTypes"`
	Reconstructors              map[string]ReconstructorConfig `json:"-"`
}

// DataWriterConfig enumerates which data levels to emit and selects the
// backend.
type DataWriterConfig struct {
	OutputType           string `json:"output_type"`
	Overwrite            bool   `json:"overwrite"`
	WriteR0              bool   `json:"r0"`
	WriteR1              bool   `json:"r1"`
	WriteDL0             bool   `json:"dl0"`
	WriteDL1             bool   `json:"dl1"`
	WriteDL1Image        bool   `json:"dl1_image"`
	WriteDL2             bool   `json:"dl2"`
	WriteSimulationShower bool   `json:"simulation_shower"`
	WriteSimulatedCamera bool   `json:"simulated_camera"`
	WriteMonitor         bool   `json:"monitor"`
	WritePointing        bool   `json:"pointing"`
	WriteSubarray        bool   `json:"subarray"`
	WriteSimulationConfig bool  `json:"simulation_config"`
	WriteAtmosphereModel bool   `json:"atmosphere_model"`
	WriteMetaparam       bool   `json:"metaparam"`
}

// Config is the root JSON configuration document.
type Config struct {
	Calibrator      CalibratorConfig
	ImageProcessor  ImageProcessorConfig
	ShowerProcessor ShowerProcessorConfig
	DataWriter      DataWriterConfig
}

// rawConfig mirrors the on-disk JSON shape; ShowerProcessor's per-reconstructor
// blocks are keyed dynamically by reconstructor name, so they're decoded via
// a raw map and promoted afterwards.
type rawConfig struct {
	Calibrator struct {
		ImageExtractorType string          `json:"image_extractor_type"`
		LocalPeakExtractor ExtractorConfig `json:"LocalPeakExtractor"`
	} `json:"calibrator"`
	ImageProcessor struct {
		PoissonNoise     float64        `json:"poisson_noise"`
		ImageCleanerType string         `json:"image_cleaner_type"`
		TailcutsCleaner  TailcutsConfig `json:"TailcutsCleaner"`
		CutPixelDistance bool           `json:"cut_pixel_distance"`
		CutRadiusDeg     float64        `json:"cut_radius_deg"`
	} `json:"image_processor"`
	ShowerProcessor map[string]json.RawMessage `json:"shower_processor"`
	DataWriter      DataWriterConfig           `json:"data_writer"`
}

// LoadConfig parses the JSON config at path into a validated Config, once at
// startup, into explicit structs rather than a runtime setter-table or
// reflection-driven parameter registration.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg = DefaultConfig()
	cfg.Calibrator.ImageExtractorType = orDefault(raw.Calibrator.ImageExtractorType, cfg.Calibrator.ImageExtractorType)
	if raw.Calibrator.LocalPeakExtractor.WindowWidth != 0 {
		cfg.Calibrator.LocalPeak = raw.Calibrator.LocalPeakExtractor
	}

	cfg.ImageProcessor.PoissonNoise = raw.ImageProcessor.PoissonNoise
	cfg.ImageProcessor.ImageCleanerType = orDefault(raw.ImageProcessor.ImageCleanerType, cfg.ImageProcessor.ImageCleanerType)
	if raw.ImageProcessor.TailcutsCleaner.PictureThresh != 0 {
		cfg.ImageProcessor.Tailcuts = raw.ImageProcessor.TailcutsCleaner
	}
	cfg.ImageProcessor.CutPixelDistance = raw.ImageProcessor.CutPixelDistance
	cfg.ImageProcessor.CutRadiusDeg = raw.ImageProcessor.CutRadiusDeg

	cfg.ShowerProcessor.Reconstructors = make(map[string]ReconstructorConfig)
	for name, msg := range raw.ShowerProcessor {
		if name == "GeometryReconstructionTypes" {
			var names []string
			if err := json.Unmarshal(msg, &names); err != nil {
				return cfg, errors.Join(ErrUnknownReconstructor, err)
			}
			cfg.ShowerProcessor.GeometryReconstructionTypes = names
			continue
		}
		var rc ReconstructorConfig
		if err := json.Unmarshal(msg, &rc); err != nil {
			return cfg, fmt.Errorf("parsing shower_processor.%s: %w", name, err)
		}
		cfg.ShowerProcessor.Reconstructors[name] = rc
	}

	if raw.DataWriter.OutputType != "" {
		cfg.DataWriter = raw.DataWriter
	}

	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// DefaultConfig returns the configuration used when no -c flag is given.
func DefaultConfig() Config {
	return Config{
		Calibrator: CalibratorConfig{
			ImageExtractorType: "LocalPeakExtractor",
			LocalPeak:          ExtractorConfig{WindowShift: 3, WindowWidth: 7, ApplyCorrection: true},
		},
		ImageProcessor: ImageProcessorConfig{
			ImageCleanerType: "Tailcuts_cleaner",
			Tailcuts: TailcutsConfig{
				PictureThresh:             10,
				BoundaryThresh:            5,
				KeepIsolatedPixels:        false,
				MinNumberPictureNeighbors: 2,
			},
		},
		ShowerProcessor: ShowerProcessorConfig{
			GeometryReconstructionTypes: []string{"HillasReconstructor"},
			Reconstructors: map[string]ReconstructorConfig{
				"HillasReconstructor": {ImageQuery: "hillas_intensity > 50 && hillas_width > 0"},
			},
		},
		DataWriter: DataWriterConfig{
			OutputType:    "tiledb",
			WriteDL1:      true,
			WriteDL1Image: true,
			WriteDL2:      true,
			WriteSubarray: true,
		},
	}
}

// validateConfig fails fast on unrecognized configuration, e.g. unparseable ImageQuery expressions.
func validateConfig(cfg Config) error {
	switch cfg.Calibrator.ImageExtractorType {
	case "LocalPeakExtractor":
	default:
		return ErrUnknownImageExtractor
	}

	switch cfg.ImageProcessor.ImageCleanerType {
	case "Tailcuts_cleaner":
	default:
		return ErrUnknownImageCleaner
	}

	for name, rc := range cfg.ShowerProcessor.Reconstructors {
		if _, err := ParseImageQuery(rc.ImageQuery); err != nil {
			return fmt.Errorf("shower_processor.%s: %w", name, err)
		}
	}

	switch cfg.DataWriter.OutputType {
	case "tiledb", "json":
	default:
		return ErrUnknownOutputType
	}

	return nil
}

// OverrideMaxLeakage2 applies the CLI `-l` flag override. Rewriting an
// existing `leakage_intensity_width_2 < X` clause's literal threshold in
// place is out of scope for a textual rewrite, so instead the override is
// applied as an additional conjunct, consistent with the CLI contract of
// tightening (never loosening) the default quality cut.
func OverrideMaxLeakage2(cfg *Config, maxLeakage2 float64) error {
	for name, rc := range cfg.ShowerProcessor.Reconstructors {
		expr := fmt.Sprintf("(%s) && leakage_intensity_width_2 < %g", rc.ImageQuery, maxLeakage2)
		if _, err := ParseImageQuery(expr); err != nil {
			return err
		}
		rc.ImageQuery = expr
		cfg.ShowerProcessor.Reconstructors[name] = rc
	}
	return nil
}
