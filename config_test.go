package shower

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := validateConfig(DefaultConfig()); err != nil {
		t.Fatalf("DefaultConfig() failed validation: %v", err)
	}
}

func TestLoadConfigEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") returned error: %v", err)
	}
	if cfg.Calibrator.ImageExtractorType != "LocalPeakExtractor" {
		t.Errorf("expected the default extractor type, got %q", cfg.Calibrator.ImageExtractorType)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	const doc = `{
		"calibrator": {"image_extractor_type": "LocalPeakExtractor"},
		"image_processor": {
			"image_cleaner_type": "Tailcuts_cleaner",
			"TailcutsCleaner": {"PictureThresh": 12, "BoundaryThresh": 6}
		},
		"shower_processor": {
			"GeometryReconstructionTypes": ["HillasReconstructor"],
			"HillasReconstructor": {"ImageQuery": "hillas_intensity > 20"}
		},
		"data_writer": {"output_type": "json", "dl1": true}
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ImageProcessor.Tailcuts.PictureThresh != 12 {
		t.Errorf("PictureThresh = %v, want 12", cfg.ImageProcessor.Tailcuts.PictureThresh)
	}
	if cfg.DataWriter.OutputType != "json" {
		t.Errorf("OutputType = %q, want json", cfg.DataWriter.OutputType)
	}
	rc, ok := cfg.ShowerProcessor.Reconstructors["HillasReconstructor"]
	if !ok || rc.ImageQuery != "hillas_intensity > 20" {
		t.Errorf("HillasReconstructor config = %+v, want ImageQuery \"hillas_intensity > 20\"", rc)
	}
}

func TestLoadConfigRejectsBadImageQuery(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	const doc = `{
		"shower_processor": {
			"GeometryReconstructionTypes": ["HillasReconstructor"],
			"HillasReconstructor": {"ImageQuery": "not_a_field > 1"}
		}
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Errorf("expected LoadConfig to reject an ImageQuery referencing an unknown field")
	}
}

func TestLoadConfigRejectsUnknownOutputType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	const doc = `{"data_writer": {"output_type": "parquet"}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Errorf("expected LoadConfig to reject an unrecognized output_type")
	}
}

func TestOverrideMaxLeakage2TightensQuery(t *testing.T) {
	cfg := DefaultConfig()
	if err := OverrideMaxLeakage2(&cfg, 0.15); err != nil {
		t.Fatalf("OverrideMaxLeakage2 returned error: %v", err)
	}

	rc := cfg.ShowerProcessor.Reconstructors["HillasReconstructor"]
	q, err := ParseImageQuery(rc.ImageQuery)
	if err != nil {
		t.Fatalf("rewritten ImageQuery failed to parse: %v", err)
	}

	passing := ImageParameters{
		Hillas:  HillasParameters{Intensity: 100, Width: 0.1},
		Leakage: LeakageParameters{IntensityWidth2: 0.1},
	}
	failing := ImageParameters{
		Hillas:  HillasParameters{Intensity: 100, Width: 0.1},
		Leakage: LeakageParameters{IntensityWidth2: 0.2},
	}

	if !q.Evaluate(passing) {
		t.Errorf("expected the tightened query to pass a low-leakage image")
	}
	if q.Evaluate(failing) {
		t.Errorf("expected the tightened query to reject a high-leakage image above the override threshold")
	}
}
