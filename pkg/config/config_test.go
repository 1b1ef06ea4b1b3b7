package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"penumbra/internal/models"
	"penumbra/pkg/detection"
	"penumbra/pkg/interpolation"
	"penumbra/pkg/loader"
	"penumbra/pkg/sinogram"
	"penumbra/pkg/tomography"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if cfg.Sampling.AngularSteps != 360 || cfg.Crop.Threshold != 200 || cfg.Detection.ThresholdValue != 40 {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Reconstruction.Filter != "ramp" {
		t.Errorf("Expected defaults for a missing file, got filter %q", cfg.Reconstruction.Filter)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "penumbra.yaml")

	cfg := DefaultConfig()
	cfg.Sampling.AngularSteps = 720
	cfg.Sampling.Interpolation = "bicubic"
	cfg.Reconstruction.Filter = "hann"
	cfg.Reconstruction.SARTPasses = 2
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Sampling.AngularSteps != 720 || loaded.Sampling.Interpolation != "bicubic" ||
		loaded.Reconstruction.Filter != "hann" || loaded.Reconstruction.SARTPasses != 2 {
		t.Errorf("Loaded config does not match saved one: %+v", loaded)
	}
}

// TestLoadConfigPartialFile verifies unspecified keys keep their defaults
func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "sampling:\n  angularSteps: 180\nedge:\n  operator: scharr\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Sampling.AngularSteps != 180 || cfg.Edge.Operator != "scharr" {
		t.Errorf("Expected overrides to apply, got %+v", cfg.Sampling)
	}
	if cfg.Crop.BilateralDiameter != 15 {
		t.Errorf("Expected default bilateral diameter, got %d", cfg.Crop.BilateralDiameter)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown filter", "reconstruction:\n  filter: butterworth\n"},
		{"unknown interpolation", "sampling:\n  interpolation: lanczos\n"},
		{"unknown backend", "detection:\n  backend: cuda\n"},
		{"bad steps", "sampling:\n  angularSteps: 0\n"},
		{"bad threshold", "detection:\n  thresholdValue: 300\n"},
		{"bad relaxation", "reconstruction:\n  relaxation: 2.5\n"},
		{"even blur", "detection:\n  blurSize: 4\n"},
		{"unknown sample type", "calibration:\n  sampleType: int12\n"},
		{"bad clip limit", "calibration:\n  clipLimit: 0\n"},
		{"no tiles", "calibration:\n  tiles: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
			if _, err := LoadConfig(path); !errors.Is(err, models.ErrConfig) {
				t.Errorf("Expected ErrConfig, got %v", err)
			}
		})
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	os.WriteFile(path, []byte("sampling: [unclosed"), 0644)
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected a parse error")
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile failed: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Calibration.KVP != 70 {
		t.Errorf("Expected kvp 70, got %g", cfg.Calibration.KVP)
	}
}

// TestParamsResolvesStrategies verifies every name lands on its implementation
func TestParamsResolvesStrategies(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detection.Threshold = "otsu"
	cfg.Sampling.Interpolation = "bicubic"
	cfg.Sampling.Padding = "fixed"
	cfg.Sampling.PaddingPixels = 12
	cfg.Edge.Operator = "scharr"
	cfg.Crop.BandSource = "derivative"
	cfg.Reconstruction.Filter = "shepp-logan"
	cfg.Reconstruction.SARTPasses = 3
	cfg.Processing.NumCores = 2

	params, err := cfg.Params(nil)
	if err != nil {
		t.Fatalf("Params failed: %v", err)
	}

	d, ok := params.Detector.(*detection.Detector)
	if !ok {
		t.Fatalf("Expected native detector, got %T", params.Detector)
	}
	if _, ok := d.Thresholder.(detection.OtsuThreshold); !ok {
		t.Errorf("Expected otsu thresholder, got %T", d.Thresholder)
	}
	if _, ok := params.Sampler.Interpolator.(interpolation.Bicubic); !ok {
		t.Errorf("Expected bicubic interpolator, got %T", params.Sampler.Interpolator)
	}
	if params.Padding.Pixels(100) != 12 {
		t.Errorf("Expected fixed padding of 12, got %d", params.Padding.Pixels(100))
	}
	if _, ok := params.Derivative.(sinogram.ScharrRadial); !ok {
		t.Errorf("Expected scharr derivative, got %T", params.Derivative)
	}
	if params.Cropper.Source != sinogram.BandFromDerivative {
		t.Errorf("Expected derivative band source, got %s", params.Cropper.Source)
	}
	if params.FBP.Filter != tomography.SheppLoganFilter {
		t.Errorf("Expected shepp-logan filter, got %s", params.FBP.Filter)
	}
	if params.SART.Passes != 3 || params.NumCores != 2 {
		t.Errorf("Unexpected SART passes %d or cores %d", params.SART.Passes, params.NumCores)
	}
}

func TestEqualizer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Calibration.ClipLimit = 0.02
	cfg.Calibration.Tiles = 4

	eq, err := cfg.Equalizer()
	if err != nil {
		t.Fatalf("Equalizer failed: %v", err)
	}
	clahe, ok := eq.(loader.CLAHE)
	if !ok || clahe.ClipLimit != 0.02 || clahe.Tiles != 4 {
		t.Errorf("Expected CLAHE{0.02, 4}, got %#v", eq)
	}

	cfg.Calibration.Equalize = false
	if eq, err := cfg.Equalizer(); err != nil || eq != nil {
		t.Errorf("Expected no equalizer when disabled, got %v, %v", eq, err)
	}
}

func TestRegisterBackend(t *testing.T) {
	fake := &detection.Detector{BlurSize: 3, Thresholder: detection.FixedThreshold{Value: 10}}
	RegisterBackend("testbackend", Backend{
		Detector: func(*Config) (detection.BlobDetector, error) { return fake, nil },
		Denoiser: func(*Config) sinogram.Denoiser { return sinogram.NoDenoise{} },
	})

	cfg := DefaultConfig()
	cfg.Detection.Backend = "TestBackend"
	detector, err := cfg.Detector()
	if err != nil || detector != fake {
		t.Errorf("Expected the registered detector, got %v, %v", detector, err)
	}
	cropper, err := cfg.Cropper()
	if err != nil {
		t.Fatalf("Cropper failed: %v", err)
	}
	if _, ok := cropper.Denoiser.(sinogram.NoDenoise); !ok {
		t.Errorf("Expected the registered denoiser, got %T", cropper.Denoiser)
	}

	found := false
	for _, name := range Backends() {
		found = found || name == "testbackend"
	}
	if !found {
		t.Errorf("Expected testbackend in %v", Backends())
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected a panic on duplicate registration")
		}
	}()
	RegisterBackend("testbackend", Backend{})
}
