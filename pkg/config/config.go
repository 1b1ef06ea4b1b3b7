// Package config provides configuration loading and management for penumbra.
// It handles loading configuration from YAML files, provides default values
// and turns the named strategies into pipeline parameters.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"penumbra/internal/models"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Disk detection parameters
	Detection struct {
		// Backend selects the detector implementation: native or opencv
		Backend string `yaml:"backend"`

		// Threshold is the binarization strategy: fixed or otsu
		Threshold string `yaml:"threshold"`

		// ThresholdValue is the level used by the fixed strategy (0-255)
		ThresholdValue int `yaml:"thresholdValue"`

		// MinAreaFraction is the smallest accepted disk as a share of the image
		MinAreaFraction float64 `yaml:"minAreaFraction"`

		// BlurSize is the smoothing kernel size applied before thresholding
		BlurSize int `yaml:"blurSize"`
	} `yaml:"detection"`

	// Radial sampling parameters
	Sampling struct {
		// AngularSteps is the number of rays and sinogram columns
		AngularSteps int `yaml:"angularSteps"`

		// Padding selects relative or fixed padding of the disk radius
		Padding string `yaml:"padding"`

		// PaddingFraction is the relative padding as a share of the radius
		PaddingFraction float64 `yaml:"paddingFraction"`

		// PaddingPixels is the fixed padding in pixels
		PaddingPixels int `yaml:"paddingPixels"`

		// Interpolation is the sub-pixel sampler: bilinear or bicubic
		Interpolation string `yaml:"interpolation"`
	} `yaml:"sampling"`

	// Edge extraction parameters
	Edge struct {
		// Operator is the radial derivative: difference or scharr
		Operator string `yaml:"operator"`
	} `yaml:"edge"`

	// Sinogram crop parameters
	Crop struct {
		// BandSource is the sinogram the band is measured on: radial or derivative
		BandSource string `yaml:"bandSource"`

		// Threshold on the 0..255 scale separating the band from the background
		Threshold float64 `yaml:"threshold"`

		// Bilateral filter applied before thresholding
		BilateralDiameter   int     `yaml:"bilateralDiameter"`
		BilateralSigmaColor float64 `yaml:"bilateralSigmaColor"`
		BilateralSigmaSpace float64 `yaml:"bilateralSigmaSpace"`
	} `yaml:"crop"`

	// Tomographic reconstruction parameters
	Reconstruction struct {
		// Filter applied to the projections: ramp, shepp-logan, cosine, hamming, hann or none
		Filter string `yaml:"filter"`

		// SARTPasses is the number of refinement passes after backprojection
		SARTPasses int `yaml:"sartPasses"`

		// Relaxation scales every SART correction
		Relaxation float64 `yaml:"relaxation"`
	} `yaml:"reconstruction"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for parallel processing
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Raw sensor data parameters
	Calibration struct {
		// KVP is the tube voltage used to map computed radiography values
		KVP float64 `yaml:"kvp"`

		// SampleType is the raw sample encoding, e.g. uint16
		SampleType string `yaml:"sampleType"`

		// Equalize applies adaptive histogram equalization to calibrated raw data
		Equalize bool `yaml:"equalize"`

		// ClipLimit is the equalization clip limit as a share of a region, in (0, 1]
		ClipLimit float64 `yaml:"clipLimit"`

		// Tiles is the number of equalization regions along each axis
		Tiles int `yaml:"tiles"`
	} `yaml:"calibration"`

	// Output parameters
	Output struct {
		// SaveIntermediaryResults determines whether to save intermediary processing results
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// IntermediaryDir is where intermediary results are written
		IntermediaryDir string `yaml:"intermediaryDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Detection.Backend = "native"
	cfg.Detection.Threshold = "fixed"
	cfg.Detection.ThresholdValue = 40
	cfg.Detection.MinAreaFraction = 0.05
	cfg.Detection.BlurSize = 5

	cfg.Sampling.AngularSteps = 360
	cfg.Sampling.Padding = "relative"
	cfg.Sampling.PaddingFraction = 0.323232
	cfg.Sampling.PaddingPixels = 0
	cfg.Sampling.Interpolation = "bilinear"

	cfg.Edge.Operator = "difference"

	cfg.Crop.BandSource = "radial"
	cfg.Crop.Threshold = 200
	cfg.Crop.BilateralDiameter = 15
	cfg.Crop.BilateralSigmaColor = 30
	cfg.Crop.BilateralSigmaSpace = 7.5

	cfg.Reconstruction.Filter = "ramp"
	cfg.Reconstruction.SARTPasses = 0
	cfg.Reconstruction.Relaxation = 0.15

	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default

	cfg.Calibration.KVP = 70
	cfg.Calibration.SampleType = "uint16"
	cfg.Calibration.Equalize = true
	cfg.Calibration.ClipLimit = 0.01
	cfg.Calibration.Tiles = 8

	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.IntermediaryDir = "debug_images"
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Validate checks value ranges and that every named strategy exists
func (cfg *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("invalid config: %s: %w", fmt.Sprintf(format, args...), models.ErrConfig)
	}

	if v := cfg.Detection.ThresholdValue; v < 0 || v > 255 {
		return invalid("detection.thresholdValue %d outside 0-255", v)
	}
	if v := cfg.Detection.MinAreaFraction; v < 0 || v >= 1 {
		return invalid("detection.minAreaFraction %g outside [0,1)", v)
	}
	if v := cfg.Detection.BlurSize; v < 0 || (v > 1 && v%2 == 0) {
		return invalid("detection.blurSize %d must be odd", v)
	}
	if cfg.Sampling.AngularSteps < 1 {
		return invalid("sampling.angularSteps %d must be positive", cfg.Sampling.AngularSteps)
	}
	if cfg.Sampling.PaddingFraction < 0 || cfg.Sampling.PaddingPixels < 0 {
		return invalid("sampling padding must not be negative")
	}
	if v := cfg.Crop.Threshold; v < 0 || v >= 255 {
		return invalid("crop.threshold %g outside [0,255)", v)
	}
	if v := cfg.Reconstruction.Relaxation; v <= 0 || v >= 2 {
		return invalid("reconstruction.relaxation %g outside (0,2)", v)
	}
	if cfg.Reconstruction.SARTPasses < 0 {
		return invalid("reconstruction.sartPasses %d is negative", cfg.Reconstruction.SARTPasses)
	}
	if v := cfg.Calibration.ClipLimit; v <= 0 || v > 1 {
		return invalid("calibration.clipLimit %g outside (0,1]", v)
	}
	if cfg.Calibration.Tiles < 1 {
		return invalid("calibration.tiles %d must be positive", cfg.Calibration.Tiles)
	}
	if cfg.Processing.NumCores < 0 {
		return invalid("processing.numCores %d is negative", cfg.Processing.NumCores)
	}

	// resolving the strategies reports unknown names
	if _, err := cfg.Params(nil); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.SampleType(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Logger returns a logger writing to stderr when verbose output is enabled
// and nil otherwise
func (cfg *Config) Logger() *log.Logger {
	if !cfg.Output.Verbose {
		return nil
	}
	return log.New(os.Stderr, "penumbra: ", log.LstdFlags)
}
