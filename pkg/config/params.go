package config

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"penumbra/internal/models"
	"penumbra/pkg/detection"
	"penumbra/pkg/interpolation"
	"penumbra/pkg/loader"
	"penumbra/pkg/reconstruction"
	"penumbra/pkg/sinogram"
	"penumbra/pkg/tomography"
)

// Backend supplies alternative implementations of the detection and
// sinogram stages, selected by detection.backend
type Backend struct {
	// Detector builds the disk detector
	Detector func(cfg *Config) (detection.BlobDetector, error)

	// Denoiser builds the crop denoiser, nil keeps the native bilateral filter
	Denoiser func(cfg *Config) sinogram.Denoiser

	// Scharr replaces the native scharr operator when set
	Scharr sinogram.DerivativeOperator

	// Equalizer builds the raw data equalizer, nil keeps the native CLAHE
	Equalizer func(cfg *Config) loader.Equalizer
}

var (
	backendsMu sync.RWMutex
	backends   = map[string]Backend{}
)

// RegisterBackend makes a backend available under name. It panics if the
// name is registered twice.
func RegisterBackend(name string, b Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	name = strings.ToLower(name)
	if _, dup := backends[name]; dup || name == "native" {
		panic("config: RegisterBackend called twice for " + name)
	}
	backends[name] = b
}

// Backends lists the registered backend names, native included
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := []string{"native"}
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names[1:])
	return names
}

func lookupBackend(name string) (Backend, bool, error) {
	name = strings.ToLower(name)
	if name == "" || name == "native" {
		return Backend{}, false, nil
	}
	backendsMu.RLock()
	b, ok := backends[name]
	backendsMu.RUnlock()
	if !ok {
		return Backend{}, false, fmt.Errorf("detection backend %q not available (have %s): %w",
			name, strings.Join(Backends(), ", "), models.ErrConfig)
	}
	return b, true, nil
}

// Thresholder resolves the detection threshold strategy
func (cfg *Config) Thresholder() (detection.Thresholder, error) {
	return detection.ThresholderByName(cfg.Detection.Threshold, uint8(cfg.Detection.ThresholdValue))
}

// Interpolator resolves the sampling interpolator
func (cfg *Config) Interpolator() (interpolation.Interpolator, error) {
	return interpolation.ByName(cfg.Sampling.Interpolation)
}

// Padding resolves the padding policy
func (cfg *Config) Padding() (sinogram.Padding, error) {
	return sinogram.PaddingByName(cfg.Sampling.Padding, cfg.Sampling.PaddingFraction, cfg.Sampling.PaddingPixels)
}

// Derivative resolves the edge operator, preferring the backend's scharr
// operator when one is registered
func (cfg *Config) Derivative() (sinogram.DerivativeOperator, error) {
	op, err := sinogram.DerivativeByName(cfg.Edge.Operator)
	if err != nil {
		return nil, err
	}
	backend, ok, err := lookupBackend(cfg.Detection.Backend)
	if err != nil {
		return nil, err
	}
	if _, native := op.(sinogram.ScharrRadial); native && ok && backend.Scharr != nil {
		return backend.Scharr, nil
	}
	return op, nil
}

// Filter resolves the reconstruction filter
func (cfg *Config) Filter() (tomography.Filter, error) {
	return tomography.FilterByName(cfg.Reconstruction.Filter)
}

// SampleType resolves the raw sample encoding
func (cfg *Config) SampleType() (loader.SampleType, error) {
	return loader.SampleTypeByName(cfg.Calibration.SampleType)
}

// Equalizer builds the contrast equalizer applied to calibrated raw data,
// nil when equalization is disabled
func (cfg *Config) Equalizer() (loader.Equalizer, error) {
	if !cfg.Calibration.Equalize {
		return nil, nil
	}
	backend, ok, err := lookupBackend(cfg.Detection.Backend)
	if err != nil {
		return nil, err
	}
	if ok && backend.Equalizer != nil {
		return backend.Equalizer(cfg), nil
	}
	return loader.CLAHE{ClipLimit: cfg.Calibration.ClipLimit, Tiles: cfg.Calibration.Tiles}, nil
}

// Detector builds the configured disk detector
func (cfg *Config) Detector() (detection.BlobDetector, error) {
	backend, ok, err := lookupBackend(cfg.Detection.Backend)
	if err != nil {
		return nil, err
	}
	if ok {
		return backend.Detector(cfg)
	}

	thresholder, err := cfg.Thresholder()
	if err != nil {
		return nil, err
	}
	return &detection.Detector{
		BlurSize:        cfg.Detection.BlurSize,
		Thresholder:     thresholder,
		MinAreaFraction: cfg.Detection.MinAreaFraction,
	}, nil
}

// Cropper builds the configured sinogram cropper
func (cfg *Config) Cropper() (*sinogram.Cropper, error) {
	source, err := sinogram.BandSourceByName(cfg.Crop.BandSource)
	if err != nil {
		return nil, err
	}

	var denoiser sinogram.Denoiser = sinogram.Bilateral{
		Diameter:   cfg.Crop.BilateralDiameter,
		SigmaColor: cfg.Crop.BilateralSigmaColor,
		SigmaSpace: cfg.Crop.BilateralSigmaSpace,
	}
	backend, ok, err := lookupBackend(cfg.Detection.Backend)
	if err != nil {
		return nil, err
	}
	if ok && backend.Denoiser != nil {
		denoiser = backend.Denoiser(cfg)
	}

	return &sinogram.Cropper{
		Denoiser:  denoiser,
		Threshold: cfg.Crop.Threshold,
		Source:    source,
	}, nil
}

// Params builds the reconstruction parameters described by the configuration
func (cfg *Config) Params(logger *log.Logger) (*reconstruction.Params, error) {
	detector, err := cfg.Detector()
	if err != nil {
		return nil, err
	}
	interpolator, err := cfg.Interpolator()
	if err != nil {
		return nil, err
	}
	padding, err := cfg.Padding()
	if err != nil {
		return nil, err
	}
	derivative, err := cfg.Derivative()
	if err != nil {
		return nil, err
	}
	cropper, err := cfg.Cropper()
	if err != nil {
		return nil, err
	}
	filter, err := cfg.Filter()
	if err != nil {
		return nil, err
	}

	return &reconstruction.Params{
		Detector: detector,
		Sampler: &sinogram.Sampler{
			AngularSteps: cfg.Sampling.AngularSteps,
			Interpolator: interpolator,
			Workers:      1,
		},
		Padding:                 padding,
		Derivative:              derivative,
		Cropper:                 cropper,
		FBP:                     &tomography.FBP{Filter: filter, Workers: 1},
		SART:                    &tomography.SART{Passes: cfg.Reconstruction.SARTPasses, Relaxation: cfg.Reconstruction.Relaxation},
		NumCores:                cfg.Processing.NumCores,
		SaveIntermediaryResults: cfg.Output.SaveIntermediaryResults,
		IntermediaryDir:         cfg.Output.IntermediaryDir,
		Logger:                  logger,
	}, nil
}
