//go:build gocv

package cvblob

import (
	"penumbra/pkg/config"
	"penumbra/pkg/detection"
	"penumbra/pkg/loader"
	"penumbra/pkg/sinogram"
)

func init() {
	config.RegisterBackend("opencv", config.Backend{
		Detector: func(cfg *config.Config) (detection.BlobDetector, error) {
			thresholder, err := cfg.Thresholder()
			if err != nil {
				return nil, err
			}
			_, otsu := thresholder.(detection.OtsuThreshold)
			return &Detector{
				BlurSize:        cfg.Detection.BlurSize,
				Threshold:       float32(cfg.Detection.ThresholdValue),
				Otsu:            otsu,
				MinAreaFraction: cfg.Detection.MinAreaFraction,
			}, nil
		},
		Denoiser: func(cfg *config.Config) sinogram.Denoiser {
			return BilateralDenoiser{
				Diameter:   cfg.Crop.BilateralDiameter,
				SigmaColor: cfg.Crop.BilateralSigmaColor,
				SigmaSpace: cfg.Crop.BilateralSigmaSpace,
			}
		},
		Scharr:    ScharrOperator{},
		Equalizer: func(cfg *config.Config) loader.Equalizer {
			return CLAHEEqualizer{ClipLimit: cfg.Calibration.ClipLimit, Tiles: cfg.Calibration.Tiles}
		},
	})
}
