package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"penumbra/internal/models"
	"penumbra/pkg/config"
	_ "penumbra/pkg/cvblob"
	"penumbra/pkg/loader"
	"penumbra/pkg/reconstruction"
	"penumbra/pkg/visualization"
)

func main() {
	// Parse command line arguments
	input := flag.String("input", "", "Penumbra image (png, jpeg, tiff) or raw sensor data with -raw")
	configPath := flag.String("config", "penumbra.yaml", "YAML configuration file, defaults are used if it does not exist")
	initConfig := flag.Bool("init-config", false, "Write the default configuration to -config and exit")
	outputDir := flag.String("output-dir", ".", "Directory for the focal spot and sinogram images")
	focalSpotName := flag.String("focal-spot-name", "focal_spot", "Name of the focal spot image, without extension")
	sinogramName := flag.String("sinogram-name", "sinogram", "Name of the sinogram image, without extension")
	raw := flag.Bool("raw", false, "Read -input as raw little-endian sensor data")
	width := flag.Int("width", 0, "Width of the raw image")
	height := flag.Int("height", 0, "Height of the raw image")
	numCores := flag.Int("cores", 0, "Number of CPU cores to use (default: from config)")
	saveIntermediary := flag.Bool("save-intermediary", false, "Save intermediary results during processing")
	profiles := flag.Bool("profiles", false, "Write the focal spot line profiles through the peak as CSV")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	// Validate inputs
	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *numCores > 0 {
		cfg.Processing.NumCores = *numCores
	}
	if *saveIntermediary {
		cfg.Output.SaveIntermediaryResults = true
	}

	img, gray, err := load(cfg, *input, *raw, *width, *height)
	if err != nil {
		log.Fatalf("Failed to load penumbra: %v", err)
	}

	params, err := cfg.Params(cfg.Logger())
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	reconstructor := reconstruction.NewReconstructor(params)

	startTime := time.Now()
	result, err := reconstructor.Reconstruct(img, gray)
	if err != nil {
		log.Fatalf("Reconstruction failed: %v", err)
	}
	processingTime := time.Since(startTime)

	focalSpotPath := filepath.Join(*outputDir, *focalSpotName+".png")
	sinogramPath := filepath.Join(*outputDir, *sinogramName+".png")
	if err := visualization.SaveGrid(result.FocalSpot, focalSpotPath); err != nil {
		log.Fatalf("Failed to save focal spot: %v", err)
	}
	if err := visualization.SaveGrid(result.Sinogram, sinogramPath); err != nil {
		log.Fatalf("Failed to save sinogram: %v", err)
	}

	fmt.Printf("Reconstruction completed in %.2f seconds\n", processingTime.Seconds())
	fmt.Printf("Penumbra disk: %s, padding %d px\n", result.Blob, result.Padding)
	fmt.Printf("Sinogram band: %s\n", result.Window)
	fmt.Printf("Focal spot: %dx%d saved to %s\n", result.FocalSpot.Width, result.FocalSpot.Height, focalSpotPath)
	fmt.Printf("Sinogram saved to %s\n", sinogramPath)
	fmt.Printf("Metrics: %s\n", result.Metrics)

	if *profiles {
		path := filepath.Join(*outputDir, *focalSpotName+"_profiles.csv")
		if err := writeProfiles(result.FocalSpot, result.Metrics, path); err != nil {
			log.Printf("Warning: Failed to write profiles: %v", err)
		} else {
			fmt.Printf("Profiles through the peak saved to %s\n", path)
		}
	}

	if cfg.Output.SaveIntermediaryResults {
		fmt.Printf("Intermediary results saved to %s\n", cfg.Output.IntermediaryDir)
	}
}

// load reads the penumbra either as an image or as calibrated, equalized
// raw data
func load(cfg *config.Config, path string, raw bool, width, height int) (models.Grid, *image.Gray, error) {
	if !raw {
		return loader.LoadImage(path)
	}
	sampleType, err := cfg.SampleType()
	if err != nil {
		return models.Grid{}, nil, err
	}
	equalizer, err := cfg.Equalizer()
	if err != nil {
		return models.Grid{}, nil, err
	}
	img, _, err := loader.LoadRawFile(path, width, height, sampleType, loader.KVPCalibration(cfg.Calibration.KVP))
	if err != nil {
		return models.Grid{}, nil, err
	}
	img, gray := loader.Equalized(img, equalizer)
	return img, gray, nil
}

// writeProfiles writes the horizontal and vertical profiles through the peak
func writeProfiles(spot models.Grid, m reconstruction.ValidationMetrics, path string) error {
	viewer := visualization.NewViewer(spot)
	horizontal, err := viewer.ExtractProfile("x", m.PeakY)
	if err != nil {
		return err
	}
	vertical, err := viewer.ExtractProfile("y", m.PeakX)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"offset", "horizontal", "vertical"}); err != nil {
		return fmt.Errorf("failed to write profile header: %w", err)
	}
	for i := range horizontal {
		record := []string{
			strconv.Itoa(i - spot.Width/2),
			strconv.FormatFloat(horizontal[i], 'g', 6, 64),
			strconv.FormatFloat(vertical[i], 'g', 6, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write profile row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush profiles: %w", err)
	}
	return nil
}
