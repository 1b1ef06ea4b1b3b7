// Package reconstruction runs the full penumbra pipeline: disk detection,
// radial resampling, the radial derivative, the band crop and the
// tomographic reconstruction of the focal spot.
package reconstruction

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"penumbra/internal/models"
	"penumbra/pkg/detection"
	"penumbra/pkg/sinogram"
	"penumbra/pkg/tomography"
	"penumbra/pkg/visualization"
)

// Params holds the pipeline configuration. Every stage is a replaceable
// strategy; DefaultParams fills in the standard ones.
type Params struct {
	// Detector finds the penumbra disk in the 8-bit image
	Detector detection.BlobDetector

	// Sampler resamples the float image along rays from the disk center
	Sampler *sinogram.Sampler

	// Padding extends the sampling radius past the detected disk edge.
	// The same padding widens the cropped band.
	Padding sinogram.Padding

	// Derivative extracts the edge signal from the radial sinogram
	Derivative sinogram.DerivativeOperator

	// Cropper cuts the derivative sinogram down to the edge band
	Cropper *sinogram.Cropper

	// FBP reconstructs the focal spot from the cropped sinogram
	FBP *tomography.FBP

	// SART optionally refines the backprojection, nil or zero passes skip it
	SART *tomography.SART

	// NumCores bounds the goroutines used by the sampler and the
	// backprojection. Zero keeps the values configured on those stages.
	NumCores int

	// SaveIntermediaryResults writes an image of every stage to IntermediaryDir
	SaveIntermediaryResults bool

	// IntermediaryDir is where intermediary results are saved
	IntermediaryDir string

	// Logger receives progress messages, nil discards them
	Logger *log.Logger
}

// DefaultParams returns the standard pipeline: native detector with a fixed
// threshold, 360 bilinear rays, 32.3% padding, column difference derivative,
// radial band measurement and ramp filtered backprojection
func DefaultParams() *Params {
	return &Params{
		Detector:   detection.NewDetector(),
		Sampler:    sinogram.NewSampler(),
		Padding:    sinogram.DefaultPadding(),
		Derivative: sinogram.ColumnDifference{},
		Cropper:    sinogram.NewCropper(),
		FBP:        tomography.NewFBP(),
		SART:       tomography.NewSART(),
	}
}

// Result is the output of one reconstruction
type Result struct {
	// FocalSpot is the square reconstructed source distribution
	FocalSpot models.Grid

	// Sinogram is the cropped derivative sinogram that was reconstructed
	Sinogram models.Grid

	// Radial is the full radial sinogram before the derivative
	Radial models.Grid

	// Blob is the detected penumbra disk
	Blob models.Blob

	// Padding is the padding in pixels added to the disk radius
	Padding int

	// Window is the radial band that was cut out of the derivative sinogram
	Window models.CropWindow

	// Metrics describes the quality of the reconstruction
	Metrics ValidationMetrics
}

// Reconstructor runs the pipeline with a fixed set of parameters. It is safe
// for concurrent use; the only state kept between calls is the metrics of
// the last run to finish.
type Reconstructor struct {
	params *Params
	logger *log.Logger

	mu      sync.Mutex
	metrics ValidationMetrics
}

// NewReconstructor creates a reconstructor. Nil stages in params are
// replaced by their defaults.
func NewReconstructor(params *Params) *Reconstructor {
	p := *DefaultParams()
	if params != nil {
		if params.Detector != nil {
			p.Detector = params.Detector
		}
		if params.Sampler != nil {
			p.Sampler = params.Sampler
		}
		if params.Padding != nil {
			p.Padding = params.Padding
		}
		if params.Derivative != nil {
			p.Derivative = params.Derivative
		}
		if params.Cropper != nil {
			p.Cropper = params.Cropper
		}
		if params.FBP != nil {
			p.FBP = params.FBP
		}
		p.SART = params.SART
		p.NumCores = params.NumCores
		p.SaveIntermediaryResults = params.SaveIntermediaryResults
		p.IntermediaryDir = params.IntermediaryDir
		p.Logger = params.Logger
	}

	if p.NumCores > 0 {
		sampler := *p.Sampler
		sampler.Workers = p.NumCores
		p.Sampler = &sampler
		fbp := *p.FBP
		fbp.Workers = p.NumCores
		p.FBP = &fbp
	}

	logger := p.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Reconstructor{params: &p, logger: logger}
}

// ReconstructImage runs the pipeline on an 8-bit image, using its [0,1]
// scaled copy as the float image
func (r *Reconstructor) ReconstructImage(img *image.Gray) (*Result, error) {
	return r.Reconstruct(GrayToGrid(img), img)
}

// Reconstruct runs the complete pipeline. img is the float penumbra image
// that gets sampled, gray its 8-bit rendering used for disk detection; both
// must have the same size.
func (r *Reconstructor) Reconstruct(img models.Grid, gray *image.Gray) (*Result, error) {
	if gray == nil {
		return nil, fmt.Errorf("missing 8-bit image: %w", models.ErrDimensionMismatch)
	}
	if b := gray.Bounds(); b.Dx() != img.Width || b.Dy() != img.Height {
		return nil, fmt.Errorf("float image is %dx%d but 8-bit image is %dx%d: %w",
			img.Width, img.Height, b.Dx(), b.Dy(), models.ErrDimensionMismatch)
	}
	if img.Empty() {
		return nil, fmt.Errorf("empty image: %w", models.ErrGeometry)
	}

	if r.params.SaveIntermediaryResults {
		if err := os.MkdirAll(r.params.IntermediaryDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create intermediary directory: %w", err)
		}
	}

	// Step 1: Detect the penumbra disk
	r.logger.Println("Step 1: Detecting penumbra disk...")
	blob := r.params.Detector.Detect(gray)
	if !blob.Valid() {
		return nil, fmt.Errorf("no penumbra disk found (%s): %w", blob, models.ErrGeometry)
	}
	padding := r.params.Padding.Pixels(blob.Radius)
	if padding < 0 {
		padding = 0
	}
	radius := blob.Radius + padding
	r.logger.Printf("Found %s, sampling radius %d (padding %d)", blob, radius, padding)

	if r.params.SaveIntermediaryResults {
		overlay := visualization.DrawBlob(gray, blob, padding)
		overlay = visualization.DrawRays(overlay, blob, radius, r.params.Sampler.AngularSteps, 10)
		r.saveIntermediaryResult("01_detection", overlay)
	}

	// Step 2: Resample the image along rays into the radial sinogram
	r.logger.Printf("Step 2: Sampling %d rays...", r.params.Sampler.AngularSteps)
	radial, err := r.params.Sampler.Sample(img, blob.CenterX, blob.CenterY, radius)
	if err != nil {
		return nil, fmt.Errorf("failed to sample sinogram: %w", err)
	}
	r.saveIntermediaryResult("02_radial_sinogram", radial)

	// Step 3: Extract the edge signal
	r.logger.Printf("Step 3: Applying %s derivative...", r.params.Derivative.Name())
	derivative := r.params.Derivative.Apply(radial)
	r.saveIntermediaryResult("03_derivative_sinogram", derivative)

	// Step 4: Crop the edge band
	r.logger.Println("Step 4: Cropping sinogram to the edge band...")
	cropped, window, err := r.params.Cropper.Crop(radial, derivative, padding)
	if err != nil {
		return nil, fmt.Errorf("failed to crop sinogram: %w", err)
	}
	r.logger.Printf("Band %s", window)
	if r.params.SaveIntermediaryResults {
		marked := visualization.DrawCropWindow(visualization.NewViewer(derivative).Image(), window)
		r.saveIntermediaryResult("04_crop_window", marked)
		r.saveIntermediaryResult("05_cropped_sinogram", cropped)
	}

	// Step 5: Reconstruct the focal spot
	r.logger.Printf("Step 5: Filtered backprojection (%s filter)...", r.params.FBP.Filter)
	theta := tomography.Angles(cropped.Width)
	spot, err := r.params.FBP.Reconstruct(cropped, theta)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct focal spot: %w", err)
	}
	if r.params.SART != nil && r.params.SART.Passes > 0 {
		r.logger.Printf("Refining with %d SART passes...", r.params.SART.Passes)
		spot, err = r.params.SART.Refine(cropped, theta, spot)
		if err != nil {
			return nil, fmt.Errorf("failed to refine focal spot: %w", err)
		}
	}
	r.saveIntermediaryResult("06_focal_spot", spot)

	// Step 6: Calculate validation metrics
	r.logger.Println("Step 6: Calculating validation metrics...")
	metrics, err := calculateValidationMetrics(spot, cropped, theta)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.metrics = metrics
	r.mu.Unlock()

	return &Result{
		FocalSpot: spot,
		Sinogram:  cropped,
		Radial:    radial,
		Blob:      blob,
		Padding:   padding,
		Window:    window,
		Metrics:   metrics,
	}, nil
}

// GetMetrics returns the metrics of the last successful reconstruction
func (r *Reconstructor) GetMetrics() ValidationMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics
}

// GrayToGrid converts an 8-bit image to a grid scaled to [0,1]
func GrayToGrid(img *image.Gray) models.Grid {
	b := img.Bounds()
	g := models.NewGrid(b.Dx(), b.Dy())
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			g.Set(x, y, float64(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y)/255)
		}
	}
	return g
}

// GridToGray renders a grid as an 8-bit image, stretching its range
func GridToGray(g models.Grid) *image.Gray {
	img16 := visualization.NewViewer(g).Image()
	img := image.NewGray(img16.Bounds())
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(img16.Gray16At(x, y).Y >> 8)})
		}
	}
	return img
}

// saveIntermediaryResult saves an intermediary result during the reconstruction
// process. Failures are logged and do not stop the pipeline.
func (r *Reconstructor) saveIntermediaryResult(stage string, data interface{}) {
	if !r.params.SaveIntermediaryResults {
		return
	}

	filename := filepath.Join(r.params.IntermediaryDir, stage+".png")
	var err error
	switch v := data.(type) {
	case image.Image:
		err = visualization.SavePNG(v, filename)
	case models.Grid:
		err = visualization.SaveGrid(v, filename)
	default:
		err = fmt.Errorf("unsupported intermediary type %T", data)
	}
	if err != nil {
		r.logger.Printf("Warning: Failed to save %s: %v", stage, err)
	}
}
