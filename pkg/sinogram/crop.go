package sinogram

import (
	"fmt"
	"math"
	"strings"

	"penumbra/internal/models"
)

// BandSource selects which sinogram the cropper measures the band on
type BandSource int

const (
	// BandFromRadial measures the bright umbra of the raw radial sinogram
	BandFromRadial BandSource = iota

	// BandFromDerivative measures the ridge of the derivative sinogram
	BandFromDerivative
)

func (s BandSource) String() string {
	if s == BandFromDerivative {
		return "derivative"
	}
	return "radial"
}

// BandSourceByName resolves a band source from its configuration name
func BandSourceByName(name string) (BandSource, error) {
	switch strings.ToLower(name) {
	case "", "radial", "raw":
		return BandFromRadial, nil
	case "derivative":
		return BandFromDerivative, nil
	default:
		return 0, fmt.Errorf("no band source named %q: %w", name, models.ErrConfig)
	}
}

// Cropper isolates the narrow radial band holding the edge transition. The
// band is found on a denoised, binarized copy of the source sinogram; the
// derivative sinogram is what gets cut.
type Cropper struct {
	// Denoiser smooths the 0..255 scaled copy before binarization
	Denoiser Denoiser

	// Threshold on the 0..255 scale, samples above it are foreground
	Threshold float64

	// Source picks the sinogram the band is measured on
	Source BandSource
}

// NewCropper returns a cropper with the bilateral denoiser, a threshold of
// 200 and the band measured on the radial sinogram
func NewCropper() *Cropper {
	return &Cropper{
		Denoiser:  NewBilateral(),
		Threshold: 200,
		Source:    BandFromRadial,
	}
}

// Binarize returns the thresholded copy of g the band is measured on, with
// foreground set to 1
func (c *Cropper) Binarize(g models.Grid) (models.Grid, error) {
	_, max := g.MinMax()
	if max <= 0 || math.IsNaN(max) || math.IsInf(max, 0) {
		return models.Grid{}, fmt.Errorf("sinogram peak %f: %w", max, models.ErrNoBand)
	}

	scaled := models.NewGrid(g.Width, g.Height)
	for i, v := range g.Data {
		if v > 0 {
			scaled.Data[i] = v / max * 255
		}
	}

	denoiser := c.Denoiser
	if denoiser == nil {
		denoiser = NoDenoise{}
	}
	smooth := denoiser.Denoise(scaled)

	bin := models.NewGrid(g.Width, g.Height)
	for i, v := range smooth.Data {
		if v > c.Threshold {
			bin.Data[i] = 1
		}
	}
	return bin, nil
}

// Window measures the band on g. Every angular column is scanned from the
// outer radial end; the distance of its first foreground sample (row + 1) is
// collected, the smallest becomes Top and the largest Center. Bottom mirrors
// Top around Center, then padding is added on both sides.
func (c *Cropper) Window(g models.Grid, padding int) (models.CropWindow, error) {
	if padding < 0 {
		padding = 0
	}

	bin, err := c.Binarize(g)
	if err != nil {
		return models.CropWindow{}, err
	}

	top, center := math.MaxInt, 0
	for a := 0; a < bin.Width; a++ {
		for r := bin.Height - 1; r >= 0; r-- {
			if bin.At(a, r) == 0 {
				continue
			}
			length := r + 1
			if length < top {
				top = length
			}
			if length > center {
				center = length
			}
			break
		}
	}
	if center == 0 {
		return models.CropWindow{}, fmt.Errorf("no sample above %.0f: %w", c.Threshold, models.ErrNoBand)
	}

	// a concentric band still gets one row so the window is never empty
	ring := center - top
	if ring < 1 {
		ring = 1
	}

	w := models.CropWindow{
		Top:    top,
		Center: center,
		Bottom: center + ring,
		Start:  top - padding,
		End:    center + ring + padding,
	}
	if w.Start < 0 {
		w.Start = 0
	}
	if w.Bottom > g.Height {
		w.Bottom = g.Height
	}
	return w, nil
}

// Crop finds the band and slices the derivative sinogram to it. Rows past
// the end of the sinogram are zero, the same policy the sampler applies
// outside the image, so the window stays centered on the band.
func (c *Cropper) Crop(radial, derivative models.Grid, padding int) (models.Grid, models.CropWindow, error) {
	if radial.Width != derivative.Width || radial.Height != derivative.Height {
		return models.Grid{}, models.CropWindow{}, fmt.Errorf("radial %dx%d vs derivative %dx%d: %w",
			radial.Width, radial.Height, derivative.Width, derivative.Height, models.ErrDimensionMismatch)
	}

	source := radial
	if c.Source == BandFromDerivative {
		source = derivative
	}

	w, err := c.Window(source, padding)
	if err != nil {
		return models.Grid{}, models.CropWindow{}, err
	}
	return derivative.SliceRows(w.Start, w.End), w, nil
}
