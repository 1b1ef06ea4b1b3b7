package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"penumbra/internal/models"
)

// Viewer renders float grids (penumbra images, sinograms and focal spots)
// as contrast stretched grayscale images and extracts line profiles from
// them.
type Viewer struct {
	// grid is the data being viewed
	grid models.Grid

	// min and max are the intensity bounds mapped to black and white
	min float64
	max float64
}

// NewViewer creates a viewer stretching the full intensity range of grid
func NewViewer(grid models.Grid) *Viewer {
	min, max := grid.MinMax()
	return &Viewer{grid: grid, min: min, max: max}
}

// Image returns the grid as a 16-bit grayscale image, min mapped to black
// and max to white. A flat grid renders black.
func (v *Viewer) Image() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, v.grid.Width, v.grid.Height))
	span := v.max - v.min
	for y := 0; y < v.grid.Height; y++ {
		for x := 0; x < v.grid.Width; x++ {
			var level float64
			if span > 0 {
				level = (v.grid.At(x, y) - v.min) / span
			}
			value := uint16(math.Max(0, math.Min(65535, math.Round(level*65535))))
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return img
}

// ExtractProfile returns the line through the grid along the given axis:
// row position for "x", column position for "y"
func (v *Viewer) ExtractProfile(axis string, position int) ([]float64, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	switch axis {
	case "x", "X":
		if position >= v.grid.Height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.grid.Height)
		}
		return v.grid.Row(position), nil
	case "y", "Y":
		if position >= v.grid.Width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.grid.Width)
		}
		return v.grid.Column(position), nil
	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x or y)", axis)
	}
}

// ExtractRegion copies a rectangular subregion of the grid
func (v *Viewer) ExtractRegion(startX, startY, sizeX, sizeY int) (models.Grid, error) {
	if startX < 0 || startY < 0 {
		return models.Grid{}, fmt.Errorf("start coordinates must be non-negative")
	}
	if sizeX <= 0 || sizeY <= 0 {
		return models.Grid{}, fmt.Errorf("size dimensions must be positive")
	}
	if startX+sizeX > v.grid.Width || startY+sizeY > v.grid.Height {
		return models.Grid{}, fmt.Errorf("region extends beyond grid boundaries")
	}

	region := models.NewGrid(sizeX, sizeY)
	for y := 0; y < sizeY; y++ {
		copy(region.Data[y*sizeX:(y+1)*sizeX], v.grid.Data[(startY+y)*v.grid.Width+startX:])
	}
	return region, nil
}

// Save writes the contrast stretched grid as a PNG file
func (v *Viewer) Save(filename string) error {
	return SavePNG(v.Image(), filename)
}

// SavePNG encodes img into filename, creating parent directories as needed
func SavePNG(img image.Image, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// SaveGrid is a shorthand for NewViewer(g).Save(filename)
func SaveGrid(g models.Grid, filename string) error {
	return NewViewer(g).Save(filename)
}
