// Package simulate generates synthetic penumbra images by convolving a
// blank disk with a focal spot kernel.
package simulate

import (
	"fmt"

	"penumbra/internal/models"
)

// PointKernel returns a size x size kernel with a single unit source in the
// middle pixel
func PointKernel(size int) (models.Grid, error) {
	if size < 1 || size%2 == 0 {
		return models.Grid{}, fmt.Errorf("kernel size must be odd and positive, got %d: %w", size, models.ErrConfig)
	}
	k := models.NewGrid(size, size)
	k.Set(size/2, size/2, 1)
	return k, nil
}

// DualPointKernel returns a size x size kernel with two single pixel sources
// on the horizontal center line, distance//2+1 pixels either side of the
// middle. The right source is twice as intense as the left one.
func DualPointKernel(size, distance int) (models.Grid, error) {
	if size < 1 || size%2 == 0 {
		return models.Grid{}, fmt.Errorf("kernel size must be odd and positive, got %d: %w", size, models.ErrConfig)
	}
	if distance < 1 || distance%2 == 0 {
		return models.Grid{}, fmt.Errorf("source distance must be odd and positive, got %d: %w", distance, models.ErrConfig)
	}
	if distance >= size {
		return models.Grid{}, fmt.Errorf("source distance %d does not fit a kernel of size %d: %w", distance, size, models.ErrConfig)
	}

	k := models.NewGrid(size, size)
	middle := size / 2
	offset := distance/2 + 1
	k.Set(middle-offset, middle, 0.25)
	k.Set(middle+offset, middle, 0.5)
	return k, nil
}

// RectangleKernel returns a width x height block of constant intensity
// (0-255, stored as intensity/255) surrounded by padding zero pixels
func RectangleKernel(width, height int, intensity float64, padding int) (models.Grid, error) {
	if width < 1 || height < 1 || padding < 0 {
		return models.Grid{}, fmt.Errorf("invalid rectangle kernel %dx%d padding %d: %w", width, height, padding, models.ErrConfig)
	}
	if intensity < 0 || intensity > 255 {
		return models.Grid{}, fmt.Errorf("intensity %g outside 0-255: %w", intensity, models.ErrConfig)
	}

	k := models.NewGrid(width+2*padding, height+2*padding)
	for y := padding; y < padding+height; y++ {
		for x := padding; x < padding+width; x++ {
			k.Set(x, y, intensity/255)
		}
	}
	return k, nil
}

// SquareKernel is a RectangleKernel with equal sides
func SquareKernel(size int, intensity float64, padding int) (models.Grid, error) {
	return RectangleKernel(size, size, intensity, padding)
}
