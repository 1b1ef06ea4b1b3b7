package sinogram

import (
	"fmt"
	"math"
	"strings"

	"penumbra/internal/models"
)

// Padding decides how far past the detected radius rays are sampled. The
// same value pads the crop window, so it also sets the focal spot size.
type Padding interface {
	Pixels(radius int) int
}

// RelativePadding pads by a fraction of the detected radius
type RelativePadding struct {
	Fraction float64
}

func (p RelativePadding) Pixels(radius int) int {
	return int(math.Round(float64(radius) * p.Fraction))
}

// FixedPadding pads by a constant number of pixels
type FixedPadding struct {
	Amount int
}

func (p FixedPadding) Pixels(int) int { return p.Amount }

// DefaultPadding is the relative padding used when nothing is configured
func DefaultPadding() Padding { return RelativePadding{Fraction: 0.323232} }

// PaddingByName resolves the padding policy named in the configuration
func PaddingByName(name string, fraction float64, pixels int) (Padding, error) {
	switch strings.ToLower(name) {
	case "", "relative":
		if fraction < 0 {
			return nil, fmt.Errorf("negative padding fraction %f: %w", fraction, models.ErrConfig)
		}
		return RelativePadding{Fraction: fraction}, nil
	case "fixed":
		if pixels < 0 {
			return nil, fmt.Errorf("negative padding %d: %w", pixels, models.ErrConfig)
		}
		return FixedPadding{Amount: pixels}, nil
	default:
		return nil, fmt.Errorf("no padding policy named %q: %w", name, models.ErrConfig)
	}
}
