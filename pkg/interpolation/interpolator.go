// Package interpolation provides the sub-pixel sampling strategies used when
// rays are walked across a penumbra image.
package interpolation

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/interp"

	"penumbra/internal/models"
)

// Interpolator estimates the image value at a fractional coordinate.
//
// Implementations must return 0 for any coordinate outside the image extent
// [0, Width-1] x [0, Height-1]; that zero-fill policy is what lets rays run
// past the image edge without failing.
type Interpolator interface {
	At(img models.Grid, x, y float64) float64
	Name() string
}

// Bilinear weights the four nearest neighbours of the coordinate. Neighbours
// past the last row or column are clamped, which only happens when the
// coordinate sits exactly on that edge and its weight is zero.
type Bilinear struct{}

func (Bilinear) Name() string { return "bilinear" }

func (Bilinear) At(img models.Grid, x, y float64) float64 {
	if !inside(img, x, y) {
		return 0
	}

	x1 := int(x)
	y1 := int(y)
	x2 := clamp(x1+1, img.Width-1)
	y2 := clamp(y1+1, img.Height-1)
	fx := x - float64(x1)
	fy := y - float64(y1)

	top := (1-fx)*img.At(x1, y1) + fx*img.At(x2, y1)
	bottom := (1-fx)*img.At(x1, y2) + fx*img.At(x2, y2)

	return (1-fy)*top + fy*bottom
}

// Bicubic fits natural cubic splines through the 4x4 neighbourhood of the
// coordinate, first along each row and then down the resulting column. It is
// slower than Bilinear but keeps more of the edge profile. Neighbourhood
// indices past the image border are replicated from the edge.
type Bicubic struct{}

func (Bicubic) Name() string { return "bicubic" }

func (Bicubic) At(img models.Grid, x, y float64) float64 {
	if !inside(img, x, y) {
		return 0
	}
	if img.Width < 2 || img.Height < 2 {
		return Bilinear{}.At(img, x, y)
	}

	x0 := int(x) - 1
	y0 := int(y) - 1

	knots := [4]float64{-1, 0, 1, 2}
	var rowValues, column [4]float64
	fx := x - float64(x0+1)
	fy := y - float64(y0+1)

	var spline interp.NaturalCubic
	for j := 0; j < 4; j++ {
		yy := clamp(y0+j, img.Height-1)
		for i := 0; i < 4; i++ {
			rowValues[i] = img.At(clamp(x0+i, img.Width-1), yy)
		}
		if err := spline.Fit(knots[:], rowValues[:]); err != nil {
			return Bilinear{}.At(img, x, y)
		}
		column[j] = spline.Predict(fx)
	}

	if err := spline.Fit(knots[:], column[:]); err != nil {
		return Bilinear{}.At(img, x, y)
	}
	return spline.Predict(fy)
}

// ByName resolves an interpolation strategy from its configuration name
func ByName(name string) (Interpolator, error) {
	switch strings.ToLower(name) {
	case "", "bilinear":
		return Bilinear{}, nil
	case "bicubic", "cubic":
		return Bicubic{}, nil
	default:
		return nil, fmt.Errorf("no interpolation strategy named %q: %w", name, models.ErrConfig)
	}
}

func inside(img models.Grid, x, y float64) bool {
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	return x >= 0 && y >= 0 && x <= float64(img.Width-1) && y <= float64(img.Height-1)
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
