package sinogram

import (
	"fmt"
	"strings"

	"penumbra/internal/models"
)

// DerivativeOperator turns the smooth penumbra edge of a radial sinogram into
// a sharp ridge. A sinogram that is constant along the radial axis must map
// to all zeros.
type DerivativeOperator interface {
	Apply(sino models.Grid) models.Grid
	Name() string
}

// ColumnDifference is the plain backward difference down each column,
// out[r] = in[r-1] - in[r], with the first and last rows set to zero
type ColumnDifference struct{}

func (ColumnDifference) Name() string { return "difference" }

func (ColumnDifference) Apply(sino models.Grid) models.Grid {
	out := models.NewGrid(sino.Width, sino.Height)
	for r := 1; r < sino.Height-1; r++ {
		for a := 0; a < sino.Width; a++ {
			out.Data[r*out.Width+a] = sino.At(a, r-1) - sino.At(a, r)
		}
	}
	return out
}

// ScharrRadial is the radial component of the 3x3 Scharr operator. The
// angular axis wraps around since the first and last columns are neighbours
// on the circle; radial borders are replicated.
type ScharrRadial struct{}

func (ScharrRadial) Name() string { return "scharr" }

func (ScharrRadial) Apply(sino models.Grid) models.Grid {
	out := models.NewGrid(sino.Width, sino.Height)
	if sino.Empty() {
		return out
	}

	weights := [3]float64{3, 10, 3}
	for r := 0; r < sino.Height; r++ {
		up := r - 1
		if up < 0 {
			up = 0
		}
		down := r + 1
		if down >= sino.Height {
			down = sino.Height - 1
		}
		for a := 0; a < sino.Width; a++ {
			sum := 0.0
			for k := -1; k <= 1; k++ {
				col := (a + k + sino.Width) % sino.Width
				sum += weights[k+1] * (sino.At(col, up) - sino.At(col, down))
			}
			out.Data[r*out.Width+a] = sum / 32
		}
	}
	return out
}

// DerivativeByName resolves the derivative operator named in the configuration
func DerivativeByName(name string) (DerivativeOperator, error) {
	switch strings.ToLower(name) {
	case "", "difference", "column":
		return ColumnDifference{}, nil
	case "scharr":
		return ScharrRadial{}, nil
	default:
		return nil, fmt.Errorf("no derivative operator named %q: %w", name, models.ErrConfig)
	}
}
