package tomography

import (
	"fmt"

	"penumbra/internal/models"
)

// SART refines a reconstruction with simultaneous algebraic reconstruction
// passes. Every pass visits the angles in order and corrects the image by
// the normalised residual between the measured and the projected sinogram.
type SART struct {
	// Passes is the number of full sweeps over all angles
	Passes int

	// Relaxation scales every correction
	Relaxation float64
}

// NewSART returns a refiner with no passes and the usual relaxation of 0.15
func NewSART() *SART {
	return &SART{Passes: 0, Relaxation: 0.15}
}

// Refine runs the configured passes starting from initial, which is
// typically the filtered backprojection of sino. initial is not modified.
func (s *SART) Refine(sino models.Grid, thetaDeg []float64, initial models.Grid) (models.Grid, error) {
	if len(thetaDeg) != sino.Width {
		return models.Grid{}, fmt.Errorf("%d angles for %d projections: %w", len(thetaDeg), sino.Width, models.ErrDimensionMismatch)
	}
	if initial.Width != sino.Height || initial.Height != sino.Height {
		return models.Grid{}, fmt.Errorf("initial image %dx%d does not match sinogram height %d: %w",
			initial.Width, initial.Height, sino.Height, models.ErrDimensionMismatch)
	}
	if s.Relaxation <= 0 || s.Relaxation >= 2 {
		return models.Grid{}, fmt.Errorf("relaxation %g outside (0, 2): %w", s.Relaxation, models.ErrConfig)
	}

	img := initial.Copy()
	if s.Passes <= 0 || sino.Height < 2 {
		return img, nil
	}

	g := newGeometry(sino.Height, thetaDeg)

	// ray lengths through the reconstruction circle, per angle and detector
	support := make([]float64, g.size*g.size)
	for row := 0; row < g.size; row++ {
		for col := 0; col < g.size; col++ {
			if g.inCircle(row, col) {
				support[row*g.size+col] = 1
			}
		}
	}
	rayLength := make([][]float64, len(thetaDeg))
	for a := range thetaDeg {
		rayLength[a] = make([]float64, g.size)
		g.projectAngle(support, a, rayLength[a])
	}

	proj := make([]float64, g.size)
	residual := make([]float64, g.size)
	for pass := 0; pass < s.Passes; pass++ {
		for a := range thetaDeg {
			g.projectAngle(img.Data, a, proj)
			for t := range residual {
				residual[t] = 0
				if rayLength[a][t] > 0 {
					residual[t] = (sino.At(a, t) - proj[t]) / rayLength[a][t]
				}
			}
			for row := 0; row < g.size; row++ {
				for col := 0; col < g.size; col++ {
					if !g.inCircle(row, col) {
						continue
					}
					lo, wlo, whi, ok := g.weights(g.detector(row, col, a))
					if !ok {
						continue
					}
					img.Data[row*g.size+col] += s.Relaxation * (wlo*residual[lo] + whi*residual[lo+1])
				}
			}
		}
	}
	return img, nil
}
