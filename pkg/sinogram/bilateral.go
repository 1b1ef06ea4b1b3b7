package sinogram

import (
	"math"

	"penumbra/internal/models"
)

// Denoiser smooths a sinogram before it is binarized. Values arrive scaled to
// the 0..255 range of an 8-bit image.
type Denoiser interface {
	Denoise(g models.Grid) models.Grid
}

// Bilateral is an edge preserving blur: neighbours are weighted by both
// their distance and their difference in value, so the band edge stays put
// while speckle inside the band is averaged away.
type Bilateral struct {
	// Diameter of the neighbourhood in pixels
	Diameter int

	// SigmaColor is the value difference at which weights fall off
	SigmaColor float64

	// SigmaSpace is the distance at which weights fall off
	SigmaSpace float64
}

// NewBilateral returns the filter with diameter 15, sigmaColor 30 and sigmaSpace 7.5
func NewBilateral() Bilateral {
	return Bilateral{Diameter: 15, SigmaColor: 30, SigmaSpace: 7.5}
}

func (b Bilateral) Denoise(g models.Grid) models.Grid {
	out := models.NewGrid(g.Width, g.Height)
	radius := b.Diameter / 2
	if radius < 1 || b.SigmaColor <= 0 || b.SigmaSpace <= 0 {
		copy(out.Data, g.Data)
		return out
	}

	// spatial weights inside the circular neighbourhood, 0 outside it
	size := 2*radius + 1
	space := make([]float64, size*size)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			if d2 > float64(radius*radius) {
				continue
			}
			space[(dy+radius)*size+dx+radius] = math.Exp(-d2 / (2 * b.SigmaSpace * b.SigmaSpace))
		}
	}
	colorCoeff := -1 / (2 * b.SigmaColor * b.SigmaColor)

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			center := g.At(x, y)
			sum, norm := 0.0, 0.0
			for dy := -radius; dy <= radius; dy++ {
				yy := clampIndex(y+dy, g.Height)
				for dx := -radius; dx <= radius; dx++ {
					ws := space[(dy+radius)*size+dx+radius]
					if ws == 0 {
						continue
					}
					v := g.At(clampIndex(x+dx, g.Width), yy)
					diff := v - center
					w := ws * math.Exp(diff*diff*colorCoeff)
					sum += w * v
					norm += w
				}
			}
			out.Data[y*out.Width+x] = sum / norm
		}
	}
	return out
}

// NoDenoise passes the grid through untouched
type NoDenoise struct{}

func (NoDenoise) Denoise(g models.Grid) models.Grid { return g.Copy() }

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
