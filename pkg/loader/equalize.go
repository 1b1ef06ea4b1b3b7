package loader

import (
	"image"
	"math"

	"penumbra/internal/models"
)

// Equalizer enhances the contrast of a [0,1] image before the disk is
// detected. Calibrated radiography data is too flat for a fixed threshold
// without it.
type Equalizer interface {
	Equalize(g models.Grid) models.Grid
}

// CLAHE is contrast limited adaptive histogram equalization. The image is
// split into Tiles x Tiles contextual regions, each region's 256-bin
// histogram is clipped at ClipLimit times its pixel count with the excess
// spread evenly over all bins, and every pixel is mapped through the
// bilinear blend of the four nearest region mappings.
type CLAHE struct {
	// ClipLimit is the largest share of a region a single bin may hold, in (0, 1]
	ClipLimit float64

	// Tiles is the number of regions along each axis
	Tiles int
}

// NewCLAHE returns an equalizer with an 8x8 region grid and a clip limit of 0.01
func NewCLAHE() CLAHE {
	return CLAHE{ClipLimit: 0.01, Tiles: 8}
}

const histBins = 256

func (c CLAHE) Equalize(g models.Grid) models.Grid {
	out := models.NewGrid(g.Width, g.Height)
	if g.Empty() {
		return out
	}

	tiles := c.Tiles
	if tiles < 1 {
		tiles = 1
	}
	tilesX, tilesY := tiles, tiles
	if tilesX > g.Width {
		tilesX = g.Width
	}
	if tilesY > g.Height {
		tilesY = g.Height
	}
	tileW := (g.Width + tilesX - 1) / tilesX
	tileH := (g.Height + tilesY - 1) / tilesY
	// rounding the tile size up can leave fewer regions than asked for
	tilesX = (g.Width + tileW - 1) / tileW
	tilesY = (g.Height + tileH - 1) / tileH

	bins := make([]int, len(g.Data))
	for i, v := range g.Data {
		bins[i] = int(math.Max(0, math.Min(histBins-1, math.Round(v*(histBins-1)))))
	}

	// mapping of every region from bin to the equalized value in [0,1]
	mappings := make([][histBins]float64, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := min(x0+tileW, g.Width), min(y0+tileH, g.Height)

			var hist [histBins]float64
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[bins[y*g.Width+x]]++
				}
			}
			pixels := float64((x1 - x0) * (y1 - y0))
			clipHistogram(&hist, math.Max(1, c.ClipLimit*pixels))

			m := &mappings[ty*tilesX+tx]
			cdf := 0.0
			for b := range hist {
				cdf += hist[b]
				m[b] = cdf / pixels
			}
		}
	}

	// region centers are at (i+0.5)*tile; pixels beyond the outer centers
	// use the nearest region only
	for y := 0; y < g.Height; y++ {
		ty0, ty1, fy := neighbourTiles(y, tileH, tilesY)
		for x := 0; x < g.Width; x++ {
			tx0, tx1, fx := neighbourTiles(x, tileW, tilesX)
			b := bins[y*g.Width+x]
			top := (1-fx)*mappings[ty0*tilesX+tx0][b] + fx*mappings[ty0*tilesX+tx1][b]
			bottom := (1-fx)*mappings[ty1*tilesX+tx0][b] + fx*mappings[ty1*tilesX+tx1][b]
			out.Data[y*out.Width+x] = (1-fy)*top + fy*bottom
		}
	}
	return out
}

// clipHistogram caps every bin at limit and spreads the excess evenly
func clipHistogram(hist *[histBins]float64, limit float64) {
	excess := 0.0
	for b, n := range hist {
		if n > limit {
			excess += n - limit
			hist[b] = limit
		}
	}
	share := excess / histBins
	for b := range hist {
		hist[b] += share
	}
}

// neighbourTiles returns the two regions around pixel position p along one
// axis and the weight of the second
func neighbourTiles(p, tile, count int) (int, int, float64) {
	pos := (float64(p)+0.5)/float64(tile) - 0.5
	if pos <= 0 {
		return 0, 0, 0
	}
	if pos >= float64(count-1) {
		return count - 1, count - 1, 0
	}
	lo := int(pos)
	return lo, lo + 1, pos - float64(lo)
}

// Equalized applies eq to g and returns the result with its 8-bit
// rendering. A nil equalizer returns g unchanged.
func Equalized(g models.Grid, eq Equalizer) (models.Grid, *image.Gray) {
	if eq != nil {
		g = eq.Equalize(g)
	}
	return g, g.ToGray()
}
