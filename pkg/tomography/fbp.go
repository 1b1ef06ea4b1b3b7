// Package tomography reconstructs images from parallel beam sinograms with
// filtered backprojection and refines them with SART passes.
//
// A sinogram has one row per detector position and one column per
// projection angle. The detector coordinate of image pixel (row, col) at
// angle theta is t = x*cos(theta) - y*sin(theta) with x = col - H/2 and
// y = row - H/2, where H is the sinogram height and also the side of the
// reconstructed image.
package tomography

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"penumbra/internal/models"
)

// Angles returns n projection angles in degrees evenly covering [0, 360)
func Angles(n int) []float64 {
	if n <= 0 {
		return nil
	}
	return floats.Span(make([]float64, n+1), 0, 360)[:n]
}

// geometry caches the per-angle trigonometry shared by the projector and
// the backprojector
type geometry struct {
	size   int
	radius int
	cos    []float64
	sin    []float64
}

func newGeometry(size int, thetaDeg []float64) geometry {
	g := geometry{
		size:   size,
		radius: size / 2,
		cos:    make([]float64, len(thetaDeg)),
		sin:    make([]float64, len(thetaDeg)),
	}
	for i, deg := range thetaDeg {
		rad := deg * math.Pi / 180
		g.cos[i] = math.Cos(rad)
		g.sin[i] = math.Sin(rad)
	}
	return g
}

// inCircle reports whether pixel (row, col) lies in the reconstruction circle
func (g geometry) inCircle(row, col int) bool {
	x := col - g.radius
	y := row - g.radius
	return x*x+y*y <= g.radius*g.radius
}

// detector returns the fractional detector row hit by pixel (row, col) at
// angle a
func (g geometry) detector(row, col, a int) float64 {
	x := float64(col - g.radius)
	y := float64(row - g.radius)
	return x*g.cos[a] - y*g.sin[a] + float64(g.radius)
}

// weights splits a fractional detector row into its two neighbouring rows.
// Positions outside [0, size-1] get no weight.
func (g geometry) weights(pos float64) (lo int, wlo, whi float64, ok bool) {
	if pos < 0 || pos > float64(g.size-1) {
		return 0, 0, 0, false
	}
	lo = int(math.Floor(pos))
	frac := pos - float64(lo)
	if lo == g.size-1 {
		return lo - 1, 0, 1, true
	}
	return lo, 1 - frac, frac, true
}

// FBP is a filtered backprojection reconstructor
type FBP struct {
	// Filter applied to each projection
	Filter Filter

	// Workers is the number of goroutines the angles are split over
	Workers int
}

// NewFBP returns a ramp filtered backprojection using a single worker
func NewFBP() *FBP {
	return &FBP{Filter: RampFilter, Workers: 1}
}

// Reconstruct backprojects the filtered sinogram into a square image whose
// side equals the sinogram height. thetaDeg holds the angle of every column.
func (f *FBP) Reconstruct(sino models.Grid, thetaDeg []float64) (models.Grid, error) {
	if sino.Empty() {
		return models.Grid{}, fmt.Errorf("cannot reconstruct an empty sinogram: %w", models.ErrGeometry)
	}
	if sino.Height < 2 {
		return models.Grid{}, fmt.Errorf("sinogram needs at least 2 rows, got %d: %w", sino.Height, models.ErrGeometry)
	}
	if len(thetaDeg) != sino.Width {
		return models.Grid{}, fmt.Errorf("%d angles for %d projections: %w", len(thetaDeg), sino.Width, models.ErrDimensionMismatch)
	}

	filtered := filterProjections(sino, f.Filter)
	g := newGeometry(sino.Height, thetaDeg)
	out := backproject(filtered, g, f.Workers)
	floats.Scale(math.Pi/float64(2*len(thetaDeg)), out.Data)
	return out, nil
}

// backproject smears every projection across the image. Angles are split
// into contiguous chunks, one per worker, and the partial images are summed
// in chunk order so the result only depends on the worker count.
func backproject(sino models.Grid, g geometry, workers int) models.Grid {
	nAngles := len(g.cos)
	if workers < 1 {
		workers = 1
	}
	if workers > nAngles {
		workers = nAngles
	}

	partials := make([][]float64, workers)
	chunk := (nAngles + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > nAngles {
			end = nAngles
		}
		partials[w] = make([]float64, g.size*g.size)

		wg.Add(1)
		go func(acc []float64, start, end int) {
			defer wg.Done()
			for a := start; a < end; a++ {
				for row := 0; row < g.size; row++ {
					for col := 0; col < g.size; col++ {
						if !g.inCircle(row, col) {
							continue
						}
						lo, wlo, whi, ok := g.weights(g.detector(row, col, a))
						if !ok {
							continue
						}
						acc[row*g.size+col] += wlo*sino.At(a, lo) + whi*sino.At(a, lo+1)
					}
				}
			}
		}(partials[w], start, end)
	}
	wg.Wait()

	out := models.NewGrid(g.size, g.size)
	for _, p := range partials {
		floats.Add(out.Data, p)
	}
	return out
}

// Project computes the parallel beam projections of a square image at the
// given angles. Only pixels inside the reconstruction circle contribute.
// It is the transpose of the unfiltered backprojection.
func Project(img models.Grid, thetaDeg []float64) (models.Grid, error) {
	if img.Width != img.Height {
		return models.Grid{}, fmt.Errorf("projection needs a square image, got %dx%d: %w", img.Width, img.Height, models.ErrDimensionMismatch)
	}
	if img.Width < 2 {
		return models.Grid{}, fmt.Errorf("projection needs at least a 2x2 image: %w", models.ErrGeometry)
	}
	g := newGeometry(img.Width, thetaDeg)
	sino := models.NewGrid(len(thetaDeg), img.Height)
	proj := make([]float64, img.Height)
	for a := range thetaDeg {
		g.projectAngle(img.Data, a, proj)
		sino.SetColumn(a, proj)
	}
	return sino, nil
}

// projectAngle writes the projection of data at angle a into dst
func (g geometry) projectAngle(data []float64, a int, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
	for row := 0; row < g.size; row++ {
		for col := 0; col < g.size; col++ {
			if !g.inCircle(row, col) {
				continue
			}
			v := data[row*g.size+col]
			if v == 0 {
				continue
			}
			lo, wlo, whi, ok := g.weights(g.detector(row, col, a))
			if !ok {
				continue
			}
			dst[lo] += wlo * v
			dst[lo+1] += whi * v
		}
	}
}
