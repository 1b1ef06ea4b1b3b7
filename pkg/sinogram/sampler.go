// Package sinogram turns a detected penumbra disk into the sinogram consumed
// by tomographic reconstruction: radial resampling, the radial derivative and
// the crop down to the edge band.
package sinogram

import (
	"fmt"
	"math"
	"sync"

	"penumbra/internal/models"
	"penumbra/pkg/interpolation"
)

// Sampler walks rays out from the disk center at evenly spaced angles.
//
// Angle i is i*2*pi/AngularSteps and the ray direction in image coordinates
// (x right, y down) is (cos, -sin), so angles advance counter-clockwise on
// screen. The output has one row per unit step along the ray and one column
// per angle.
type Sampler struct {
	// AngularSteps is the number of rays, 360 by default
	AngularSteps int

	// Interpolator samples the image between pixel centers
	Interpolator interpolation.Interpolator

	// Workers bounds the number of goroutines used for rays
	Workers int
}

// NewSampler returns a sampler with 360 angular steps and bilinear interpolation
func NewSampler() *Sampler {
	return &Sampler{
		AngularSteps: 360,
		Interpolator: interpolation.Bilinear{},
		Workers:      1,
	}
}

// Sample resamples img around (cx, cy) out to radius, which should already
// include the padding. Samples falling outside the image are zero.
func (s *Sampler) Sample(img models.Grid, cx, cy, radius int) (models.Grid, error) {
	if radius < 1 {
		return models.Grid{}, fmt.Errorf("sampling radius %d: %w", radius, models.ErrGeometry)
	}
	if s.AngularSteps < 1 {
		return models.Grid{}, fmt.Errorf("angular steps %d: %w", s.AngularSteps, models.ErrConfig)
	}

	it := s.Interpolator
	if it == nil {
		it = interpolation.Bilinear{}
	}

	out := models.NewGrid(s.AngularSteps, radius)
	radsPerStep := 2 * math.Pi / float64(s.AngularSteps)

	ray := func(i int) {
		angle := float64(i) * radsPerStep
		dx := math.Cos(angle)
		dy := -math.Sin(angle)
		for r := 0; r < radius; r++ {
			x := float64(cx) + float64(r)*dx
			y := float64(cy) + float64(r)*dy
			out.Data[r*out.Width+i] = it.At(img, x, y)
		}
	}

	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	if workers == 1 {
		for i := 0; i < s.AngularSteps; i++ {
			ray(i)
		}
		return out, nil
	}

	// every ray writes its own column, so workers never touch the same sample
	var wg sync.WaitGroup
	perWorker := (s.AngularSteps + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * perWorker
		end := start + perWorker
		if end > s.AngularSteps {
			end = s.AngularSteps
		}
		if start >= end {
			break
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				ray(i)
			}
		}(start, end)
	}
	wg.Wait()

	return out, nil
}

// RayEnd returns the end point of ray i for a sampler of the given size. It
// is used to draw the ray fan on diagnostic images.
func RayEnd(cx, cy, radius, i, steps int) (float64, float64) {
	angle := float64(i) * 2 * math.Pi / float64(steps)
	return float64(cx) + float64(radius)*math.Cos(angle), float64(cy) - float64(radius)*math.Sin(angle)
}
