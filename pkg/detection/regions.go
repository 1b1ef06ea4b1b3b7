package detection

import (
	"image"
)

// region summarises one connected foreground component
type region struct {
	label int32
	area  int
	m10   float64
	m01   float64
}

// labelRegions finds the 8-connected foreground components of a binary
// image in raster order. It returns the label of every pixel (0 for
// background, labels start at 1) together with per-region area moments.
func labelRegions(bin *image.Gray) ([]int32, []region) {
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	labels := make([]int32, w*h)
	var regions []region

	foreground := func(x, y int) bool {
		return bin.Pix[bin.PixOffset(b.Min.X+x, b.Min.Y+y)] > 0
	}

	queue := make([]int, 0, 1024)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if labels[idx] != 0 || !foreground(x, y) {
				continue
			}

			r := region{label: int32(len(regions) + 1)}
			labels[idx] = r.label
			queue = append(queue[:0], idx)

			for len(queue) > 0 {
				p := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				px, py := p%w, p/w

				r.area++
				r.m10 += float64(px)
				r.m01 += float64(py)

				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := px+dx, py+dy
						if nx < 0 || ny < 0 || nx >= w || ny >= h {
							continue
						}
						n := ny*w + nx
						if labels[n] == 0 && foreground(nx, ny) {
							labels[n] = r.label
							queue = append(queue, n)
						}
					}
				}
			}

			regions = append(regions, r)
		}
	}

	return labels, regions
}

// regionExtremes returns the leftmost and rightmost pixel of every row the
// region touches. Those points contain the region's convex hull.
func regionExtremes(labels []int32, w int, label int32) []point {
	var pts []point
	h := len(labels) / w
	for y := 0; y < h; y++ {
		first, last := -1, -1
		for x := 0; x < w; x++ {
			if labels[y*w+x] == label {
				if first < 0 {
					first = x
				}
				last = x
			}
		}
		if first < 0 {
			continue
		}
		pts = append(pts, point{float64(first), float64(y)})
		if last != first {
			pts = append(pts, point{float64(last), float64(y)})
		}
	}
	return pts
}
