package detection

import (
	"math"
	"math/rand"
	"sort"
)

type point struct {
	X, Y float64
}

type circle struct {
	X, Y, R float64
}

const circleEpsilon = 1e-7

func (c circle) contains(p point) bool {
	return math.Hypot(p.X-c.X, p.Y-c.Y) <= c.R+circleEpsilon
}

// convexHull returns the hull of pts in counter-clockwise order using the
// monotone chain construction
func convexHull(pts []point) []point {
	if len(pts) < 3 {
		return append([]point(nil), pts...)
	}

	sorted := append([]point(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	cross := func(o, a, b point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	hull := make([]point, 0, 2*len(sorted))
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// minEnclosingCircle computes the smallest circle containing every point
// (Welzl's algorithm, iterative form). The points are shuffled with a fixed
// seed so the result and its running time are reproducible.
func minEnclosingCircle(pts []point) circle {
	switch len(pts) {
	case 0:
		return circle{}
	case 1:
		return circle{X: pts[0].X, Y: pts[0].Y}
	}

	shuffled := append([]point(nil), pts...)
	rng := rand.New(rand.NewSource(1))
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	c := circle{X: shuffled[0].X, Y: shuffled[0].Y}
	for i := 1; i < len(shuffled); i++ {
		if c.contains(shuffled[i]) {
			continue
		}
		c = circle{X: shuffled[i].X, Y: shuffled[i].Y}
		for j := 0; j < i; j++ {
			if c.contains(shuffled[j]) {
				continue
			}
			c = circleFrom2(shuffled[i], shuffled[j])
			for k := 0; k < j; k++ {
				if !c.contains(shuffled[k]) {
					c = circleFrom3(shuffled[i], shuffled[j], shuffled[k])
				}
			}
		}
	}
	return c
}

func circleFrom2(a, b point) circle {
	return circle{
		X: (a.X + b.X) / 2,
		Y: (a.Y + b.Y) / 2,
		R: math.Hypot(a.X-b.X, a.Y-b.Y) / 2,
	}
}

// circleFrom3 returns the circumcircle of three points, falling back to the
// widest two-point circle when they are collinear
func circleFrom3(a, b, c point) circle {
	bx, by := b.X-a.X, b.Y-a.Y
	cx, cy := c.X-a.X, c.Y-a.Y
	d := 2 * (bx*cy - by*cx)
	if math.Abs(d) < 1e-12 {
		best := circleFrom2(a, b)
		for _, cand := range []circle{circleFrom2(a, c), circleFrom2(b, c)} {
			if cand.R > best.R {
				best = cand
			}
		}
		return best
	}
	b2 := bx*bx + by*by
	c2 := cx*cx + cy*cy
	ux := (cy*b2 - by*c2) / d
	uy := (bx*c2 - cx*b2) / d
	return circle{X: a.X + ux, Y: a.Y + uy, R: math.Hypot(ux, uy)}
}
