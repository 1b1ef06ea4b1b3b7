package models

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// Grid is a two dimensional grid of float samples stored in row-major order.
// It is used for intensity images, sinograms and focal spot images alike.
type Grid struct {
	// Width is the number of columns
	Width int

	// Height is the number of rows
	Height int

	// Data holds Width*Height samples, row by row
	Data []float64
}

// NewGrid allocates a zeroed grid of the given size
func NewGrid(width, height int) Grid {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return Grid{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

func (g Grid) At(x, y int) float64     { return g.Data[y*g.Width+x] }
func (g Grid) Set(x, y int, v float64) { g.Data[y*g.Width+x] = v }
func (g Grid) Empty() bool             { return g.Width == 0 || g.Height == 0 }

// Copy returns a deep copy of the grid
func (g Grid) Copy() Grid {
	c := NewGrid(g.Width, g.Height)
	copy(c.Data, g.Data)
	return c
}

// Row returns a copy of row y
func (g Grid) Row(y int) []float64 {
	row := make([]float64, g.Width)
	copy(row, g.Data[y*g.Width:(y+1)*g.Width])
	return row
}

// Column returns a copy of column x
func (g Grid) Column(x int) []float64 {
	col := make([]float64, g.Height)
	for y := 0; y < g.Height; y++ {
		col[y] = g.Data[y*g.Width+x]
	}
	return col
}

// SetColumn overwrites column x with values
func (g Grid) SetColumn(x int, values []float64) {
	for y := 0; y < g.Height && y < len(values); y++ {
		g.Data[y*g.Width+x] = values[y]
	}
}

// SliceRows returns rows [start, end) as a new grid. Rows outside the grid
// are zero-filled, so the result always has end-start rows.
func (g Grid) SliceRows(start, end int) Grid {
	if end < start {
		end = start
	}
	out := NewGrid(g.Width, end-start)
	for y := start; y < end; y++ {
		if y < 0 || y >= g.Height {
			continue
		}
		copy(out.Data[(y-start)*g.Width:], g.Data[y*g.Width:(y+1)*g.Width])
	}
	return out
}

// MinMax returns the smallest and largest sample in the grid
func (g Grid) MinMax() (float64, float64) {
	if len(g.Data) == 0 {
		return 0, 0
	}
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range g.Data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// ArgMax returns the coordinate of the largest sample, first in scan order
func (g Grid) ArgMax() (int, int) {
	best, bx, by := math.Inf(-1), 0, 0
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if v := g.Data[y*g.Width+x]; v > best {
				best, bx, by = v, x, y
			}
		}
	}
	return bx, by
}

// ToGray renders a [0,1] grid as an 8-bit image, clamping values outside
func (g Grid) ToGray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			v := math.Round(g.At(x, y) * 255)
			img.SetGray(x, y, color.Gray{Y: uint8(math.Max(0, math.Min(255, v)))})
		}
	}
	return img
}

func (g Grid) String() string {
	min, max := g.MinMax()
	return fmt.Sprintf("grid[%dx%d, vals{%f,%f}]", g.Width, g.Height, min, max)
}
