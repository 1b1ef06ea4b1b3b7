package simulate

import (
	"fmt"
	"image"

	"github.com/mjibson/go-dsp/fft"

	"penumbra/internal/models"
)

// CR18x24 is the pixel size of an 18"x24" computed radiography cassette
var CR18x24 = image.Point{X: 2370, Y: 1770}

// BlankDisk returns a width x height image holding a filled unit disk of the
// given radius centred at (width/2, height/2)
func BlankDisk(width, height, radius int) models.Grid {
	disk := models.NewGrid(width, height)
	cx, cy := width/2, height/2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				disk.Set(x, y, 1)
			}
		}
	}
	return disk
}

// Penumbra convolves the blank disk with the kernel, whose middle pixel is
// the origin. A source at kernel offset (dx, dy) shifts its copy of the disk
// by (dx, dy). The result is normalised to [0,1] and returned along with its
// 8-bit rendering.
func Penumbra(disk, kernel models.Grid) (models.Grid, *image.Gray, error) {
	if disk.Empty() || kernel.Empty() {
		return models.Grid{}, nil, fmt.Errorf("cannot convolve empty images: %w", models.ErrGeometry)
	}

	// zero margins of at least the kernel size keep the circular
	// convolution from wrapping
	rows := disk.Height + kernel.Height
	cols := disk.Width + kernel.Width

	padded := make([][]float64, rows)
	shifted := make([][]float64, rows)
	for r := range padded {
		padded[r] = make([]float64, cols)
		shifted[r] = make([]float64, cols)
	}
	for y := 0; y < disk.Height; y++ {
		copy(padded[y], disk.Data[y*disk.Width:(y+1)*disk.Width])
	}
	kx, ky := kernel.Width/2, kernel.Height/2
	for y := 0; y < kernel.Height; y++ {
		for x := 0; x < kernel.Width; x++ {
			r := (y - ky + rows) % rows
			c := (x - kx + cols) % cols
			shifted[r][c] = kernel.At(x, y)
		}
	}

	diskSpectrum := fft.FFT2Real(padded)
	kernelSpectrum := fft.FFT2Real(shifted)
	for r := range diskSpectrum {
		for c := range diskSpectrum[r] {
			diskSpectrum[r][c] *= kernelSpectrum[r][c]
		}
	}
	conv := fft.IFFT2(diskSpectrum)

	out := models.NewGrid(disk.Width, disk.Height)
	for y := 0; y < disk.Height; y++ {
		for x := 0; x < disk.Width; x++ {
			v := real(conv[y][x])
			// FFT round-off leaves tiny negatives in the background
			if v < 0 {
				v = 0
			}
			out.Set(x, y, v)
		}
	}

	_, max := out.MinMax()
	if max <= 0 {
		return models.Grid{}, nil, fmt.Errorf("kernel has no positive weight: %w", models.ErrGeometry)
	}
	for i := range out.Data {
		out.Data[i] /= max
	}
	return out, out.ToGray(), nil
}
