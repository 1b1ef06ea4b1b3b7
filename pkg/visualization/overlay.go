package visualization

import (
	"image"

	"github.com/fogleman/gg"

	"penumbra/internal/models"
	"penumbra/pkg/sinogram"
)

// DrawBlob outlines the detected disk on img: the disk itself in green, the
// padded sampling radius in red and the center as a small cross
func DrawBlob(img image.Image, blob models.Blob, padding int) image.Image {
	dc := gg.NewContextForImage(img)
	cx, cy := float64(blob.CenterX), float64(blob.CenterY)

	dc.SetLineWidth(1)
	dc.SetRGB(0, 1, 0)
	dc.DrawCircle(cx, cy, float64(blob.Radius))
	dc.Stroke()

	dc.SetRGB(1, 0, 0)
	dc.DrawCircle(cx, cy, float64(blob.Radius+padding))
	dc.Stroke()

	dc.DrawLine(cx-3, cy, cx+3, cy)
	dc.DrawLine(cx, cy-3, cx, cy+3)
	dc.Stroke()

	dc.DrawString(blob.String(), 5, 15)
	return dc.Image()
}

// DrawRays draws every stride-th sampling ray of a sampler with the given
// step count
func DrawRays(img image.Image, blob models.Blob, radius, steps, stride int) image.Image {
	dc := gg.NewContextForImage(img)
	if stride < 1 {
		stride = 1
	}

	dc.SetLineWidth(1)
	dc.SetRGBA(1, 1, 0, 0.6)
	for i := 0; i < steps; i += stride {
		x, y := sinogram.RayEnd(blob.CenterX, blob.CenterY, radius, i, steps)
		dc.DrawLine(float64(blob.CenterX), float64(blob.CenterY), x, y)
	}
	dc.Stroke()
	return dc.Image()
}

// DrawCropWindow marks the band measured on a sinogram: top in blue, center
// in green, bottom in red and the padded slice bounds in yellow
func DrawCropWindow(img image.Image, w models.CropWindow) image.Image {
	dc := gg.NewContextForImage(img)
	width := float64(img.Bounds().Dx())

	line := func(row int, r, g, b float64) {
		dc.SetRGB(r, g, b)
		dc.DrawLine(0, float64(row)+0.5, width, float64(row)+0.5)
		dc.Stroke()
	}

	dc.SetLineWidth(1)
	line(w.Start, 1, 1, 0)
	line(w.End, 1, 1, 0)
	line(w.Top, 0, 0, 1)
	line(w.Center, 0, 1, 0)
	line(w.Bottom, 1, 0, 0)
	return dc.Image()
}
