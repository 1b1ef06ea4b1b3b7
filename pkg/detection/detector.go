// Package detection locates the penumbra disk in an 8-bit image.
package detection

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/convolution"

	"penumbra/internal/models"
)

// BlobDetector finds the penumbra disk. A returned radius below one means no
// disk was found; callers decide whether that is fatal.
type BlobDetector interface {
	Detect(img *image.Gray) models.Blob
}

// Detector is the native BlobDetector: blur, binarize, label connected
// regions and measure the largest one that is big enough.
type Detector struct {
	// BlurSize is the width of the binomial smoothing kernel, odd, 0 or 1 disables it
	BlurSize int

	// Thresholder picks the binarization level
	Thresholder Thresholder

	// MinAreaFraction discards regions smaller than this share of the image area
	MinAreaFraction float64
}

// NewDetector returns a detector with the default 5x5 blur, a fixed
// threshold of 40 and a 5% minimum area
func NewDetector() *Detector {
	return &Detector{
		BlurSize:        5,
		Thresholder:     FixedThreshold{Value: 40},
		MinAreaFraction: 0.05,
	}
}

// Threshold returns the blurred, binarized image the detector labels
func (d *Detector) Threshold(img *image.Gray) *image.Gray {
	blurred := blur(img, d.BlurSize)

	thresholder := d.Thresholder
	if thresholder == nil {
		thresholder = FixedThreshold{Value: 40}
	}
	return binarize(blurred, thresholder.Level(blurred))
}

// Detect returns the center and radius of the largest qualifying region.
// Ties in area go to the region met first in raster order.
func (d *Detector) Detect(img *image.Gray) models.Blob {
	b := img.Bounds()
	if b.Empty() {
		return models.Blob{}
	}

	bin := d.Threshold(img)
	labels, regions := labelRegions(bin)

	minArea := d.MinAreaFraction * float64(b.Dx()*b.Dy())
	var best *region
	for i := range regions {
		r := &regions[i]
		if float64(r.area) < minArea {
			continue
		}
		if best == nil || r.area > best.area {
			best = r
		}
	}
	if best == nil {
		return models.Blob{}
	}

	hull := convexHull(regionExtremes(labels, b.Dx(), best.label))
	c := minEnclosingCircle(hull)

	return models.Blob{
		CenterX: int(best.m10 / float64(best.area)),
		CenterY: int(best.m01 / float64(best.area)),
		Radius:  int(c.R),
	}
}

// blur smooths img with a separable binomial kernel of the given size
func blur(img *image.Gray, size int) *image.Gray {
	if size <= 1 {
		out := image.NewGray(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
		b := img.Bounds()
		for y := 0; y < b.Dy(); y++ {
			copy(out.Pix[y*out.Stride:(y+1)*out.Stride], img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):img.PixOffset(b.Max.X, b.Min.Y+y)])
		}
		return out
	}
	if size%2 == 0 {
		size++
	}

	k := convolution.NewKernel(size, 1)
	coeff := 1.0
	for i := 0; i < size; i++ {
		k.Matrix[i] = coeff
		coeff = coeff * float64(size-1-i) / float64(i+1)
	}
	kn := k.Normalized()

	options := convolution.Options{Bias: 0, Wrap: false, KeepAlpha: false}
	result := convolution.Convolve(img, kn, &options)
	result = convolution.Convolve(result, kn.Transposed(), &options)

	rb := result.Bounds()
	out := image.NewGray(image.Rect(0, 0, rb.Dx(), rb.Dy()))
	for y := 0; y < rb.Dy(); y++ {
		for x := 0; x < rb.Dx(); x++ {
			out.SetGray(x, y, color.Gray{Y: result.RGBAAt(rb.Min.X+x, rb.Min.Y+y).R})
		}
	}
	return out
}
