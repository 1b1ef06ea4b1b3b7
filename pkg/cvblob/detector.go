//go:build gocv

package cvblob

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"penumbra/internal/models"
)

// Detector finds the penumbra disk with OpenCV: gaussian blur, binary
// threshold, external contours, and the moments and enclosing circle of the
// largest contour.
type Detector struct {
	// BlurSize is the gaussian kernel size, odd
	BlurSize int

	// Threshold on the 0..255 scale, pixels above it are foreground
	Threshold float32

	// Otsu picks the threshold from the histogram instead
	Otsu bool

	// MinAreaFraction discards contours smaller than this share of the image
	MinAreaFraction float64
}

// NewDetector returns a detector with a 5x5 blur, threshold 40 and a 5%
// minimum area
func NewDetector() *Detector {
	return &Detector{BlurSize: 5, Threshold: 40, MinAreaFraction: 0.05}
}

func (d *Detector) Detect(img *image.Gray) models.Blob {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return models.Blob{}
	}

	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pix[y*w:(y+1)*w], img.Pix[off:off+w])
	}
	src, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, pix)
	if err != nil {
		return models.Blob{}
	}
	defer src.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	if d.BlurSize > 1 {
		gocv.GaussianBlur(src, &blurred, image.Pt(d.BlurSize, d.BlurSize), 0, 0, gocv.BorderDefault)
	} else {
		src.CopyTo(&blurred)
	}

	mask := gocv.NewMat()
	defer mask.Close()
	thresholdType := gocv.ThresholdBinary
	if d.Otsu {
		thresholdType |= gocv.ThresholdOtsu
	}
	gocv.Threshold(blurred, &mask, d.Threshold, 255, thresholdType)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	best, bestArea := -1, 0.0
	minArea := d.MinAreaFraction * float64(w*h)
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > bestArea && area >= minArea {
			best, bestArea = i, area
		}
	}
	if best < 0 {
		return models.Blob{}
	}

	filled := gocv.Zeros(h, w, gocv.MatTypeCV8U)
	defer filled.Close()
	gocv.DrawContours(&filled, contours, best, color.RGBA{255, 255, 255, 255}, -1)
	m := gocv.Moments(filled, true)
	if m["m00"] == 0 {
		return models.Blob{}
	}

	_, _, radius := gocv.MinEnclosingCircle(contours.At(best))
	return models.Blob{
		CenterX: int(m["m10"] / m["m00"]),
		CenterY: int(m["m01"] / m["m00"]),
		Radius:  int(radius),
	}
}
