package detection

import (
	"fmt"
	"image"
	"strings"

	"github.com/anthonynsimon/bild/segment"

	"penumbra/internal/models"
)

// Thresholder picks the binarization level for an 8-bit image. Pixels
// strictly brighter than the level become foreground.
type Thresholder interface {
	Level(img *image.Gray) uint8
	Name() string
}

// FixedThreshold always returns the same level
type FixedThreshold struct {
	Value uint8
}

func (t FixedThreshold) Level(*image.Gray) uint8 { return t.Value }
func (t FixedThreshold) Name() string           { return "fixed" }

// OtsuThreshold chooses the level that maximises the between-class variance
// of the image histogram. It adapts to exposure at the cost of one extra pass.
type OtsuThreshold struct{}

func (OtsuThreshold) Name() string { return "otsu" }

func (OtsuThreshold) Level(img *image.Gray) uint8 {
	var hist [256]float64
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for _, v := range row {
			hist[v]++
		}
	}
	return otsuLevel(hist)
}

// otsuLevel returns the histogram split with the largest between-class variance
func otsuLevel(hist [256]float64) uint8 {
	total, sum := 0.0, 0.0
	for i, n := range hist {
		total += n
		sum += float64(i) * n
	}
	if total == 0 {
		return 0
	}

	var (
		best     float64
		level    int
		weightBg float64
		sumBg    float64
	)
	for i := 0; i < 256; i++ {
		weightBg += hist[i]
		if weightBg == 0 {
			continue
		}
		weightFg := total - weightBg
		if weightFg == 0 {
			break
		}
		sumBg += float64(i) * hist[i]
		meanBg := sumBg / weightBg
		meanFg := (sum - sumBg) / weightFg
		between := weightBg * weightFg * (meanBg - meanFg) * (meanBg - meanFg)
		if between > best {
			best = between
			level = i
		}
	}
	return uint8(level)
}

// ThresholderByName resolves a thresholding strategy from its config name.
// The fixed value is only used by the fixed strategy.
func ThresholderByName(name string, fixed uint8) (Thresholder, error) {
	switch strings.ToLower(name) {
	case "", "fixed":
		return FixedThreshold{Value: fixed}, nil
	case "otsu", "auto", "automatic":
		return OtsuThreshold{}, nil
	default:
		return nil, fmt.Errorf("no threshold strategy named %q: %w", name, models.ErrConfig)
	}
}

// binarize sets every pixel brighter than level to 255 and everything else to 0
func binarize(img *image.Gray, level uint8) *image.Gray {
	if level == 255 {
		return image.NewGray(img.Bounds())
	}
	// bild keeps pixels >= its level, so shift by one to keep only brighter ones
	return segment.Threshold(img, level+1)
}
