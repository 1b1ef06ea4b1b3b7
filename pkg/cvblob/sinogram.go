//go:build gocv

package cvblob

import (
	"image"

	"gocv.io/x/gocv"

	"penumbra/internal/models"
)

// BilateralDenoiser runs cv::bilateralFilter on the 0..255 scaled sinogram
type BilateralDenoiser struct {
	Diameter   int
	SigmaColor float64
	SigmaSpace float64
}

func (b BilateralDenoiser) Denoise(g models.Grid) models.Grid {
	src := toMat(g, 0)
	defer src.Close()
	dst := gocv.NewMat()
	defer dst.Close()
	gocv.BilateralFilter(src, &dst, b.Diameter, b.SigmaColor, b.SigmaSpace)
	return fromMat(dst, 0)
}

// ScharrOperator computes the radial Scharr derivative with cv::Scharr. The
// angle axis is padded with one wrapped column on each side so it behaves
// periodically.
type ScharrOperator struct{}

func (ScharrOperator) Name() string { return "opencv-scharr" }

func (ScharrOperator) Apply(sino models.Grid) models.Grid {
	src := toMat(sino, 1)
	defer src.Close()
	dst := gocv.NewMat()
	defer dst.Close()
	// the radial axis is the row axis; a fall-off along the ray is positive
	gocv.Scharr(src, &dst, gocv.MatTypeCV32F, 0, 1, -1.0/32, 0, gocv.BorderReplicate)
	return fromMat(dst, 1)
}

// toMat copies g into a 32-bit float Mat with wrap extra columns taken
// periodically from the opposite side
func toMat(g models.Grid, wrap int) gocv.Mat {
	cols := g.Width + 2*wrap
	mat := gocv.NewMatWithSize(g.Height, cols, gocv.MatTypeCV32F)
	for y := 0; y < g.Height; y++ {
		for c := 0; c < cols; c++ {
			x := (c - wrap + g.Width) % g.Width
			mat.SetFloatAt(y, c, float32(g.At(x, y)))
		}
	}
	return mat
}

// fromMat copies a 32-bit float Mat back into a grid, dropping wrap columns
// on each side
func fromMat(mat gocv.Mat, wrap int) models.Grid {
	g := models.NewGrid(mat.Cols()-2*wrap, mat.Rows())
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			g.Set(x, y, float64(mat.GetFloatAt(y, x+wrap)))
		}
	}
	return g
}

// CLAHEEqualizer runs cv::CLAHE on the 8-bit rendering of a [0,1] image.
// ClipLimit is the share of a region a single bin may hold, the same unit
// the native loader.CLAHE uses.
type CLAHEEqualizer struct {
	ClipLimit float64
	Tiles     int
}

func (e CLAHEEqualizer) Equalize(g models.Grid) models.Grid {
	if g.Empty() {
		return models.NewGrid(g.Width, g.Height)
	}
	src, err := gocv.NewMatFromBytes(g.Height, g.Width, gocv.MatTypeCV8UC1, g.ToGray().Pix)
	if err != nil {
		return g.Copy()
	}
	defer src.Close()
	dst := gocv.NewMat()
	defer dst.Close()

	// OpenCV expresses the limit relative to a flat histogram of 256 bins
	clahe := gocv.NewCLAHEWithParams(e.ClipLimit*256, image.Pt(e.Tiles, e.Tiles))
	defer clahe.Close()
	clahe.Apply(src, &dst)

	out := models.NewGrid(g.Width, g.Height)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			out.Set(x, y, float64(dst.GetUCharAt(y, x))/255)
		}
	}
	return out
}
