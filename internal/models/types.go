package models

import "fmt"

// Blob is the detected penumbra disk. All values are whole pixels; a radius
// below one means nothing usable was found.
type Blob struct {
	CenterX int
	CenterY int
	Radius  int
}

// Valid reports whether downstream stages can work with the blob
func (b Blob) Valid() bool { return b.Radius >= 1 }

func (b Blob) String() string {
	return fmt.Sprintf("Center X: %d | Center Y: %d | Radius: %d", b.CenterX, b.CenterY, b.Radius)
}

// CropWindow describes the radial band cut out of a sinogram.
//
// Top, Center and Bottom are the unpadded band measurements and always satisfy
// 0 <= Top <= Center <= Bottom <= sinogram height. Start and End are the
// padded row bounds actually cut, End exclusive; Start is never negative but
// End may run past the sinogram, in which case the extra rows are zero.
type CropWindow struct {
	Top    int
	Center int
	Bottom int

	Start int
	End   int
}

// Height is the number of rows in the cropped band
func (w CropWindow) Height() int { return w.End - w.Start }

func (w CropWindow) String() string {
	return fmt.Sprintf("Top of Sinogram: %d | Center of Sinogram: %d | Bottom of Sinogram: %d", w.Top, w.Center, w.Bottom)
}
