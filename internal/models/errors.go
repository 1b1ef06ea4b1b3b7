package models

import (
	"errors"
	"fmt"
)

var (
	// ErrGeometry means no usable penumbra disk was found in the input
	ErrGeometry = errors.New("penumbra geometry: no usable disk")

	// ErrNoBand means the sinogram had no edge band to crop. It wraps ErrGeometry.
	ErrNoBand = fmt.Errorf("sinogram has no edge band: %w", ErrGeometry)

	// ErrDimensionMismatch means two inputs that must share a shape do not
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrConfig means a configuration value could not be resolved
	ErrConfig = errors.New("invalid configuration")
)
