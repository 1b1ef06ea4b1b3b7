// Package loader reads penumbra images from image files and raw sensor
// dumps into the float and 8-bit pair the pipeline consumes.
package loader

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"

	"penumbra/internal/models"
)

// LoadImage decodes a PNG, JPEG or TIFF file and returns its luminance as a
// [0,1] grid together with the 8-bit grayscale rendering
func LoadImage(path string) (models.Grid, *image.Gray, error) {
	reader, err := os.Open(path)
	if err != nil {
		return models.Grid{}, nil, fmt.Errorf("open image '%s': %w", path, err)
	}
	defer reader.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		img, err = tiff.Decode(reader)
	default:
		img, _, err = image.Decode(reader)
	}
	if err != nil {
		return models.Grid{}, nil, fmt.Errorf("decode image '%s': %w", path, err)
	}

	grid := FromImage(img)
	return grid, grid.ToGray(), nil
}

// FromImage converts any image to a [0,1] luminance grid with 16-bit precision
func FromImage(img image.Image) models.Grid {
	b := img.Bounds()
	g := models.NewGrid(b.Dx(), b.Dy())
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			gray := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			g.Set(x, y, float64(gray.Y)/65535)
		}
	}
	return g
}

// SampleType is the encoding of a raw sensor sample
type SampleType int

const (
	Uint8 SampleType = iota
	Uint16
	Uint32
	Float32
	Float64
)

var sampleTypeNames = map[SampleType]string{
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Float32: "float32",
	Float64: "float64",
}

func (s SampleType) String() string {
	if name, ok := sampleTypeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SampleType(%d)", int(s))
}

// SampleTypeByName resolves a sample type from names like "uint16"
func SampleTypeByName(name string) (SampleType, error) {
	for s, n := range sampleTypeNames {
		if n == strings.ToLower(name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown sample type %q: %w", name, models.ErrConfig)
}

// Calibration maps a raw sensor value to a linear intensity
type Calibration func(float64) float64

// KVPCalibration returns the computed radiography mapping for the tube
// voltage kvp: v' = 10^((v-C)/1024) with C = -0.0739kvp^2 + 15.408kvp + 301.17
func KVPCalibration(kvp float64) Calibration {
	c := -0.0739*kvp*kvp + 15.408*kvp + 301.17
	return func(v float64) float64 {
		return math.Pow(10, (v-c)/1024)
	}
}

// LoadRaw reads width*height little-endian samples in row-major order,
// applies calibrate (nil keeps the raw values) and normalises the result by
// its maximum
func LoadRaw(r io.Reader, width, height int, sampleType SampleType, calibrate Calibration) (models.Grid, *image.Gray, error) {
	if width < 1 || height < 1 {
		return models.Grid{}, nil, fmt.Errorf("raw image size %dx%d: %w", width, height, models.ErrGeometry)
	}

	n := width * height
	values := make([]float64, n)
	var err error
	switch sampleType {
	case Uint8:
		buf := make([]uint8, n)
		err = binary.Read(r, binary.LittleEndian, buf)
		for i, v := range buf {
			values[i] = float64(v)
		}
	case Uint16:
		buf := make([]uint16, n)
		err = binary.Read(r, binary.LittleEndian, buf)
		for i, v := range buf {
			values[i] = float64(v)
		}
	case Uint32:
		buf := make([]uint32, n)
		err = binary.Read(r, binary.LittleEndian, buf)
		for i, v := range buf {
			values[i] = float64(v)
		}
	case Float32:
		buf := make([]float32, n)
		err = binary.Read(r, binary.LittleEndian, buf)
		for i, v := range buf {
			values[i] = float64(v)
		}
	case Float64:
		err = binary.Read(r, binary.LittleEndian, values)
	default:
		return models.Grid{}, nil, fmt.Errorf("unsupported sample type %s: %w", sampleType, models.ErrConfig)
	}
	if err != nil {
		return models.Grid{}, nil, fmt.Errorf("read %dx%d %s samples: %w", width, height, sampleType, err)
	}

	if calibrate != nil {
		for i, v := range values {
			values[i] = calibrate(v)
		}
	}

	grid := models.Grid{Width: width, Height: height, Data: values}
	if _, max := grid.MinMax(); max > 0 {
		for i := range grid.Data {
			grid.Data[i] /= max
		}
	}
	return grid, grid.ToGray(), nil
}

// LoadRawFile opens path and reads it with LoadRaw
func LoadRawFile(path string, width, height int, sampleType SampleType, calibrate Calibration) (models.Grid, *image.Gray, error) {
	file, err := os.Open(path)
	if err != nil {
		return models.Grid{}, nil, fmt.Errorf("open raw data '%s': %w", path, err)
	}
	defer file.Close()
	return LoadRaw(file, width, height, sampleType, calibrate)
}
