package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	"penumbra/internal/models"
)

// createTestImage creates a grayscale gradient image
func createTestImage(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 255 / (width - 1))})
		}
	}
	return img
}

func TestLoadImage(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	dir := t.TempDir()
	src := createTestImage(6, 4)

	encoders := map[string]func(*os.File) error{
		"gradient.png": func(f *os.File) error { return png.Encode(f, src) },
		"gradient.tif": func(f *os.File) error { return tiff.Encode(f, src, nil) },
	}
	for name, encode := range encoders {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			f, err := os.Create(path)
			if err != nil {
				t.Fatalf("Failed to create file: %v", err)
			}
			if err := encode(f); err != nil {
				t.Fatalf("Failed to encode: %v", err)
			}
			f.Close()

			grid, gray, err := LoadImage(path)
			if err != nil {
				t.Fatalf("LoadImage failed: %v", err)
			}
			if grid.Width != 6 || grid.Height != 4 {
				t.Fatalf("Expected 6x4 grid, got %dx%d", grid.Width, grid.Height)
			}
			if grid.At(0, 0) != 0 || grid.At(5, 3) != 1 {
				t.Errorf("Expected gradient from 0 to 1, got %f..%f", grid.At(0, 0), grid.At(5, 3))
			}
			for i := range src.Pix {
				if gray.Pix[i] != src.Pix[i] {
					t.Fatalf("8-bit pixel %d: expected %d, got %d", i, src.Pix[i], gray.Pix[i])
				}
			}
		})
	}

	if _, _, err := LoadImage(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("Expected error for a missing file")
	}
}

func TestLoadRaw(t *testing.T) {
	tests := []struct {
		name       string
		sampleType SampleType
		data       interface{}
	}{
		{"uint8", Uint8, []uint8{0, 50, 100, 200}},
		{"uint16", Uint16, []uint16{0, 500, 1000, 2000}},
		{"uint32", Uint32, []uint32{0, 5, 10, 20}},
		{"float32", Float32, []float32{0, 0.25, 0.5, 1}},
		{"float64", Float64, []float64{0, 1.5, 3, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := binary.Write(&buf, binary.LittleEndian, tt.data); err != nil {
				t.Fatalf("Failed to encode samples: %v", err)
			}

			grid, gray, err := LoadRaw(&buf, 2, 2, tt.sampleType, nil)
			if err != nil {
				t.Fatalf("LoadRaw failed: %v", err)
			}
			want := []float64{0, 0.25, 0.5, 1}
			for i := range want {
				if math.Abs(grid.Data[i]-want[i]) > 1e-9 {
					t.Errorf("Sample %d: expected %f, got %f", i, want[i], grid.Data[i])
				}
			}
			if gray.GrayAt(1, 1).Y != 255 || gray.GrayAt(0, 0).Y != 0 {
				t.Error("8-bit rendering does not follow the normalised samples")
			}
		})
	}
}

func TestLoadRawErrors(t *testing.T) {
	short := bytes.NewReader([]byte{1, 2, 3})
	if _, _, err := LoadRaw(short, 2, 2, Uint16, nil); err == nil {
		t.Error("Expected error for truncated data")
	}
	if _, _, err := LoadRaw(bytes.NewReader(nil), 0, 2, Uint8, nil); !errors.Is(err, models.ErrGeometry) {
		t.Errorf("Expected ErrGeometry for empty size, got %v", err)
	}
	if _, _, err := LoadRaw(bytes.NewReader(make([]byte, 8)), 2, 2, SampleType(42), nil); !errors.Is(err, models.ErrConfig) {
		t.Errorf("Expected ErrConfig for unknown sample type, got %v", err)
	}
}

// TestKVPCalibration verifies the mapping is normalised to a peak of one and
// preserves the ordering of raw values
func TestKVPCalibration(t *testing.T) {
	calibrate := KVPCalibration(70)
	c := -0.0739*70*70 + 15.408*70 + 301.17
	if got := calibrate(c); math.Abs(got-1) > 1e-12 {
		t.Errorf("Expected 1 at the offset value, got %f", got)
	}
	if got := calibrate(c + 1024); math.Abs(got-10) > 1e-9 {
		t.Errorf("Expected a decade per 1024 counts, got %f", got)
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, []uint16{100, 1124, 2148, 3172})
	grid, _, err := LoadRaw(&buf, 4, 1, Uint16, calibrate)
	if err != nil {
		t.Fatalf("LoadRaw failed: %v", err)
	}
	want := []float64{0.001, 0.01, 0.1, 1}
	for i := range want {
		if math.Abs(grid.Data[i]-want[i]) > 1e-9 {
			t.Errorf("Sample %d: expected %g, got %g", i, want[i], grid.Data[i])
		}
	}
}

func TestSampleTypeByName(t *testing.T) {
	for s, name := range sampleTypeNames {
		got, err := SampleTypeByName(name)
		if err != nil || got != s {
			t.Errorf("SampleTypeByName(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := SampleTypeByName("int12"); !errors.Is(err, models.ErrConfig) {
		t.Errorf("Expected ErrConfig, got %v", err)
	}
}
