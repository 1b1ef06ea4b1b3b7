package visualization

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"penumbra/internal/models"
)

// createTestGrid creates a grid filled from the pattern function
func createTestGrid(width, height int, pattern func(x, y int) float64) models.Grid {
	g := models.NewGrid(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.Set(x, y, pattern(x, y))
		}
	}
	return g
}

// TestImageContrastStretch verifies min maps to black and max to white
func TestImageContrastStretch(t *testing.T) {
	grid := createTestGrid(3, 1, func(x, y int) float64 { return -2 + 2*float64(x) })
	img := NewViewer(grid).Image()

	want := []uint16{0, 32768, 65535}
	for x, w := range want {
		if got := img.Gray16At(x, 0).Y; got != w {
			t.Errorf("Pixel %d: expected %d, got %d", x, w, got)
		}
	}

	flat := NewViewer(createTestGrid(2, 2, func(x, y int) float64 { return 3 })).Image()
	if flat.Gray16At(1, 1).Y != 0 {
		t.Error("Expected a flat grid to render black")
	}
}

// TestExtractProfile verifies row and column profiles
func TestExtractProfile(t *testing.T) {
	grid := createTestGrid(4, 3, func(x, y int) float64 { return float64(10*y + x) })
	viewer := NewViewer(grid)

	row, err := viewer.ExtractProfile("x", 2)
	if err != nil {
		t.Fatalf("Failed to extract row profile: %v", err)
	}
	if len(row) != 4 || row[0] != 20 || row[3] != 23 {
		t.Errorf("Unexpected row profile %v", row)
	}

	col, err := viewer.ExtractProfile("Y", 1)
	if err != nil {
		t.Fatalf("Failed to extract column profile: %v", err)
	}
	if len(col) != 3 || col[0] != 1 || col[2] != 21 {
		t.Errorf("Unexpected column profile %v", col)
	}

	for _, tc := range []struct {
		axis     string
		position int
	}{{"x", 3}, {"y", 4}, {"z", 0}, {"x", -1}} {
		if _, err := viewer.ExtractProfile(tc.axis, tc.position); err == nil {
			t.Errorf("Expected error for axis %q position %d", tc.axis, tc.position)
		}
	}
}

// TestExtractRegion verifies subregion extraction and bounds checks
func TestExtractRegion(t *testing.T) {
	grid := createTestGrid(6, 5, func(x, y int) float64 { return float64(10*y + x) })
	viewer := NewViewer(grid)

	region, err := viewer.ExtractRegion(2, 1, 3, 2)
	if err != nil {
		t.Fatalf("Failed to extract region: %v", err)
	}
	if region.Width != 3 || region.Height != 2 {
		t.Fatalf("Expected 3x2 region, got %dx%d", region.Width, region.Height)
	}
	if region.At(0, 0) != 12 || region.At(2, 1) != 24 {
		t.Errorf("Unexpected region contents %v", region.Data)
	}

	if _, err := viewer.ExtractRegion(-1, 0, 2, 2); err == nil {
		t.Error("Expected error for negative start")
	}
	if _, err := viewer.ExtractRegion(0, 0, 0, 2); err == nil {
		t.Error("Expected error for empty size")
	}
	if _, err := viewer.ExtractRegion(4, 4, 3, 2); err == nil {
		t.Error("Expected error for region extending beyond the grid")
	}
}

// TestSaveGrid verifies grids are written as PNG files
func TestSaveGrid(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	dir := t.TempDir()
	filename := filepath.Join(dir, "nested", "grid.png")
	grid := createTestGrid(8, 6, func(x, y int) float64 { return float64(x * y) })

	if err := SaveGrid(grid, filename); err != nil {
		t.Fatalf("Failed to save grid: %v", err)
	}

	file, err := os.Open(filename)
	if err != nil {
		t.Fatalf("Saved file does not exist: %v", err)
	}
	defer file.Close()
	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		t.Fatalf("Failed to decode saved file: %v", err)
	}
	if format != "png" || cfg.Width != 8 || cfg.Height != 6 {
		t.Errorf("Unexpected saved image %s %dx%d", format, cfg.Width, cfg.Height)
	}
}

// TestOverlaysKeepSize verifies the overlays draw onto a same sized image
func TestOverlaysKeepSize(t *testing.T) {
	base := image.NewGray(image.Rect(0, 0, 64, 48))
	blob := models.Blob{CenterX: 32, CenterY: 24, Radius: 10}

	outputs := map[string]image.Image{
		"blob":   DrawBlob(base, blob, 3),
		"rays":   DrawRays(base, blob, 13, 36, 4),
		"window": DrawCropWindow(base, models.CropWindow{Top: 5, Center: 10, Bottom: 15, Start: 2, End: 18}),
	}
	for name, img := range outputs {
		if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
			t.Errorf("%s overlay changed the image size to %v", name, img.Bounds())
		}
	}

	// the green disk outline passes near the rightmost disk point
	found := false
	for x := 41; x <= 42; x++ {
		for y := 23; y <= 24; y++ {
			r, g, b, _ := outputs["blob"].At(x, y).RGBA()
			if g > r && g > b {
				found = true
			}
		}
	}
	if !found {
		t.Error("Expected a green disk outline near (42,24)")
	}
}
