package detection

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// createDiskImage draws filled disks of the given value on a black background
func createDiskImage(width, height int, value uint8, disks ...[3]int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for _, d := range disks {
				dx, dy := x-d[0], y-d[1]
				if dx*dx+dy*dy <= d[2]*d[2] {
					img.SetGray(x, y, color.Gray{Y: value})
				}
			}
		}
	}
	return img
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// TestDetectFilledDisk verifies center and radius of a synthetic disk are
// recovered within one pixel
func TestDetectFilledDisk(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		cx, cy, r     int
		thresholder   Thresholder
	}{
		{"centered", 200, 200, 100, 100, 50, FixedThreshold{Value: 40}},
		{"offset", 240, 180, 90, 110, 41, FixedThreshold{Value: 40}},
		{"otsu", 160, 160, 70, 85, 35, OtsuThreshold{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createDiskImage(tt.width, tt.height, 255, [3]int{tt.cx, tt.cy, tt.r})

			d := NewDetector()
			d.Thresholder = tt.thresholder
			blob := d.Detect(img)

			if abs(blob.CenterX-tt.cx) > 1 || abs(blob.CenterY-tt.cy) > 1 {
				t.Errorf("Expected center (%d, %d), got (%d, %d)", tt.cx, tt.cy, blob.CenterX, blob.CenterY)
			}
			if abs(blob.Radius-tt.r) > 1 {
				t.Errorf("Expected radius %d, got %d", tt.r, blob.Radius)
			}
		})
	}
}

// TestDetectBlackImage verifies an empty image yields radius 0
func TestDetectBlackImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	blob := NewDetector().Detect(img)
	if blob.Radius != 0 || blob.Valid() {
		t.Errorf("Expected no blob, got %v", blob)
	}
}

// TestDetectIgnoresSmallRegions verifies regions under the minimum area are dropped
func TestDetectIgnoresSmallRegions(t *testing.T) {
	// radius 5 disk covers ~1% of a 100x100 image
	img := createDiskImage(100, 100, 255, [3]int{50, 50, 5})
	if blob := NewDetector().Detect(img); blob.Radius != 0 {
		t.Errorf("Expected small region to be discarded, got %v", blob)
	}

	d := NewDetector()
	d.MinAreaFraction = 0.001
	if blob := d.Detect(img); abs(blob.Radius-5) > 1 {
		t.Errorf("Expected radius ~5 with a lower minimum area, got %v", blob)
	}
}

// TestDetectPicksLargestRegion verifies the largest region wins and equal
// areas go to the first one in scan order
func TestDetectPicksLargestRegion(t *testing.T) {
	img := createDiskImage(300, 200, 255, [3]int{60, 100, 30}, [3]int{200, 100, 45})
	blob := NewDetector().Detect(img)
	if abs(blob.CenterX-200) > 1 || abs(blob.Radius-45) > 1 {
		t.Errorf("Expected the larger disk at x=200, got %v", blob)
	}

	// identical disks, the upper one is met first in raster order
	img = createDiskImage(200, 300, 255, [3]int{100, 200, 40}, [3]int{100, 70, 40})
	blob = NewDetector().Detect(img)
	if abs(blob.CenterY-70) > 1 {
		t.Errorf("Expected the first disk in scan order at y=70, got %v", blob)
	}
}

// TestThresholdDimImage verifies the fixed level excludes dim pixels
func TestThresholdDimImage(t *testing.T) {
	img := createDiskImage(100, 100, 30, [3]int{50, 50, 30})
	if blob := NewDetector().Detect(img); blob.Radius != 0 {
		t.Errorf("Expected a disk dimmer than the level to be ignored, got %v", blob)
	}

	d := NewDetector()
	d.Thresholder = OtsuThreshold{}
	if blob := d.Detect(img); abs(blob.Radius-30) > 1 {
		t.Errorf("Expected otsu to adapt to the dim disk, got %v", blob)
	}
}

func TestOtsuLevelBimodal(t *testing.T) {
	var hist [256]float64
	hist[20] = 500
	hist[200] = 300

	level := otsuLevel(hist)
	if level < 20 || level >= 200 {
		t.Errorf("Expected level between the modes, got %d", level)
	}
}

func TestThresholderByName(t *testing.T) {
	th, err := ThresholderByName("fixed", 77)
	if err != nil {
		t.Fatalf("ThresholderByName failed: %v", err)
	}
	if th.Level(nil) != 77 {
		t.Errorf("Expected fixed level 77, got %d", th.Level(nil))
	}
	if th, _ := ThresholderByName("otsu", 0); th.Name() != "otsu" {
		t.Errorf("Expected otsu strategy, got %s", th.Name())
	}
	if _, err := ThresholderByName("triangle", 0); err == nil {
		t.Error("Expected an error for an unknown strategy")
	}
}

// TestMinEnclosingCircle checks the circle on simple point sets
func TestMinEnclosingCircle(t *testing.T) {
	square := []point{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {5, 5}, {3, 7}}
	c := minEnclosingCircle(square)
	if math.Abs(c.X-5) > 1e-9 || math.Abs(c.Y-5) > 1e-9 || math.Abs(c.R-math.Sqrt(50)) > 1e-9 {
		t.Errorf("Expected circle (5,5,%.4f), got %+v", math.Sqrt(50), c)
	}

	for _, p := range square {
		if !c.contains(p) {
			t.Errorf("Point %v not enclosed by %+v", p, c)
		}
	}

	line := []point{{0, 0}, {4, 0}, {8, 0}}
	c = minEnclosingCircle(line)
	if math.Abs(c.R-4) > 1e-9 || math.Abs(c.X-4) > 1e-9 {
		t.Errorf("Expected collinear circle centered at 4 with radius 4, got %+v", c)
	}
}

func TestConvexHull(t *testing.T) {
	pts := []point{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {1, 1}, {1, 0}}
	hull := convexHull(pts)
	if len(hull) != 4 {
		t.Fatalf("Expected 4 hull points, got %d: %v", len(hull), hull)
	}
	for _, p := range hull {
		if p == (point{1, 1}) || p == (point{1, 0}) {
			t.Errorf("Interior or collinear point %v kept in hull", p)
		}
	}
}
