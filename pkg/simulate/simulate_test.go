package simulate

import (
	"errors"
	"math"
	"testing"

	"penumbra/internal/models"
)

func TestKernels(t *testing.T) {
	t.Run("point", func(t *testing.T) {
		k, err := PointKernel(7)
		if err != nil {
			t.Fatalf("PointKernel failed: %v", err)
		}
		if k.At(3, 3) != 1 {
			t.Errorf("Expected unit source in the middle, got %f", k.At(3, 3))
		}
		var sum float64
		for _, v := range k.Data {
			sum += v
		}
		if sum != 1 {
			t.Errorf("Expected total weight 1, got %f", sum)
		}
	})

	t.Run("dual point", func(t *testing.T) {
		k, err := DualPointKernel(69, 35)
		if err != nil {
			t.Fatalf("DualPointKernel failed: %v", err)
		}
		if k.At(34-18, 34) != 0.25 || k.At(34+18, 34) != 0.5 {
			t.Errorf("Sources misplaced: left %f right %f", k.At(16, 34), k.At(52, 34))
		}
	})

	t.Run("rectangle", func(t *testing.T) {
		k, err := RectangleKernel(4, 2, 255, 3)
		if err != nil {
			t.Fatalf("RectangleKernel failed: %v", err)
		}
		if k.Width != 10 || k.Height != 8 {
			t.Fatalf("Expected 10x8 kernel, got %dx%d", k.Width, k.Height)
		}
		if k.At(3, 3) != 1 || k.At(6, 4) != 1 || k.At(2, 3) != 0 || k.At(3, 5) != 0 {
			t.Error("Rectangle block misplaced")
		}
	})

	t.Run("square", func(t *testing.T) {
		k, err := SquareKernel(3, 51, 0)
		if err != nil {
			t.Fatalf("SquareKernel failed: %v", err)
		}
		for _, v := range k.Data {
			if math.Abs(v-0.2) > 1e-12 {
				t.Fatalf("Expected intensity 0.2, got %f", v)
			}
		}
	})
}

func TestKernelValidation(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"even point size", func() error { _, err := PointKernel(4); return err }},
		{"even dual size", func() error { _, err := DualPointKernel(10, 3); return err }},
		{"even distance", func() error { _, err := DualPointKernel(11, 4); return err }},
		{"distance too large", func() error { _, err := DualPointKernel(11, 11); return err }},
		{"intensity", func() error { _, err := SquareKernel(3, 300, 0); return err }},
		{"negative padding", func() error { _, err := RectangleKernel(3, 3, 10, -1); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, models.ErrConfig) {
				t.Errorf("Expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestBlankDisk(t *testing.T) {
	disk := BlankDisk(40, 30, 10)
	if disk.At(20, 15) != 1 || disk.At(30, 15) != 1 || disk.At(31, 15) != 0 || disk.At(20, 26) != 0 {
		t.Error("Disk drawn at the wrong place")
	}
}

// TestPenumbraPointKernel verifies a point source reproduces the disk
func TestPenumbraPointKernel(t *testing.T) {
	disk := BlankDisk(50, 40, 12)
	kernel, _ := PointKernel(5)

	img, gray, err := Penumbra(disk, kernel)
	if err != nil {
		t.Fatalf("Penumbra failed: %v", err)
	}
	for i := range disk.Data {
		if math.Abs(img.Data[i]-disk.Data[i]) > 1e-9 {
			t.Fatalf("Sample %d: expected %f, got %f", i, disk.Data[i], img.Data[i])
		}
	}
	if gray.GrayAt(25, 20).Y != 255 || gray.GrayAt(0, 0).Y != 0 {
		t.Error("8-bit rendering does not follow the float image")
	}
}

// TestPenumbraShiftDirection verifies a source right of the kernel center
// shifts the disk right and the weights show in the penumbra
func TestPenumbraShiftDirection(t *testing.T) {
	disk := BlankDisk(80, 60, 15)
	kernel, _ := DualPointKernel(21, 9)

	img, _, err := Penumbra(disk, kernel)
	if err != nil {
		t.Fatalf("Penumbra failed: %v", err)
	}

	cx, cy := 40, 30
	tests := []struct {
		x    int
		want float64
	}{
		{cx, 1},
		{cx + 15 + 5, 2.0 / 3},
		{cx - 15 - 5, 1.0 / 3},
		{cx + 15 + 6, 0},
		{cx - 15 - 6, 0},
	}
	for _, tt := range tests {
		if got := img.At(tt.x, cy); math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("At x=%d expected %f, got %f", tt.x, tt.want, got)
		}
	}
}

func TestPenumbraErrors(t *testing.T) {
	if _, _, err := Penumbra(models.Grid{}, models.NewGrid(1, 1)); !errors.Is(err, models.ErrGeometry) {
		t.Errorf("Expected ErrGeometry for empty disk, got %v", err)
	}
	if _, _, err := Penumbra(BlankDisk(10, 10, 3), models.NewGrid(3, 3)); !errors.Is(err, models.ErrGeometry) {
		t.Errorf("Expected ErrGeometry for zero kernel, got %v", err)
	}
}
