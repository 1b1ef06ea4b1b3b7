package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"penumbra/internal/models"
	"penumbra/pkg/simulate"
	"penumbra/pkg/visualization"
)

func main() {
	output := flag.String("output", "penumbra-generated.png", "Output PNG file")
	width := flag.Int("width", simulate.CR18x24.X, "Image width (default: 18x24 CR cassette)")
	height := flag.Int("height", simulate.CR18x24.Y, "Image height (default: 18x24 CR cassette)")
	radius := flag.Int("radius", 246, "Radius of the pinhole disk")
	kernelType := flag.String("kernel", "dual", "Focal spot kernel: point, dual, square or rectangle")
	kernelSize := flag.Int("kernel-size", 69, "Size of the point, dual or square kernel (odd for point and dual)")
	distance := flag.Int("distance", 35, "Distance between the dual point sources (odd)")
	kernelWidth := flag.Int("kernel-width", 20, "Width of the rectangle kernel")
	kernelHeight := flag.Int("kernel-height", 10, "Height of the rectangle kernel")
	intensity := flag.Float64("intensity", 255, "Intensity of the square and rectangle kernels (0-255)")
	padding := flag.Int("padding", 0, "Zero padding around the square and rectangle kernels")
	flag.Parse()

	var kernel models.Grid
	var err error
	switch *kernelType {
	case "point":
		kernel, err = simulate.PointKernel(*kernelSize)
	case "dual":
		kernel, err = simulate.DualPointKernel(*kernelSize, *distance)
	case "square":
		kernel, err = simulate.SquareKernel(*kernelSize, *intensity, *padding)
	case "rectangle":
		kernel, err = simulate.RectangleKernel(*kernelWidth, *kernelHeight, *intensity, *padding)
	default:
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Failed to build kernel: %v", err)
	}

	disk := simulate.BlankDisk(*width, *height, *radius)
	_, gray, err := simulate.Penumbra(disk, kernel)
	if err != nil {
		log.Fatalf("Failed to simulate penumbra: %v", err)
	}
	if err := visualization.SavePNG(gray, *output); err != nil {
		log.Fatalf("Failed to save penumbra: %v", err)
	}
	fmt.Printf("Simulated %s kernel penumbra (%dx%d, disk radius %d) saved to %s\n",
		*kernelType, *width, *height, *radius, *output)
}
