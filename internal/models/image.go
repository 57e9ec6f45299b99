package models

import (
	"fmt"
)

// GrayImage is a single-channel 8-bit raster stored row-major with the
// origin at the top-left corner. Pixel (x, y) lives at Pix[x+Width*y].
type GrayImage struct {
	// Pix holds the intensities, one byte per pixel
	Pix []uint8

	// Width and Height are the raster dimensions in pixels
	Width  int
	Height int

	// Name is an optional identifier, usually the source filename
	Name string
}

// NewGrayImage allocates a zeroed image of the given size
func NewGrayImage(width, height int) *GrayImage {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &GrayImage{
		Pix:    make([]uint8, width*height),
		Width:  width,
		Height: height,
	}
}

// At returns the intensity at (x, y)
func (g *GrayImage) At(x, y int) uint8 {
	return g.Pix[x+g.Width*y]
}

// Set stores the intensity at (x, y)
func (g *GrayImage) Set(x, y int, v uint8) {
	g.Pix[x+g.Width*y] = v
}

// Len returns the number of pixels
func (g *GrayImage) Len() int {
	return g.Width * g.Height
}

// OutputMode selects what a segmentation produces per pixel
type OutputMode int

const (
	// ModeLabels produces a dense, zero-based region label per pixel
	ModeLabels OutputMode = iota
	// ModeAverages replaces every pixel by the mean intensity of its region
	ModeAverages
)

func (m OutputMode) String() string {
	switch m {
	case ModeLabels:
		return "labels"
	case ModeAverages:
		return "averages"
	default:
		return "unknown"
	}
}

// ParseOutputMode converts a config or flag value into an OutputMode
func ParseOutputMode(s string) (OutputMode, error) {
	switch s {
	case "labels", "label", "":
		return ModeLabels, nil
	case "averages", "average", "avg":
		return ModeAverages, nil
	default:
		return ModeLabels, fmt.Errorf("invalid output mode: %s (must be labels or averages)", s)
	}
}

// LabelDepth is the label pixel width a caller asks for in label mode
type LabelDepth int

const (
	// DepthAuto picks 8 or 16 bits, whichever is the narrowest that fits
	DepthAuto LabelDepth = 0
	Depth8    LabelDepth = 8
	Depth16   LabelDepth = 16
)

// ParseLabelDepth converts a config or flag value into a LabelDepth
func ParseLabelDepth(bits int) (LabelDepth, error) {
	switch bits {
	case 0:
		return DepthAuto, nil
	case 8:
		return Depth8, nil
	case 16:
		return Depth16, nil
	default:
		return DepthAuto, fmt.Errorf("invalid label depth: %d (must be 0, 8 or 16)", bits)
	}
}

// RegionSummary is the final statistics of one region after merging.
type RegionSummary struct {
	// Label is the dense region index
	Label int

	// Root is the smallest pixel index belonging to the region
	Root int

	// Count is the number of pixels in the region
	Count int

	// Average is the running mean intensity maintained during merging
	Average float64
}
