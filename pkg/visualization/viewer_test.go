package visualization

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"srmsegment/internal/models"
	"srmsegment/pkg/srm"
)

// createBlockImage makes a 4x4 image with a bright 2x2 block in the top-left corner
func createBlockImage() *models.GrayImage {
	img := models.NewGrayImage(4, 4)
	for i := range img.Pix {
		img.Pix[i] = 10
	}
	for _, i := range []int{0, 1, 4, 5} {
		img.Pix[i] = 200
	}
	return img
}

func segmentBlock(t *testing.T, mode models.OutputMode) (*models.GrayImage, *srm.Result) {
	t.Helper()
	src := createBlockImage()
	opts := srm.DefaultOptions()
	opts.Mode = mode
	res, err := srm.SegmentImage(src, opts)
	if err != nil {
		t.Fatalf("Segmentation failed: %v", err)
	}
	return src, res
}

// TestLabelImage verifies that labels are rendered into an 8-bit image
func TestLabelImage(t *testing.T) {
	src, res := segmentBlock(t, models.ModeLabels)
	viewer := NewViewer(src, res)

	img, err := viewer.LabelImage()
	if err != nil {
		t.Fatalf("Failed to render labels: %v", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("Expected *image.Gray, got %T", img)
	}
	if gray.GrayAt(0, 0).Y != 0 || gray.GrayAt(3, 3).Y != 1 {
		t.Errorf("Unexpected labels %v", gray.Pix)
	}
}

// TestLabelImage_Sixteen verifies that a 16-bit result renders as Gray16
func TestLabelImage_Sixteen(t *testing.T) {
	src := createBlockImage()
	opts := srm.DefaultOptions()
	opts.Depth = models.Depth16
	res, err := srm.SegmentImage(src, opts)
	if err != nil {
		t.Fatalf("Segmentation failed: %v", err)
	}

	img, err := NewViewer(src, res).LabelImage()
	if err != nil {
		t.Fatalf("Failed to render labels: %v", err)
	}
	g16, ok := img.(*image.Gray16)
	if !ok {
		t.Fatalf("Expected *image.Gray16, got %T", img)
	}
	if g16.Gray16At(3, 3).Y != 1 {
		t.Errorf("Expected label 1 at (3,3), got %d", g16.Gray16At(3, 3).Y)
	}
}

// TestAverageImage verifies that every pixel carries its region mean
func TestAverageImage(t *testing.T) {
	src, res := segmentBlock(t, models.ModeAverages)
	img := NewViewer(src, res).AverageImage().(*image.Gray)

	for i, v := range img.Pix {
		if v != src.Pix[i] {
			t.Errorf("Pixel %d: expected %d, got %d", i, src.Pix[i], v)
		}
	}
}

// TestAverageMode_LabelImage verifies labels are still available for averaged results
func TestAverageMode_LabelImage(t *testing.T) {
	src, res := segmentBlock(t, models.ModeAverages)
	img, err := NewViewer(src, res).LabelImage()
	if err != nil {
		t.Fatalf("Failed to render labels: %v", err)
	}
	if img.(*image.Gray).GrayAt(3, 0).Y != 1 {
		t.Error("Expected background label 1 at (3,0)")
	}
}

// TestColorLabels verifies that regions get distinct colors
func TestColorLabels(t *testing.T) {
	src, res := segmentBlock(t, models.ModeLabels)
	img := NewViewer(src, res).ColorLabels()

	block := img.At(0, 0)
	background := img.At(3, 3)
	if block == background {
		t.Error("Different regions should be painted differently")
	}
	if img.At(1, 1) != block {
		t.Error("Pixels of one region should share a color")
	}
}

// TestLabelColor verifies colors are stable and opaque
func TestLabelColor(t *testing.T) {
	for l := 0; l < 100; l++ {
		c := LabelColor(l)
		if c.A != 255 {
			t.Fatalf("Label %d color is not opaque", l)
		}
		if c != LabelColor(l) {
			t.Fatalf("Label %d color is not stable", l)
		}
	}
	if LabelColor(0) == LabelColor(1) {
		t.Error("Adjacent labels should differ")
	}
}

// TestBoundaries verifies that only border pixels are highlighted
func TestBoundaries(t *testing.T) {
	src, res := segmentBlock(t, models.ModeLabels)
	viewer := NewViewer(src, res)
	mark := color.RGBA{R: 0, G: 255, B: 0, A: 255}
	viewer.SetBoundaryColor(mark)
	img := viewer.Boundaries().(*image.RGBA)

	// Right and lower edges of the block touch the background.
	for _, p := range [][2]int{{1, 0}, {1, 1}, {0, 1}} {
		if img.RGBAAt(p[0], p[1]) != mark {
			t.Errorf("Expected boundary at %v", p)
		}
	}
	if img.RGBAAt(0, 0) == mark || img.RGBAAt(3, 3) == mark {
		t.Error("Interior pixels should not be marked")
	}
	if got := img.RGBAAt(3, 3); got.R != 10 || got.G != 10 || got.B != 10 {
		t.Errorf("Expected source intensity at (3,3), got %v", got)
	}
}

// TestRenderInvalidKind verifies the error for an unknown rendering
func TestRenderInvalidKind(t *testing.T) {
	src, res := segmentBlock(t, models.ModeLabels)
	if _, err := NewViewer(src, res).Render("volume"); err == nil {
		t.Error("Expected error for invalid rendering kind")
	}
}

// TestSaveAll verifies every rendering is written to disk
func TestSaveAll(t *testing.T) {
	src, res := segmentBlock(t, models.ModeLabels)
	dir := t.TempDir()

	kinds := []string{KindLabels, KindAverages, KindColor, KindBoundaries}
	paths, skipped, err := NewViewer(src, res).SaveAll(dir, "block", ".png", kinds)
	if err != nil {
		t.Fatalf("Failed to save renderings: %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("Expected no skipped renderings, got %v", skipped)
	}
	if len(paths) != len(kinds) {
		t.Fatalf("Expected %d files, got %d", len(kinds), len(paths))
	}
	for _, kind := range kinds {
		path := filepath.Join(dir, "block_"+kind+".png")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Missing output %s: %v", path, err)
		}
	}
}

// segmentCheckerboard segments a checkerboard at a Q where no pixel merges,
// so every pixel is its own region
func segmentCheckerboard(t *testing.T, size int) (*models.GrayImage, *srm.Result) {
	t.Helper()
	src := models.NewGrayImage(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x+y)%2 == 1 {
				src.Set(x, y, 255)
			}
		}
	}
	opts := srm.DefaultOptions()
	opts.Q = 1000
	res, err := srm.SegmentImage(src, opts)
	if err != nil {
		t.Fatalf("Segmentation failed: %v", err)
	}
	return src, res
}

// TestLabelImage_BeyondSixteenBits verifies the label range error
func TestLabelImage_BeyondSixteenBits(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping large image test in short mode")
	}
	src, res := segmentCheckerboard(t, 300)
	if res.Regions <= 1<<16 {
		t.Fatalf("Expected more than 65536 regions, got %d", res.Regions)
	}

	if _, err := NewViewer(src, res).LabelImage(); !errors.Is(err, ErrLabelRange) {
		t.Errorf("Expected ErrLabelRange, got %v", err)
	}
}

// TestSaveAll_SkipsWideLabels verifies that the other renderings are still
// written when the label map cannot be
func TestSaveAll_SkipsWideLabels(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping large image test in short mode")
	}
	src, res := segmentCheckerboard(t, 300)
	dir := t.TempDir()

	kinds := []string{KindLabels, KindAverages, KindColor}
	paths, skipped, err := NewViewer(src, res).SaveAll(dir, "board", ".png", kinds)
	if err != nil {
		t.Fatalf("Failed to save renderings: %v", err)
	}
	if len(skipped) != 1 || skipped[0] != KindLabels {
		t.Errorf("Expected labels to be skipped, got %v", skipped)
	}
	if len(paths) != 2 {
		t.Fatalf("Expected 2 files, got %v", paths)
	}
	if _, err := os.Stat(filepath.Join(dir, "board_labels.png")); !os.IsNotExist(err) {
		t.Error("No label file should be written")
	}
	for _, kind := range []string{KindAverages, KindColor} {
		if _, err := os.Stat(filepath.Join(dir, "board_"+kind+".png")); err != nil {
			t.Errorf("Missing output for %s: %v", kind, err)
		}
	}
}
