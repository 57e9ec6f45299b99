package metrics

import (
	"math"
	"math/rand"
	"testing"

	"srmsegment/internal/models"
	"srmsegment/pkg/srm"
)

// createTestImage creates a gray image filled by the given pattern
func createTestImage(width, height int, pattern func(x, y int) uint8) *models.GrayImage {
	img := models.NewGrayImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, pattern(x, y))
		}
	}
	return img
}

func segment(t *testing.T, img *models.GrayImage, q float64) *srm.Result {
	t.Helper()
	opts := srm.DefaultOptions()
	opts.Q = q
	res, err := srm.SegmentImage(img, opts)
	if err != nil {
		t.Fatalf("Segmentation failed: %v", err)
	}
	return res
}

// TestAnalyzeFlatRegions verifies statistics on a piecewise constant image
func TestAnalyzeFlatRegions(t *testing.T) {
	img := createTestImage(4, 4, func(x, y int) uint8 {
		if x < 2 && y < 2 {
			return 200
		}
		return 10
	})
	res := segment(t, img, 25)

	report, err := Analyze(img, res)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	q := report.Quality
	if q.Regions != 2 {
		t.Fatalf("Expected 2 regions, got %d", q.Regions)
	}
	if q.LargestRegion != 12 || q.SmallestRegion != 4 {
		t.Errorf("Expected region sizes 12/4, got %d/%d", q.LargestRegion, q.SmallestRegion)
	}
	if q.MeanRegionSize != 8 {
		t.Errorf("Expected mean region size 8, got %f", q.MeanRegionSize)
	}
	if q.RMSE != 0 {
		t.Errorf("Expected zero RMSE for flat regions, got %f", q.RMSE)
	}
	if math.Abs(q.Correlation-1) > 1e-12 {
		t.Errorf("Expected correlation 1, got %f", q.Correlation)
	}
	if q.WithinVariance != 0 {
		t.Errorf("Expected zero within-region variance, got %f", q.WithinVariance)
	}

	block := report.Regions[0]
	if block.Count != 4 || block.Mean != 200 || block.StdDev != 0 {
		t.Errorf("Unexpected block statistics %+v", block)
	}
}

// TestAnalyzeUniformImage verifies the degenerate correlation of a constant image
func TestAnalyzeUniformImage(t *testing.T) {
	img := createTestImage(5, 3, func(x, y int) uint8 { return 90 })
	report, err := Analyze(img, segment(t, img, 25))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if report.Quality.Regions != 1 {
		t.Errorf("Expected 1 region, got %d", report.Quality.Regions)
	}
	if report.Quality.Correlation != 1 {
		t.Errorf("Expected correlation 1, got %f", report.Quality.Correlation)
	}
}

// TestAnalyzeNoisyImage verifies that RMSE matches the within-region spread
func TestAnalyzeNoisyImage(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	img := createTestImage(32, 32, func(x, y int) uint8 {
		base := 60
		if x >= 16 {
			base = 180
		}
		return uint8(base + rng.Intn(21) - 10)
	})
	res := segment(t, img, 25)

	report, err := Analyze(img, res)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	q := report.Quality
	if q.RMSE <= 0 {
		t.Errorf("Expected positive RMSE on noisy data, got %f", q.RMSE)
	}
	// The mean squared error against region means is the weighted within variance.
	if math.Abs(q.RMSE*q.RMSE-q.WithinVariance) > 1e-6 {
		t.Errorf("RMSE² = %f, within variance = %f", q.RMSE*q.RMSE, q.WithinVariance)
	}
	if q.Correlation <= 0.9 {
		t.Errorf("Expected strong correlation, got %f", q.Correlation)
	}
	if err := Verify(img, res); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

// TestVerifyAcrossQ verifies partition, conservation and averages for several Q
func TestVerifyAcrossQ(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	img := createTestImage(40, 24, func(x, y int) uint8 {
		return uint8((x*5+y*3)%256/2 + rng.Intn(40))
	})
	for _, q := range []float64{0.5, 5, 25, 250} {
		if err := Verify(img, segment(t, img, q)); err != nil {
			t.Errorf("Q=%v: %v", q, err)
		}
	}
}

// TestAnalyzeShapeMismatch verifies that mismatched inputs are rejected
func TestAnalyzeShapeMismatch(t *testing.T) {
	img := createTestImage(4, 4, func(x, y int) uint8 { return 1 })
	other := createTestImage(2, 8, func(x, y int) uint8 { return 1 })

	if _, err := Analyze(other, segment(t, img, 25)); err == nil {
		t.Error("Expected error for mismatched dimensions")
	}
	if _, err := Analyze(img, nil); err == nil {
		t.Error("Expected error for missing result")
	}
}

// TestCalculateRMSE verifies the RMSE helper
func TestCalculateRMSE(t *testing.T) {
	if got := calculateRMSE([]float64{1, 2, 3}, []float64{1, 2, 3}); got != 0 {
		t.Errorf("Expected 0, got %f", got)
	}
	if got := calculateRMSE([]float64{0, 0}, []float64{3, 4}); math.Abs(got-math.Sqrt(12.5)) > 1e-12 {
		t.Errorf("Expected %f, got %f", math.Sqrt(12.5), got)
	}
	if got := calculateRMSE(nil, nil); got != 0 {
		t.Errorf("Expected 0 for empty input, got %f", got)
	}
}
