// Package metrics recomputes region statistics from the raw pixels of a
// segmented image and scores how well the averaged image represents it.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"srmsegment/internal/models"
	"srmsegment/pkg/srm"
)

// averageTolerance bounds the drift between the running average kept during
// merging and the mean recomputed from the pixels.
const averageTolerance = 1e-6

// RegionStats describes one region as recomputed from the source pixels
type RegionStats struct {
	Label int
	Count int

	// Mean and StdDev are the population statistics of the region's pixels
	Mean   float64
	StdDev float64

	// StoredAverage is the running mean maintained by the merge engine
	StoredAverage float64
}

// Quality summarizes a whole segmentation
type Quality struct {
	// Regions is the number of regions
	Regions int

	// MeanRegionSize, LargestRegion and SmallestRegion are in pixels
	MeanRegionSize float64
	LargestRegion  int
	SmallestRegion int

	// RMSE is the root mean square error between the source intensities
	// and the region averages
	RMSE float64

	// Correlation is Pearson's correlation between the source and the
	// averaged image. It is 1 for a perfect reconstruction.
	Correlation float64

	// WithinVariance is the pixel-weighted mean of the region variances
	WithinVariance float64
}

// Report is the output of Analyze
type Report struct {
	Regions []RegionStats
	Quality Quality
}

// Analyze groups the source pixels by region label and computes per-region
// and global statistics.
func Analyze(src *models.GrayImage, res *srm.Result) (*Report, error) {
	if err := checkShape(src, res); err != nil {
		return nil, err
	}

	groups := make([][]float64, res.Regions)
	for i, v := range src.Pix {
		l := res.Label(i)
		if l < 0 || l >= res.Regions {
			return nil, fmt.Errorf("pixel %d has label %d outside [0,%d)", i, l, res.Regions)
		}
		groups[l] = append(groups[l], float64(v))
	}

	summaries := res.Summaries()
	report := &Report{Regions: make([]RegionStats, res.Regions)}
	sizes := make([]float64, res.Regions)
	variances := make([]float64, res.Regions)
	for l, values := range groups {
		mean, variance := stat.PopMeanVariance(values, nil)
		report.Regions[l] = RegionStats{
			Label:         l,
			Count:         len(values),
			Mean:          mean,
			StdDev:        math.Sqrt(variance),
			StoredAverage: summaries[l].Average,
		}
		sizes[l] = float64(len(values))
		variances[l] = variance
	}

	source := make([]float64, len(src.Pix))
	averaged := make([]float64, len(src.Pix))
	for i, v := range src.Pix {
		source[i] = float64(v)
		averaged[i] = res.Average(i)
	}

	q := &report.Quality
	q.Regions = res.Regions
	q.MeanRegionSize = floats.Sum(sizes) / float64(res.Regions)
	q.LargestRegion = int(floats.Max(sizes))
	q.SmallestRegion = int(floats.Min(sizes))
	q.RMSE = calculateRMSE(source, averaged)
	q.Correlation = calculateCorrelation(source, averaged)
	q.WithinVariance = stat.Mean(variances, sizes)

	return report, nil
}

// Verify checks that the result is a partition of the image whose stored
// counts and averages agree with the pixels. It returns the first violation.
func Verify(src *models.GrayImage, res *srm.Result) error {
	report, err := Analyze(src, res)
	if err != nil {
		return err
	}

	total := 0
	summaries := res.Summaries()
	for l, r := range report.Regions {
		if r.Count == 0 {
			return fmt.Errorf("region %d has no pixels", l)
		}
		if summaries[l].Count != r.Count {
			return fmt.Errorf("region %d stores count %d but holds %d pixels", l, summaries[l].Count, r.Count)
		}
		if math.Abs(r.Mean-r.StoredAverage) > averageTolerance {
			return fmt.Errorf("region %d stores average %f but pixels average %f", l, r.StoredAverage, r.Mean)
		}
		total += r.Count
	}
	if total != src.Len() {
		return fmt.Errorf("regions cover %d of %d pixels", total, src.Len())
	}
	return nil
}

func checkShape(src *models.GrayImage, res *srm.Result) error {
	if src == nil || res == nil {
		return fmt.Errorf("missing image or result")
	}
	if src.Width != res.Width || src.Height != res.Height || len(src.Pix) != src.Len() {
		return fmt.Errorf("image is %dx%d but result is %dx%d", src.Width, src.Height, res.Width, res.Height)
	}
	if res.Regions == 0 {
		return fmt.Errorf("result has no regions")
	}
	return nil
}

// calculateRMSE computes the root mean square error between two datasets
func calculateRMSE(original, reconstructed []float64) float64 {
	if len(original) == 0 {
		return 0
	}
	var sum float64
	for i := range original {
		diff := original[i] - reconstructed[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(original)))
}

// calculateCorrelation is Pearson's r, defined as 1 when both inputs are
// identical constants and 0 when only one of them is constant.
func calculateCorrelation(original, reconstructed []float64) float64 {
	r := stat.Correlation(original, reconstructed, nil)
	if math.IsNaN(r) {
		if floats.Equal(original, reconstructed) {
			return 1
		}
		return 0
	}
	return r
}
