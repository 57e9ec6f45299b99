package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"srmsegment/internal/models"
	"srmsegment/pkg/imageio"
	"srmsegment/pkg/metrics"
	"srmsegment/pkg/srm"
	"srmsegment/pkg/visualization"
)

// SweepPoint is the outcome of segmenting one image at one Q.
type SweepPoint struct {
	Q       float64
	Regions int
	RMSE    float64
}

// Sweep segments one image at every Q in qValues, in ascending order, and
// writes an averaged rendering per Q to outputDir when it is not empty.
func Sweep(ctx context.Context, path string, base srm.Options, qValues []float64, maxDimension int, outputDir string) ([]SweepPoint, error) {
	img, err := imageio.Load(path, maxDimension)
	if err != nil {
		return nil, err
	}
	return SweepImage(ctx, img, base, qValues, outputDir)
}

// SweepImage is Sweep on an already loaded image.
func SweepImage(ctx context.Context, img *models.GrayImage, base srm.Options, qValues []float64, outputDir string) ([]SweepPoint, error) {
	qs := append([]float64(nil), qValues...)
	sort.Float64s(qs)

	name := strings.TrimSuffix(img.Name, filepath.Ext(img.Name))
	if name == "" {
		name = "image"
	}

	points := make([]SweepPoint, 0, len(qs))
	for _, q := range qs {
		opts := base
		opts.Q = q
		res, err := srm.SegmentContext(ctx, img.Pix, img.Width, img.Height, opts)
		if err != nil {
			return points, fmt.Errorf("sweep at Q=%v: %w", q, err)
		}
		report, err := metrics.Analyze(img, res)
		if err != nil {
			return points, fmt.Errorf("sweep at Q=%v: %w", q, err)
		}
		points = append(points, SweepPoint{Q: q, Regions: res.Regions, RMSE: report.Quality.RMSE})

		if outputDir != "" {
			out := filepath.Join(outputDir, fmt.Sprintf("%s_q%g.png", name, q))
			if err := imageio.Save(out, visualization.NewViewer(img, res).AverageImage()); err != nil {
				return points, err
			}
		}
	}
	return points, nil
}
