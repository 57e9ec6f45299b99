package srm

import (
	"context"
	"fmt"
	"math"

	"srmsegment/internal/models"
)

// Options controls a segmentation.
type Options struct {
	// Q is the complexity parameter. It scales the merge bound by 1/Q, so
	// higher values make the predicate stricter and keep more regions.
	// Must be > 0 and finite. Default: 25.
	Q float64

	// Mode selects a label map or an averaged-intensity map.
	Mode models.OutputMode

	// Depth is the label width the caller can store. Only used in label
	// mode. Default: DepthAuto.
	Depth models.LabelDepth
}

// DefaultOptions returns label-mode options with Q = 25.
func DefaultOptions() Options {
	return Options{
		Q:     25,
		Mode:  models.ModeLabels,
		Depth: models.DepthAuto,
	}
}

// Result is the output of a segmentation. In label mode exactly one of
// Labels8, Labels16 and Labels32 is set, as told by BitDepth. In average
// mode Averages is set and BitDepth is 32.
type Result struct {
	Width  int
	Height int
	Mode   models.OutputMode

	// Regions is the number of regions found
	Regions int

	// BitDepth is the width of the populated output buffer
	BitDepth int

	// Overflow is set when Regions exceeds the requested label depth and
	// the buffer had to be widened
	Overflow bool

	Labels8  []uint8
	Labels16 []uint16
	Labels32 []uint32
	Averages []float32

	// Stats describes the merge run
	Stats EngineStats

	labels  []int
	regions []models.RegionSummary
}

// Label returns the dense region label of pixel i, in either mode.
func (r *Result) Label(i int) int {
	return r.labels[i]
}

// Average returns the mean intensity of the region containing pixel i.
func (r *Result) Average(i int) float64 {
	return r.regions[r.labels[i]].Average
}

// Summaries returns the final statistics of every region indexed by label.
func (r *Result) Summaries() []models.RegionSummary {
	return r.regions
}

// Segment partitions an 8-bit image into statistically homogeneous regions.
// pixels is row-major with len(pixels) == width*height.
func Segment(pixels []uint8, width, height int, opts Options) (*Result, error) {
	return SegmentContext(context.Background(), pixels, width, height, opts)
}

// SegmentImage segments a GrayImage.
func SegmentImage(img *models.GrayImage, opts Options) (*Result, error) {
	if img == nil {
		return nil, fmt.Errorf("srm: nil image: %w", ErrInvalidInput)
	}
	return Segment(img.Pix, img.Width, img.Height, opts)
}

// SegmentContext is Segment with cancellation. The context is polled
// between difference levels of the merge loop.
func SegmentContext(ctx context.Context, pixels []uint8, width, height int, opts Options) (*Result, error) {
	if err := validate(pixels, width, height, opts); err != nil {
		return nil, err
	}

	store := NewRegionStore(pixels)
	buckets := NewBucketSorter(pixels, width, height)
	engine := NewMergeEngine(store, buckets, NewMergePredicate(opts.Q, len(pixels)))
	if err := engine.Run(ctx); err != nil {
		return nil, fmt.Errorf("srm: merge interrupted: %w", err)
	}

	labels, regions := consolidate(store)
	res := &Result{
		Width:   width,
		Height:  height,
		Mode:    opts.Mode,
		Regions: len(regions),
		Stats:   engine.Stats(),
		labels:  labels,
		regions: regions,
	}
	if opts.Mode == models.ModeAverages {
		fillAverages(res, labels)
	} else {
		packLabels(res, labels, opts.Depth)
	}
	return res, nil
}

func validate(pixels []uint8, width, height int, opts Options) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("srm: width and height must be > 0, got %dx%d: %w", width, height, ErrInvalidInput)
	}
	if len(pixels) != width*height {
		return fmt.Errorf("srm: got %d pixels for a %dx%d image: %w", len(pixels), width, height, ErrInvalidInput)
	}
	if !(opts.Q > 0) || math.IsInf(opts.Q, 1) {
		return fmt.Errorf("srm: Q must be > 0 and finite, got %v: %w", opts.Q, ErrInvalidInput)
	}
	switch opts.Mode {
	case models.ModeLabels, models.ModeAverages:
	default:
		return fmt.Errorf("srm: unknown output mode %d: %w", opts.Mode, ErrInvalidInput)
	}
	switch opts.Depth {
	case models.DepthAuto, models.Depth8, models.Depth16:
	default:
		return fmt.Errorf("srm: unsupported label depth %d: %w", opts.Depth, ErrInvalidInput)
	}
	return nil
}
