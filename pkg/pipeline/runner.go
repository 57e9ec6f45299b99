// Package pipeline segments batches of image files with a pool of workers
// and writes the renderings, statistics and intermediary results to disk.
package pipeline

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"srmsegment/internal/models"
	"srmsegment/pkg/imageio"
	"srmsegment/pkg/metrics"
	"srmsegment/pkg/srm"
	"srmsegment/pkg/visualization"
)

// Params holds the batch configuration.
type Params struct {
	// Input is an image file or a directory of image files.
	Input string

	// OutputDir receives one set of renderings per input image.
	OutputDir string

	// Options is passed to every segmentation.
	Options srm.Options

	// NumCores is the number of images segmented concurrently. Each worker
	// owns the working arrays of the image it is processing.
	NumCores int

	// MaxDimension downsizes larger inputs before segmentation; 0 disables.
	MaxDimension int

	// Format is the extension of the written images, e.g. ".png".
	Format string

	// Renderings lists the visualization kinds to write.
	Renderings []string

	// SaveIntermediaryResults determines whether the grayscale input, the
	// raw label buffer and the region table are saved as well.
	SaveIntermediaryResults bool

	// IntermediaryDir is where intermediary results are saved.
	IntermediaryDir string

	// Logger receives progress messages. Nil discards them.
	Logger *slog.Logger
}

// Report describes the outcome for one input image.
type Report struct {
	Path     string
	Width    int
	Height   int
	Regions  int
	BitDepth int
	Overflow bool
	Quality  metrics.Quality
	Outputs  []string
	// Skipped lists renderings that cannot represent the result, such as a
	// label map with more than 65536 regions
	Skipped  []string
	Duration time.Duration
	Err      error
}

// Runner executes a batch.
type Runner struct {
	params *Params
	logger *slog.Logger
}

// NewRunner creates a runner for the given parameters.
func NewRunner(params *Params) *Runner {
	logger := params.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{params: params, logger: logger}
}

// Run segments every input image. Failures of single images are recorded
// in their Report; Run itself fails only when no input can be listed or
// the context is cancelled. Reports are returned in input order.
func (r *Runner) Run(ctx context.Context) ([]Report, error) {
	files, err := r.collectInputs()
	if err != nil {
		return nil, err
	}
	r.logger.Info("segmenting images", "count", len(files), "workers", r.workers(), "q", r.params.Options.Q, "mode", r.params.Options.Mode)

	reports := make([]Report, len(files))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < r.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				reports[idx] = r.processFile(ctx, files[idx])
			}
		}()
	}

dispatch:
	for idx := range files {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return reports, fmt.Errorf("batch interrupted: %w", err)
	}

	failed := 0
	for _, rep := range reports {
		if rep.Err != nil {
			failed++
		}
	}
	r.logger.Info("batch finished", "images", len(files), "failed", failed)
	return reports, nil
}

func (r *Runner) workers() int {
	if r.params.NumCores < 1 {
		return 1
	}
	return r.params.NumCores
}

// collectInputs lists the images to process, sorted by the number in their
// filename and then by name.
func (r *Runner) collectInputs() ([]string, error) {
	info, err := os.Stat(r.params.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if !info.IsDir() {
		return []string{r.params.Input}, nil
	}

	entries, err := os.ReadDir(r.params.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && imageio.IsSupported(e.Name()) {
			files = append(files, filepath.Join(r.params.Input, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no supported images found in %s", r.params.Input)
	}

	sort.Slice(files, func(i, j int) bool {
		ni, nj := extractNumber(files[i]), extractNumber(files[j])
		if ni != nj {
			return ni < nj
		}
		return files[i] < files[j]
	})
	return files, nil
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	var digits strings.Builder
	for _, c := range base {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	if digits.Len() > 0 {
		if num, err := strconv.Atoi(digits.String()); err == nil {
			return num
		}
	}
	return 0
}

func (r *Runner) processFile(ctx context.Context, path string) Report {
	start := time.Now()
	rep := Report{Path: path}
	log := r.logger.With("file", filepath.Base(path))

	img, err := imageio.Load(path, r.params.MaxDimension)
	if err != nil {
		rep.Err = err
		log.Error("load failed", "err", err)
		return rep
	}
	rep.Width, rep.Height = img.Width, img.Height

	res, err := srm.SegmentContext(ctx, img.Pix, img.Width, img.Height, r.params.Options)
	if err != nil {
		rep.Err = err
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			log.Error("segmentation failed", "err", err)
		}
		return rep
	}
	rep.Regions, rep.BitDepth, rep.Overflow = res.Regions, res.BitDepth, res.Overflow
	if res.Overflow {
		log.Warn("region count exceeds requested label depth", "regions", res.Regions, "bitDepth", res.BitDepth)
	}

	report, err := metrics.Analyze(img, res)
	if err != nil {
		rep.Err = fmt.Errorf("failed to analyze %s: %w", path, err)
		return rep
	}
	rep.Quality = report.Quality

	base := strings.TrimSuffix(img.Name, filepath.Ext(img.Name))
	viewer := visualization.NewViewer(img, res)
	rep.Outputs, rep.Skipped, err = viewer.SaveAll(r.params.OutputDir, base, r.format(), r.params.Renderings)
	if err != nil {
		rep.Err = fmt.Errorf("failed to save renderings of %s: %w", path, err)
		return rep
	}
	if len(rep.Skipped) > 0 {
		log.Warn("renderings skipped, label map too wide for an image", "skipped", rep.Skipped, "regions", res.Regions)
	}

	if r.params.SaveIntermediaryResults {
		if err := r.saveIntermediaryResults(base, img, res, report); err != nil {
			log.Warn("failed to save intermediary results", "err", err)
		}
	}

	rep.Duration = time.Since(start)
	log.Debug("segmented", "regions", res.Regions, "pairs", res.Stats.Pairs, "merges", res.Stats.Merges, "rmse", report.Quality.RMSE, "duration", rep.Duration)
	return rep
}

func (r *Runner) format() string {
	if r.params.Format == "" {
		return ".png"
	}
	if !strings.HasPrefix(r.params.Format, ".") {
		return "." + r.params.Format
	}
	return r.params.Format
}

// saveIntermediaryResults writes the grayscale input, the raw label buffer
// and a per-region table under IntermediaryDir.
func (r *Runner) saveIntermediaryResults(base string, img *models.GrayImage, res *srm.Result, report *metrics.Report) error {
	dir := r.params.IntermediaryDir

	if err := imageio.Save(filepath.Join(dir, "01_gray_input", base+".png"), imageio.FromGray(img)); err != nil {
		return err
	}

	labelDir := filepath.Join(dir, "02_labels")
	if err := os.MkdirAll(labelDir, 0755); err != nil {
		return fmt.Errorf("failed to create intermediary directory: %w", err)
	}
	if err := writeLabels(filepath.Join(labelDir, base+".bin"), res); err != nil {
		return err
	}

	statsDir := filepath.Join(dir, "03_region_stats")
	if err := os.MkdirAll(statsDir, 0755); err != nil {
		return fmt.Errorf("failed to create intermediary directory: %w", err)
	}
	return writeRegionTable(filepath.Join(statsDir, base+".txt"), report)
}

// writeLabels stores the populated result buffer little-endian, as is.
func writeLabels(path string, res *srm.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create binary file: %w", err)
	}
	defer file.Close()

	var data any
	switch {
	case res.Labels8 != nil:
		data = res.Labels8
	case res.Labels16 != nil:
		data = res.Labels16
	case res.Labels32 != nil:
		data = res.Labels32
	default:
		data = res.Averages
	}
	if err := binary.Write(file, binary.LittleEndian, data); err != nil {
		return fmt.Errorf("failed to write binary data: %w", err)
	}
	return nil
}

func writeRegionTable(path string, report *metrics.Report) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create text file: %w", err)
	}
	if err := formatRegionTable(file, report); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close text file: %w", err)
	}
	return nil
}

// formatRegionTable writes one tab separated line per region.
func formatRegionTable(w io.Writer, report *metrics.Report) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "label\tcount\tmean\tstddev\n")
	for _, reg := range report.Regions {
		fmt.Fprintf(bw, "%d\t%d\t%.3f\t%.3f\n", reg.Label, reg.Count, reg.Mean, reg.StdDev)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write region table: %w", err)
	}
	return nil
}
