package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"srmsegment/pkg/config"
	"srmsegment/pkg/pipeline"
)

func main() {
	// Parse command line arguments
	inputPath := flag.String("input", "", "Image file or directory of images to segment")
	outputDir := flag.String("output", "segmented", "Directory for the rendered results")
	configPath := flag.String("config", "srmsegment.yaml", "YAML configuration file")
	initConfig := flag.Bool("init-config", false, "Write a default configuration file to -config and exit")
	q := flag.Float64("q", 25, "Complexity parameter Q (higher keeps more regions)")
	mode := flag.String("mode", "labels", "Output mode: labels or averages")
	depth := flag.Int("depth", 0, "Label bit depth: 0 (auto), 8 or 16")
	numCores := flag.Int("cores", 0, "Number of images segmented concurrently (default: from config)")
	maxDim := flag.Int("max-dim", 0, "Downscale inputs larger than this many pixels per side")
	format := flag.String("format", "", "Output image format extension, e.g. .png or .tif")
	renderings := flag.String("renderings", "", "Comma separated renderings: labels,averages,color,boundaries")
	sweep := flag.Bool("sweep", false, "Segment the input image at every Q in test.qValues")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	// Validate inputs
	if *inputPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Explicit flags win over the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "q":
			cfg.Segmentation.Q = *q
		case "mode":
			cfg.Segmentation.Mode = *mode
		case "depth":
			cfg.Segmentation.Depth = *depth
		case "cores":
			cfg.Processing.NumCores = *numCores
		case "max-dim":
			cfg.Processing.MaxDimension = *maxDim
		case "format":
			cfg.Output.Format = *format
		case "renderings":
			cfg.Output.Renderings = strings.Split(*renderings, ",")
		case "verbose":
			cfg.Output.Verbose = *verbose
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	opts, err := cfg.SegmentOptions()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	level := slog.LevelInfo
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *sweep {
		points, err := pipeline.Sweep(ctx, *inputPath, opts, cfg.Test.QValues, cfg.Processing.MaxDimension, cfg.Test.SweepOutputDir)
		if err != nil {
			log.Fatalf("Sweep failed: %v", err)
		}
		fmt.Printf("\nQ sweep for %s:\n", *inputPath)
		fmt.Printf("%10s %10s %10s\n", "Q", "Regions", "RMSE")
		for _, p := range points {
			fmt.Printf("%10g %10d %10.3f\n", p.Q, p.Regions, p.RMSE)
		}
		fmt.Printf("Averaged images saved to: %s\n", cfg.Test.SweepOutputDir)
		return
	}

	params := &pipeline.Params{
		Input:                   *inputPath,
		OutputDir:               *outputDir,
		Options:                 opts,
		NumCores:                cfg.Processing.NumCores,
		MaxDimension:            cfg.Processing.MaxDimension,
		Format:                  cfg.Output.Format,
		Renderings:              cfg.Output.Renderings,
		SaveIntermediaryResults: cfg.Output.SaveIntermediaryResults,
		IntermediaryDir:         cfg.Output.IntermediaryDir,
		Logger:                  logger,
	}

	startTime := time.Now()
	reports, err := pipeline.NewRunner(params).Run(ctx)
	if err != nil {
		log.Fatalf("Segmentation failed: %v", err)
	}
	processingTime := time.Since(startTime)

	failed := 0
	fmt.Printf("\nSegmented %d image(s) with Q=%g in %.2f seconds\n", len(reports), opts.Q, processingTime.Seconds())
	fmt.Printf("%-32s %10s %6s %10s %8s\n", "Image", "Regions", "Bits", "RMSE", "Corr")
	for _, rep := range reports {
		if rep.Err != nil {
			failed++
			fmt.Printf("%-32s failed: %v\n", rep.Path, rep.Err)
			continue
		}
		note := ""
		if rep.Overflow {
			note = " (label depth widened)"
		}
		if len(rep.Skipped) > 0 {
			note += fmt.Sprintf(" (skipped: %s)", strings.Join(rep.Skipped, ","))
		}
		fmt.Printf("%-32s %10d %6d %10.3f %8.3f%s\n", rep.Path, rep.Regions, rep.BitDepth, rep.Quality.RMSE, rep.Quality.Correlation, note)
	}
	fmt.Printf("Results saved to: %s\n", *outputDir)

	if failed > 0 {
		os.Exit(1)
	}
}
