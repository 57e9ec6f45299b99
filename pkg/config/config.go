// Package config provides configuration loading and management for srmsegment.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"srmsegment/internal/models"
	"srmsegment/pkg/imageio"
	"srmsegment/pkg/srm"
	"srmsegment/pkg/visualization"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Segmentation parameters
	Segmentation struct {
		// Q is the complexity parameter; higher values keep more regions
		Q float64 `yaml:"q"`

		// Mode is "labels" or "averages"
		Mode string `yaml:"mode"`

		// Depth is the label bit depth: 0 (auto), 8 or 16
		Depth int `yaml:"depth"`
	} `yaml:"segmentation"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many images are segmented concurrently
		NumCores int `yaml:"numCores"`

		// MaxDimension downsizes larger inputs before segmentation; 0 disables
		MaxDimension int `yaml:"maxDimension"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Format is the file extension of written images
		Format string `yaml:"format"`

		// Renderings lists what to write for every input
		Renderings []string `yaml:"renderings"`

		// SaveIntermediaryResults determines whether to save the grayscale input
		// and per-region statistics next to the outputs
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// IntermediaryDir is where intermediary results go
		IntermediaryDir string `yaml:"intermediaryDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`

	// Test parameters
	Test struct {
		// QValues is the list of Q values tried by a sweep
		QValues []float64 `yaml:"qValues"`

		// SweepOutputDir is the directory to save sweep results
		SweepOutputDir string `yaml:"sweepOutputDir"`
	} `yaml:"test"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Segmentation.Q = 25
	cfg.Segmentation.Mode = models.ModeLabels.String()
	cfg.Segmentation.Depth = 0

	cfg.Processing.NumCores = runtime.NumCPU()
	cfg.Processing.MaxDimension = 0

	cfg.Output.Format = ".png"
	cfg.Output.Renderings = []string{visualization.KindLabels, visualization.KindAverages}
	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.IntermediaryDir = "intermediary_results"
	cfg.Output.Verbose = false

	cfg.Test.QValues = []float64{1, 5, 25, 100, 500}
	cfg.Test.SweepOutputDir = "q_sweep"

	return cfg
}

// Validate checks that every field holds a usable value
func (c *Config) Validate() error {
	if !(c.Segmentation.Q > 0) || math.IsInf(c.Segmentation.Q, 1) {
		return fmt.Errorf("segmentation.q must be > 0 and finite, got %v", c.Segmentation.Q)
	}
	if _, err := models.ParseOutputMode(c.Segmentation.Mode); err != nil {
		return fmt.Errorf("segmentation.mode: %w", err)
	}
	if _, err := models.ParseLabelDepth(c.Segmentation.Depth); err != nil {
		return fmt.Errorf("segmentation.depth: %w", err)
	}
	if c.Processing.NumCores < 1 {
		return fmt.Errorf("processing.numCores must be >= 1, got %d", c.Processing.NumCores)
	}
	if c.Output.Format != "" && !imageio.IsWritable("out."+strings.TrimPrefix(c.Output.Format, ".")) {
		return fmt.Errorf("output.format: cannot write %q images", c.Output.Format)
	}
	if c.Processing.MaxDimension < 0 {
		return fmt.Errorf("processing.maxDimension must be >= 0, got %d", c.Processing.MaxDimension)
	}
	for _, kind := range c.Output.Renderings {
		switch kind {
		case visualization.KindLabels, visualization.KindAverages, visualization.KindColor, visualization.KindBoundaries:
		default:
			return fmt.Errorf("output.renderings: unknown rendering %q", kind)
		}
	}
	for _, q := range c.Test.QValues {
		if !(q > 0) || math.IsInf(q, 1) {
			return fmt.Errorf("test.qValues must all be > 0 and finite, got %v", q)
		}
	}
	return nil
}

// SegmentOptions converts the segmentation section into core options
func (c *Config) SegmentOptions() (srm.Options, error) {
	mode, err := models.ParseOutputMode(c.Segmentation.Mode)
	if err != nil {
		return srm.Options{}, err
	}
	depth, err := models.ParseLabelDepth(c.Segmentation.Depth)
	if err != nil {
		return srm.Options{}, err
	}
	return srm.Options{Q: c.Segmentation.Q, Mode: mode, Depth: depth}, nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
