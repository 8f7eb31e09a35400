// Package config provides configuration loading and management for linerestore.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"linerestore/internal/models"
	"linerestore/pkg/annotation"
	"linerestore/pkg/detection"
	"linerestore/pkg/matching"
	"linerestore/pkg/padding"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the application configuration loaded from YAML
type Config struct {
	// Line detection parameters
	Detection struct {
		// LineWidth is the number of columns occupied by the artifact band
		LineWidth int `yaml:"lineWidth"`

		// Blur enables the vertical max-dilation before locating the line
		Blur bool `yaml:"blur"`

		// BlurShifts are the circular row shifts used by the vertical blur
		BlurShifts []int `yaml:"blurShifts"`
	} `yaml:"detection"`

	// Patch matching parameters
	Matching struct {
		// Step is the stripe height in rows
		Step int `yaml:"step"`

		// PatchExtend is the number of context columns on each side of the band
		PatchExtend int `yaml:"patchExtend"`

		// RowRange and ColRange bound the displacement search (half-open)
		RowRange models.Range `yaml:"rowRange"`
		ColRange models.Range `yaml:"colRange"`

		// ShiftPenalty weighs the squared displacement in the match score
		ShiftPenalty int64 `yaml:"shiftPenalty"`

		// Workers is the number of goroutines scanning one stripe's displacements
		Workers int `yaml:"workers"`
	} `yaml:"matching"`

	// Padding parameters
	Padding struct {
		// Margin is the slack added to twice the largest displacement on each axis
		Margin int `yaml:"margin"`
	} `yaml:"padding"`

	// Annotation parameters
	Annotation struct {
		// Enabled produces the tagged diagnostic copies
		Enabled bool `yaml:"enabled"`

		// Thickness is the rectangle border width in pixels
		Thickness int `yaml:"thickness"`

		// Palette lists the marker colors as hex strings, used in rotation
		Palette []string `yaml:"palette"`
	} `yaml:"annotation"`

	// Output parameters
	Output struct {
		RecoveredSuffix       string `yaml:"recoveredSuffix"`
		TaggedSuffix          string `yaml:"taggedSuffix"`
		TaggedReferenceSuffix string `yaml:"taggedReferenceSuffix"`

		// Format is the file extension used for written images
		Format string `yaml:"format"`

		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Detection.LineWidth = 4
	cfg.Detection.Blur = true
	cfg.Detection.BlurShifts = append([]int(nil), detection.DefaultBlurShifts...)

	cfg.Matching.Step = 220
	cfg.Matching.PatchExtend = 150
	cfg.Matching.RowRange = models.Range{Min: -50, Max: 50}
	cfg.Matching.ColRange = models.Range{Min: -50, Max: 50}
	cfg.Matching.ShiftPenalty = matching.DefaultShiftPenalty
	cfg.Matching.Workers = runtime.NumCPU()

	cfg.Padding.Margin = padding.MinDriftMargin

	cfg.Annotation.Enabled = true
	cfg.Annotation.Thickness = 3
	cfg.Annotation.Palette = append([]string(nil), annotation.DefaultPalette...)

	cfg.Output.RecoveredSuffix = "_recovered"
	cfg.Output.TaggedSuffix = "_tagged"
	cfg.Output.TaggedReferenceSuffix = "_tagged_reference"
	cfg.Output.Format = "png"
	cfg.Output.Verbose = false

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}
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
	return SaveConfig(DefaultConfig(), configPath)
}

// Pads returns the padding rows and columns added around the reference.
func (c *Config) Pads() (rowPad, colPad int) {
	return padding.Margins(c.Matching.RowRange, c.Matching.ColRange, c.Padding.Margin)
}

// Validate checks every parameter before any search begins.
func (c *Config) Validate() error {
	if c.Detection.LineWidth <= 0 {
		return fmt.Errorf("%w: line width must be positive, got %d", ErrInvalidConfig, c.Detection.LineWidth)
	}
	for _, s := range c.Detection.BlurShifts {
		if s < 0 {
			return fmt.Errorf("%w: blur shift must be non-negative, got %d", ErrInvalidConfig, s)
		}
	}
	if c.Matching.Step <= 0 {
		return fmt.Errorf("%w: step must be positive, got %d", ErrInvalidConfig, c.Matching.Step)
	}
	if c.Matching.PatchExtend <= 0 {
		return fmt.Errorf("%w: patch extend must be positive, got %d", ErrInvalidConfig, c.Matching.PatchExtend)
	}
	if c.Matching.RowRange.Len() == 0 {
		return fmt.Errorf("%w: row range %v is empty", ErrInvalidConfig, c.Matching.RowRange)
	}
	if c.Matching.ColRange.Len() == 0 {
		return fmt.Errorf("%w: column range %v is empty", ErrInvalidConfig, c.Matching.ColRange)
	}
	if c.Matching.ShiftPenalty < 0 {
		return fmt.Errorf("%w: shift penalty must be non-negative, got %d", ErrInvalidConfig, c.Matching.ShiftPenalty)
	}
	if c.Matching.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Matching.Workers)
	}
	if c.Padding.Margin < padding.MinDriftMargin {
		rowPad, colPad := c.Pads()
		return fmt.Errorf("%w: padding margin %d below drift slack %d (pads %d,%d)",
			ErrInvalidConfig, c.Padding.Margin, padding.MinDriftMargin, rowPad, colPad)
	}
	if c.Annotation.Enabled {
		if c.Annotation.Thickness <= 0 {
			return fmt.Errorf("%w: annotation thickness must be positive, got %d", ErrInvalidConfig, c.Annotation.Thickness)
		}
		if len(c.Annotation.Palette) == 0 {
			return fmt.Errorf("%w: annotation palette is empty", ErrInvalidConfig)
		}
		for _, hex := range c.Annotation.Palette {
			if _, err := colorful.Hex(hex); err != nil {
				return fmt.Errorf("%w: palette color %q: %v", ErrInvalidConfig, hex, err)
			}
		}
	}
	return nil
}
