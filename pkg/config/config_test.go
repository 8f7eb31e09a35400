package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linerestore/internal/models"
	"linerestore/pkg/annotation"
	"linerestore/pkg/detection"
	"linerestore/pkg/matching"
	"linerestore/pkg/padding"
)

// TestDefaultConfig checks the documented defaults and that they validate
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 4, cfg.Detection.LineWidth)
	assert.Equal(t, 220, cfg.Matching.Step)
	assert.Equal(t, 150, cfg.Matching.PatchExtend)
	assert.Equal(t, models.Range{Min: -50, Max: 50}, cfg.Matching.RowRange)
	assert.Equal(t, int64(2000), cfg.Matching.ShiftPenalty)
	assert.Len(t, cfg.Annotation.Palette, 3)
	require.NoError(t, cfg.Validate())

	rowPad, colPad := cfg.Pads()
	assert.Equal(t, 200, rowPad)
	assert.Equal(t, 200, colPad)
}

// TestLoadConfig covers missing files, round trips and partial overrides
func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file gives defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(dir, "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Matching.Step, cfg.Matching.Step)
	})

	t.Run("saved defaults load back", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "config.yaml")
		require.NoError(t, CreateDefaultConfigFile(path))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Detection.BlurShifts, cfg.Detection.BlurShifts)
		assert.Equal(t, DefaultConfig().Annotation.Palette, cfg.Annotation.Palette)
	})

	t.Run("partial file keeps other defaults", func(t *testing.T) {
		path := filepath.Join(dir, "partial.yaml")
		data := "matching:\n  step: 100\n  rowRange: {min: -10, max: 10}\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 100, cfg.Matching.Step)
		assert.Equal(t, models.Range{Min: -10, Max: 10}, cfg.Matching.RowRange)
		assert.Equal(t, 150, cfg.Matching.PatchExtend)
	})

	t.Run("malformed file fails", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("matching: [\n"), 0644))

		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}

// TestValidate rejects each kind of bad parameter
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero line width", func(c *Config) { c.Detection.LineWidth = 0 }},
		{"negative blur shift", func(c *Config) { c.Detection.BlurShifts = []int{-1} }},
		{"zero step", func(c *Config) { c.Matching.Step = 0 }},
		{"zero extend", func(c *Config) { c.Matching.PatchExtend = 0 }},
		{"empty row range", func(c *Config) { c.Matching.RowRange = models.Range{Min: 3, Max: 3} }},
		{"empty col range", func(c *Config) { c.Matching.ColRange = models.Range{Min: 1, Max: 0} }},
		{"negative penalty", func(c *Config) { c.Matching.ShiftPenalty = -1 }},
		{"no workers", func(c *Config) { c.Matching.Workers = 0 }},
		{"negative margin", func(c *Config) { c.Padding.Margin = -1 }},
		{"margin below drift slack", func(c *Config) { c.Padding.Margin = 0 }},
		{"margin one short of drift slack", func(c *Config) { c.Padding.Margin = 99 }},
		{"zero thickness", func(c *Config) { c.Annotation.Thickness = 0 }},
		{"empty palette", func(c *Config) { c.Annotation.Palette = nil }},
		{"bad color", func(c *Config) { c.Annotation.Palette = []string{"blue"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	t.Run("palette ignored when annotation disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Annotation.Enabled = false
		cfg.Annotation.Palette = nil
		assert.NoError(t, cfg.Validate())
	})
}

func TestValidatePaddingFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Padding.Margin = 100
	require.NoError(t, cfg.Validate())

	rowPad, colPad := cfg.Pads()
	assert.Equal(t, 100+2*cfg.Matching.RowRange.MaxAbs(), rowPad)
	assert.Equal(t, 100+2*cfg.Matching.ColRange.MaxAbs(), colPad)

	cfg.Padding.Margin = 0
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "drift slack")
}

func TestDefaultConfigSharesPackageDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, detection.DefaultBlurShifts, cfg.Detection.BlurShifts)
	assert.Equal(t, matching.DefaultShiftPenalty, cfg.Matching.ShiftPenalty)
	assert.Equal(t, annotation.DefaultPalette, cfg.Annotation.Palette)
	assert.Equal(t, padding.MinDriftMargin, cfg.Padding.Margin)

	// Mutating a config must not leak into the package defaults.
	cfg.Detection.BlurShifts[0] = -1
	cfg.Annotation.Palette[0] = "#000000"
	assert.NotEqual(t, -1, detection.DefaultBlurShifts[0])
	assert.NotEqual(t, "#000000", annotation.DefaultPalette[0])
}
