package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/segexport/internal/analyzer"
	"github.com/ivlev/segexport/internal/input"
	"github.com/ivlev/segexport/internal/screen"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "segment", cfg.FileNamePrefix)
	assert.Equal(t, "mp4", cfg.ExportFormat)
	assert.Equal(t, input.Combo{"ctrl", "e"}, cfg.KeyCombo.Export)
	assert.Equal(t, 2*time.Second, cfg.Timing.ExportWait)
	assert.Equal(t, analyzer.DefaultLocatorParams(), cfg.LocatorParams())
	assert.Equal(t, analyzer.DefaultGeometricParams(), cfg.DetectorOptions(nil).Geometric)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `output_directory: /exports
file_name_prefix: clip
export_format: mov
key_combo:
  export: cmd+e
timeline_region_hint: {x: 100, y: 800, width: 800, height: 50}
timing:
  export_wait: 5s
some_future_key: 42
detection:
  mode: manual
  manual_boundaries: [300, 600]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/exports", cfg.OutputDirectory)
	assert.Equal(t, "clip", cfg.FileNamePrefix)
	assert.Equal(t, "mov", cfg.ExportFormat)
	assert.Equal(t, "high", cfg.Quality, "missing keys keep defaults")
	assert.Equal(t, input.Combo{"cmd", "e"}, cfg.KeyCombo.Export)
	assert.Equal(t, input.Combo{"ctrl", "a"}, cfg.KeyCombo.SelectAll)
	assert.Equal(t, &screen.Region{X: 100, Y: 800, Width: 800, Height: 50}, cfg.TimelineRegionHint)
	assert.Equal(t, 5*time.Second, cfg.Timing.ExportWait)
	assert.Equal(t, time.Second, cfg.Timing.AfterExport)
	assert.Equal(t, []int{300, 600}, cfg.DetectorOptions(nil).ManualBoundaries)
	assert.Equal(t, 5, cfg.Detection.MergeTolerance)
}

func TestLoadExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_directory: ~/clips\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "clips"), cfg.OutputDirectory)
}

func TestLoadBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("export_format: [mp4\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Default()
	cfg.OutputDirectory = "/tmp/exports"
	cfg.TimelineRegionHint = &screen.Region{X: 1, Y: 2, Width: 3, Height: 4}
	cfg.Timing.AfterClick = 750 * time.Millisecond
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestOutputPath(t *testing.T) {
	cfg := Default()
	cfg.OutputDirectory = "/out"
	cfg.FileNamePrefix = "clip"

	assert.Equal(t, filepath.Join("/out", "clip_1.mp4"), cfg.OutputPath(1))
	assert.Equal(t, filepath.Join("/out", "clip_12.mp4"), cfg.OutputPath(12))

	cfg.ExportFormat = "gif"
	assert.Equal(t, filepath.Join("/out", "clip_3.gif"), cfg.OutputPath(3))
}

func TestCloneIsDeep(t *testing.T) {
	cfg := Default()
	cfg.TimelineRegionHint = &screen.Region{X: 1, Y: 1, Width: 10, Height: 10}
	cfg.Detection.ManualBoundaries = []int{5}

	clone := cfg.Clone()
	require.Equal(t, cfg, clone)

	clone.KeyCombo.Export[0] = "alt"
	clone.TimelineRegionHint.X = 99
	clone.Detection.ManualBoundaries[0] = 7

	assert.Equal(t, "ctrl", cfg.KeyCombo.Export[0])
	assert.Equal(t, 1, cfg.TimelineRegionHint.X)
	assert.Equal(t, 5, cfg.Detection.ManualBoundaries[0])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"format", func(c *Config) { c.ExportFormat = "avi" }, "export_format"},
		{"quality", func(c *Config) { c.Quality = "ultra" }, "quality"},
		{"resolution", func(c *Config) { c.Resolution = "8k" }, "resolution"},
		{"prefix", func(c *Config) { c.FileNamePrefix = "a/b" }, "file_name_prefix"},
		{"empty dir", func(c *Config) { c.OutputDirectory = " " }, "output_directory"},
		{"export combo", func(c *Config) { c.KeyCombo.Export = nil }, "key_combo.export"},
		{"select all", func(c *Config) {
			c.SelectAllFirst = true
			c.KeyCombo.SelectAll = nil
		}, "key_combo.select_all"},
		{"hint", func(c *Config) { c.TimelineRegionHint = &screen.Region{Width: 10} }, "timeline_region_hint"},
		{"mode", func(c *Config) { c.Detection.Mode = "ocr" }, "detection.mode"},
		{"template", func(c *Config) { c.Detection.Mode = "template" }, "detection.template_path"},
		{"manual", func(c *Config) { c.Detection.Mode = "manual" }, "detection.manual_boundaries"},
		{"tolerance", func(c *Config) { c.Detection.MergeTolerance = 0 }, "detection.merge_tolerance"},
		{"wait", func(c *Config) { c.Timing.ExportWait = 0 }, "timing.export_wait"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			fields := []string{}
			for _, v := range verrs {
				fields = append(fields, v.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestContext(t *testing.T) {
	cfg := Default()
	cfg.FileNamePrefix = "ctx"

	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
	assert.Equal(t, "segment", FromContext(context.Background()).FileNamePrefix)
}
