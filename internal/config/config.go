package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/segexport/internal/analyzer"
	"github.com/ivlev/segexport/internal/input"
	"github.com/ivlev/segexport/internal/screen"
)

type contextKey string

const configKey contextKey = "config"

// Config holds everything one export run needs. It is treated as an
// immutable value once a run starts.
type Config struct {
	OutputDirectory string `yaml:"output_directory"`
	FileNamePrefix  string `yaml:"file_name_prefix"`
	ExportFormat    string `yaml:"export_format"`
	Quality         string `yaml:"quality"`
	Resolution      string `yaml:"resolution"`

	KeyCombo KeyComboConfig `yaml:"key_combo"`

	// Skips automatic timeline lookup when set
	TimelineRegionHint *screen.Region `yaml:"timeline_region_hint,omitempty"`
	CalibrationFile    string         `yaml:"calibration_file,omitempty"`

	SelectAllFirst bool   `yaml:"select_all_first"`
	TargetProcess  string `yaml:"target_process"`
	Display        int    `yaml:"display"`

	Detection DetectionConfig `yaml:"detection"`
	Timing    TimingConfig    `yaml:"timing"`
	Verify    VerifyConfig    `yaml:"verify"`
}

type KeyComboConfig struct {
	SelectAll input.Combo `yaml:"select_all"`
	Export    input.Combo `yaml:"export"`
	Confirm   input.Combo `yaml:"confirm"`
}

type DetectionConfig struct {
	Mode              string  `yaml:"mode"`
	MergeTolerance    int     `yaml:"merge_tolerance"`
	MaxAnalysisWidth  int     `yaml:"max_analysis_width"`
	TemplatePath      string  `yaml:"template_path,omitempty"`
	TemplateThreshold float64 `yaml:"template_threshold"`
	ManualBoundaries  []int   `yaml:"manual_boundaries,omitempty"`

	Mask      MaskConfig      `yaml:"mask"`
	Geometric GeometricConfig `yaml:"geometric"`
}

type MaskConfig struct {
	MaxSaturation int `yaml:"max_saturation"`
	MinValue      int `yaml:"min_value"`
	MinArea       int `yaml:"min_area"`
}

type GeometricConfig struct {
	CannyLow          int `yaml:"canny_low"`
	CannyHigh         int `yaml:"canny_high"`
	HoughThreshold    int `yaml:"hough_threshold"`
	MinLineLength     int `yaml:"min_line_length"`
	MaxLineGap        int `yaml:"max_line_gap"`
	VerticalTolerance int `yaml:"vertical_tolerance"`
}

type TimingConfig struct {
	AfterClick  time.Duration `yaml:"after_click"`
	AfterExport time.Duration `yaml:"after_export"`
	AfterType   time.Duration `yaml:"after_type"`
	ExportWait  time.Duration `yaml:"export_wait"`
}

type VerifyConfig struct {
	// Require ffprobe to report a positive duration for each output
	ProbeMedia bool `yaml:"probe_media"`
}

var (
	ExportFormats = []string{"mp4", "mov", "gif"}
	Qualities     = []string{"low", "medium", "high", "highest"}
	Resolutions   = []string{"720p", "1080p", "2k", "4k"}
)

// Default returns the documented defaults
func Default() *Config {
	geo := analyzer.DefaultGeometricParams()
	loc := analyzer.DefaultLocatorParams()

	return &Config{
		OutputDirectory: defaultOutputDirectory(),
		FileNamePrefix:  "segment",
		ExportFormat:    "mp4",
		Quality:         "high",
		Resolution:      "1080p",
		KeyCombo: KeyComboConfig{
			SelectAll: input.Combo{"ctrl", "a"},
			Export:    input.Combo{"ctrl", "e"},
			Confirm:   input.Combo{"enter"},
		},
		TargetProcess: "JianyingPro",
		Detection: DetectionConfig{
			Mode:              string(analyzer.ModeGeometric),
			MergeTolerance:    5,
			MaxAnalysisWidth:  loc.MaxAnalysisWidth,
			TemplateThreshold: 0.8,
			Mask: MaskConfig{
				MaxSaturation: int(loc.MaxSaturation),
				MinValue:      int(loc.MinValue),
				MinArea:       loc.MinArea,
			},
			Geometric: GeometricConfig{
				CannyLow:          geo.CannyLow,
				CannyHigh:         geo.CannyHigh,
				HoughThreshold:    geo.HoughThreshold,
				MinLineLength:     geo.MinLineLength,
				MaxLineGap:        geo.MaxLineGap,
				VerticalTolerance: geo.VerticalTolerance,
			},
		},
		Timing: TimingConfig{
			AfterClick:  500 * time.Millisecond,
			AfterExport: time.Second,
			AfterType:   500 * time.Millisecond,
			ExportWait:  2 * time.Second,
		},
	}
}

func defaultOutputDirectory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "segexport"
	}
	return filepath.Join(home, "Desktop", "segexport")
}

// DefaultPath returns ~/.segexport/config.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".segexport", "config.yaml")
}

// Load reads configuration from file or returns defaults. Missing keys keep
// their defaults, unknown keys are ignored.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.OutputDirectory = expandHome(cfg.OutputDirectory)
	cfg.CalibrationFile = expandHome(cfg.CalibrationFile)
	cfg.Detection.TemplatePath = expandHome(cfg.Detection.TemplatePath)

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy
func (c *Config) Clone() *Config {
	out := *c
	out.KeyCombo.SelectAll = append(input.Combo(nil), c.KeyCombo.SelectAll...)
	out.KeyCombo.Export = append(input.Combo(nil), c.KeyCombo.Export...)
	out.KeyCombo.Confirm = append(input.Combo(nil), c.KeyCombo.Confirm...)
	out.Detection.ManualBoundaries = append([]int(nil), c.Detection.ManualBoundaries...)
	if c.TimelineRegionHint != nil {
		hint := *c.TimelineRegionHint
		out.TimelineRegionHint = &hint
	}
	return &out
}

// OutputPath returns {output_directory}/{file_name_prefix}_{index}.{export_format}
func (c *Config) OutputPath(index int) string {
	return filepath.Join(c.OutputDirectory, fmt.Sprintf("%s_%d.%s", c.FileNamePrefix, index, c.ExportFormat))
}

// LocatorParams converts the mask settings for the region locator
func (c *Config) LocatorParams() analyzer.LocatorParams {
	return analyzer.LocatorParams{
		MaxSaturation:    uint8(c.Detection.Mask.MaxSaturation),
		MinValue:         uint8(c.Detection.Mask.MinValue),
		MinArea:          c.Detection.Mask.MinArea,
		MaxAnalysisWidth: c.Detection.MaxAnalysisWidth,
	}
}

// DetectorOptions converts the detection settings for analyzer.NewDetector
func (c *Config) DetectorOptions(capturer screen.Capturer) analyzer.Options {
	g := c.Detection.Geometric
	return analyzer.Options{
		Capturer: capturer,
		Geometric: analyzer.GeometricParams{
			CannyLow:          g.CannyLow,
			CannyHigh:         g.CannyHigh,
			HoughThreshold:    g.HoughThreshold,
			MinLineLength:     g.MinLineLength,
			MaxLineGap:        g.MaxLineGap,
			VerticalTolerance: g.VerticalTolerance,
		},
		TemplatePath:      c.Detection.TemplatePath,
		TemplateThreshold: c.Detection.TemplateThreshold,
		ManualBoundaries:  append([]int(nil), c.Detection.ManualBoundaries...),
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
