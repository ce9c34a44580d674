package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ivlev/segexport/internal/analyzer"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate reports every invalid field at once
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.OutputDirectory) == "" {
		add("output_directory", "must not be empty")
	}
	if strings.TrimSpace(c.FileNamePrefix) == "" {
		add("file_name_prefix", "must not be empty")
	} else if strings.ContainsAny(c.FileNamePrefix, `/\`) {
		add("file_name_prefix", "must not contain path separators")
	}
	if !slices.Contains(ExportFormats, c.ExportFormat) {
		add("export_format", "%q is not one of %s", c.ExportFormat, strings.Join(ExportFormats, "|"))
	}
	if !slices.Contains(Qualities, c.Quality) {
		add("quality", "%q is not one of %s", c.Quality, strings.Join(Qualities, "|"))
	}
	if !slices.Contains(Resolutions, c.Resolution) {
		add("resolution", "%q is not one of %s", c.Resolution, strings.Join(Resolutions, "|"))
	}

	if !c.KeyCombo.Export.Valid() {
		add("key_combo.export", "must not be empty")
	}
	if !c.KeyCombo.Confirm.Valid() {
		add("key_combo.confirm", "must not be empty")
	}
	if c.SelectAllFirst && !c.KeyCombo.SelectAll.Valid() {
		add("key_combo.select_all", "must not be empty when select_all_first is set")
	}

	if c.TimelineRegionHint != nil && !c.TimelineRegionHint.Valid() {
		add("timeline_region_hint", "width and height must be positive")
	}
	if c.Display < 0 {
		add("display", "must not be negative")
	}

	d := c.Detection
	switch analyzer.Mode(d.Mode) {
	case analyzer.ModeGeometric, "":
	case analyzer.ModeTemplate:
		if d.TemplatePath == "" {
			add("detection.template_path", "required in template mode")
		}
	case analyzer.ModeManual:
		if len(d.ManualBoundaries) == 0 {
			add("detection.manual_boundaries", "required in manual mode")
		}
	default:
		add("detection.mode", "%q is not one of geometric|template|manual", d.Mode)
	}
	if d.MergeTolerance < 1 {
		add("detection.merge_tolerance", "must be at least 1")
	}
	if d.MaxAnalysisWidth < 0 {
		add("detection.max_analysis_width", "must not be negative")
	}
	if d.TemplateThreshold <= 0 || d.TemplateThreshold > 1 {
		add("detection.template_threshold", "must be in (0, 1]")
	}
	if d.Mask.MaxSaturation < 0 || d.Mask.MaxSaturation > 255 {
		add("detection.mask.max_saturation", "must be in 0..255")
	}
	if d.Mask.MinValue < 0 || d.Mask.MinValue > 255 {
		add("detection.mask.min_value", "must be in 0..255")
	}
	if d.Geometric.CannyLow < 0 || d.Geometric.CannyHigh < d.Geometric.CannyLow {
		add("detection.geometric", "canny thresholds must satisfy 0 <= low <= high")
	}
	if d.Geometric.HoughThreshold < 1 || d.Geometric.MinLineLength < 1 || d.Geometric.MaxLineGap < 0 {
		add("detection.geometric", "hough threshold and min line length must be positive")
	}

	t := c.Timing
	if t.AfterClick < 0 || t.AfterExport < 0 || t.AfterType < 0 {
		add("timing", "delays must not be negative")
	}
	if t.ExportWait <= 0 {
		add("timing.export_wait", "must be positive")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
