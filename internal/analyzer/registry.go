package analyzer

import (
	"fmt"

	"github.com/ivlev/segexport/internal/screen"
)

// Options carries everything the detector variants may need
type Options struct {
	Capturer screen.Capturer

	Geometric GeometricParams

	TemplatePath      string
	TemplateThreshold float64

	ManualBoundaries []int
}

// NewDetector creates a detector based on the specified mode
func NewDetector(mode Mode, opts Options) (Detector, error) {
	switch mode {
	case ModeGeometric, "":
		if opts.Capturer == nil {
			return nil, fmt.Errorf("geometric detector requires a capturer")
		}
		if opts.Geometric == (GeometricParams{}) {
			opts.Geometric = DefaultGeometricParams()
		}
		return NewGeometricDetector(opts.Capturer, opts.Geometric), nil
	case ModeTemplate:
		if opts.Capturer == nil {
			return nil, fmt.Errorf("template detector requires a capturer")
		}
		if opts.TemplatePath == "" {
			return nil, fmt.Errorf("template detector requires a template image")
		}
		tmpl, err := screen.LoadImage(opts.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("load template: %w", err)
		}
		return NewTemplateDetector(opts.Capturer, tmpl, opts.TemplateThreshold), nil
	case ModeManual:
		if len(opts.ManualBoundaries) == 0 {
			return nil, fmt.Errorf("manual mode requires at least one boundary")
		}
		return NewManualDetector(opts.ManualBoundaries), nil
	default:
		return nil, fmt.Errorf("unknown detection mode: %s", mode)
	}
}
