package analyzer

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/ivlev/segexport/internal/screen"
	"github.com/ivlev/segexport/internal/system"
)

// GeometricParams holds the edge and line detection settings
type GeometricParams struct {
	CannyLow          int
	CannyHigh         int
	HoughThreshold    int
	MinLineLength     int
	MaxLineGap        int
	VerticalTolerance int // max |x1-x2| for a line to count as a separator
}

func DefaultGeometricParams() GeometricParams {
	return GeometricParams{
		CannyLow:          50,
		CannyHigh:         150,
		HoughThreshold:    50,
		MinLineLength:     30,
		MaxLineGap:        10,
		VerticalTolerance: 5,
	}
}

// GeometricDetector treats near-vertical lines inside the timeline as
// segment separators
type GeometricDetector struct {
	capturer screen.Capturer
	params   GeometricParams
}

func NewGeometricDetector(capturer screen.Capturer, params GeometricParams) *GeometricDetector {
	return &GeometricDetector{capturer: capturer, params: params}
}

func (d *GeometricDetector) Detect(ctx context.Context, region screen.Region) ([]int, error) {
	frame, err := d.capturer.CaptureRegion(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("capture timeline: %w", err)
	}

	local := VerticalSeparators(frame.Image, d.params)
	xs := make([]int, 0, len(local))
	for _, x := range local {
		xs = append(xs, frame.Origin.X+x)
	}
	return xs, nil
}

// VerticalSeparators returns the local x offset of every near-vertical line
// found in img
func VerticalSeparators(img *image.RGBA, p GeometricParams) []int {
	gray := toGrayscale(img)
	edges := canny(gray, p.CannyLow, p.CannyHigh)
	system.PutGray(gray)

	lines := houghLinesP(edges, houghParams{
		Rho:           1,
		Theta:         math.Pi / 180,
		Threshold:     p.HoughThreshold,
		MinLineLength: p.MinLineLength,
		MaxLineGap:    p.MaxLineGap,
		Seed:          1,
	})
	system.PutGray(edges)

	xs := []int{}
	for _, l := range lines {
		if abs(l.X1-l.X2) < p.VerticalTolerance {
			xs = append(xs, l.X1)
		}
	}
	return xs
}
