package analyzer

import (
	"context"
	"errors"

	"github.com/ivlev/segexport/internal/screen"
)

// ErrRegionNotFound is returned when no timeline-like area is visible
var ErrRegionNotFound = errors.New("timeline region not found")

// Mode selects how segment boundaries are detected
type Mode string

const (
	ModeGeometric Mode = "geometric"
	ModeTemplate  Mode = "template"
	ModeManual    Mode = "manual"
)

// Detector is the interface for boundary detection strategies.
// Detect returns raw absolute x candidates; they may be unsorted,
// duplicated or outside the region.
type Detector interface {
	Detect(ctx context.Context, region screen.Region) ([]int, error)
}

// Segment is the half-open interval [Start, End) of absolute x coordinates
type Segment struct {
	Start int
	End   int
}

func (s Segment) Width() int {
	return s.End - s.Start
}

// Anchor is the x coordinate clicked to select the segment
func (s Segment) Anchor() int {
	return s.Start + (s.End-s.Start)/2
}
