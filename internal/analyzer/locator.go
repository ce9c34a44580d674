package analyzer

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"

	"github.com/ivlev/segexport/internal/screen"
	"github.com/ivlev/segexport/internal/system"
)

// LocatorParams tunes the light-background heuristic used to find the timeline
type LocatorParams struct {
	MaxSaturation    uint8 // HSV saturation ceiling, 0..255
	MinValue         uint8 // HSV value floor, 0..255
	MinArea          int   // Minimum enclosed area in analysis pixels
	MaxAnalysisWidth int   // Wider captures are downscaled first, 0 disables
}

func DefaultLocatorParams() LocatorParams {
	return LocatorParams{
		MaxSaturation:    30,
		MinValue:         200,
		MinArea:          1,
		MaxAnalysisWidth: 1600,
	}
}

// RegionLocator finds the on-screen rectangle containing the timeline
type RegionLocator struct {
	capturer screen.Capturer
	params   LocatorParams
	logger   zerolog.Logger
}

func NewRegionLocator(capturer screen.Capturer, params LocatorParams, logger zerolog.Logger) *RegionLocator {
	return &RegionLocator{capturer: capturer, params: params, logger: logger}
}

// Locate captures the screen and returns the bounding box of the largest
// light, unsaturated area. Every failure wraps ErrRegionNotFound.
func (l *RegionLocator) Locate(ctx context.Context) (region screen.Region, err error) {
	defer func() {
		if r := recover(); r != nil {
			region, err = screen.Region{}, fmt.Errorf("%w: analysis panic: %v", ErrRegionNotFound, r)
		}
		if err != nil {
			l.logger.Warn().Err(err).Msg("timeline lookup failed")
		}
	}()

	frame, err := l.capturer.CaptureScreen(ctx)
	if err != nil {
		return screen.Region{}, fmt.Errorf("%w: %v", ErrRegionNotFound, err)
	}

	region, err = l.LocateInFrame(frame)
	if err == nil {
		l.logger.Debug().Stringer("region", region).Msg("timeline located")
	}
	return region, err
}

// LocateInFrame runs the heuristic on an already captured frame
func (l *RegionLocator) LocateInFrame(frame *screen.Frame) (screen.Region, error) {
	img := frame.Image
	w, h := frame.Width(), frame.Height()
	if w == 0 || h == 0 {
		return screen.Region{}, fmt.Errorf("%w: empty capture", ErrRegionNotFound)
	}

	scaleX, scaleY := 1.0, 1.0
	if l.params.MaxAnalysisWidth > 0 && w > l.params.MaxAnalysisWidth {
		dw := l.params.MaxAnalysisWidth
		dh := max(1, h*dw/w)
		small := image.NewRGBA(image.Rect(0, 0, dw, dh))
		draw.ApproxBiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = small
		scaleX = float64(w) / float64(dw)
		scaleY = float64(h) / float64(dh)
	}

	mask := lightMask(img, l.params.MaxSaturation, l.params.MinValue)
	contours := externalContours(mask)
	system.PutGray(mask)

	best := -1
	for i, c := range contours {
		if c.Area < l.params.MinArea {
			continue
		}
		if best < 0 || c.Area > contours[best].Area {
			best = i
		}
	}
	if best < 0 {
		return screen.Region{}, fmt.Errorf("%w: no light area in %d contours", ErrRegionNotFound, len(contours))
	}

	rect := contours[best].Rect
	if scaleX != 1 || scaleY != 1 {
		rect = image.Rect(
			int(math.Floor(float64(rect.Min.X)*scaleX)),
			int(math.Floor(float64(rect.Min.Y)*scaleY)),
			int(math.Ceil(float64(rect.Max.X)*scaleX)),
			int(math.Ceil(float64(rect.Max.Y)*scaleY)),
		).Intersect(frame.Image.Rect)
	}

	region, ok := screen.RegionFromRect(rect.Add(frame.Origin))
	if !ok {
		return screen.Region{}, fmt.Errorf("%w: degenerate contour", ErrRegionNotFound)
	}
	return region, nil
}
