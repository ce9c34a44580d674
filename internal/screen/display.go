package screen

import (
	"context"
	"fmt"

	"github.com/kbinani/screenshot"
)

// DisplayCapturer captures from a physical display
type DisplayCapturer struct {
	Display int
}

func NewDisplayCapturer(display int) *DisplayCapturer {
	return &DisplayCapturer{Display: display}
}

func (c *DisplayCapturer) CaptureScreen(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := screenshot.NumActiveDisplays()
	if c.Display < 0 || c.Display >= n {
		return nil, fmt.Errorf("display %d not available (%d active)", c.Display, n)
	}
	bounds := screenshot.GetDisplayBounds(c.Display)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", c.Display, err)
	}
	return NewFrame(img, bounds.Min), nil
}

func (c *DisplayCapturer) CaptureRegion(ctx context.Context, r Region) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !r.Valid() {
		return nil, fmt.Errorf("capture region %s: empty area", r)
	}
	img, err := screenshot.CaptureRect(r.Rect())
	if err != nil {
		return nil, fmt.Errorf("capture region %s: %w", r, err)
	}
	return NewFrame(img, r.Rect().Min), nil
}

// Displays returns the bounds of every active display
func Displays() []Region {
	n := screenshot.NumActiveDisplays()
	out := make([]Region, 0, n)
	for i := 0; i < n; i++ {
		if r, ok := RegionFromRect(screenshot.GetDisplayBounds(i)); ok {
			out = append(out, r)
		}
	}
	return out
}
