package analyzer

import (
	"context"
	"errors"
	"image"
	"image/color"

	"github.com/ivlev/segexport/internal/screen"
)

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

var (
	dark  = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	light = color.RGBA{R: 220, G: 220, B: 220, A: 255}
	ink   = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

// timelineScreenshot draws a 500x200 dark desktop with a light 400x60
// timeline at (50,100) and 3px dark separators at the given local columns
func timelineScreenshot(separators ...int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 500, 200))
	fillRect(img, img.Rect, dark)
	fillRect(img, image.Rect(50, 100, 450, 160), light)
	for _, x := range separators {
		fillRect(img, image.Rect(50+x, 100, 50+x+3, 160), ink)
	}
	return img
}

var timelineRegion = screen.Region{X: 50, Y: 100, Width: 400, Height: 60}

type failingCapturer struct{}

func (failingCapturer) CaptureScreen(context.Context) (*screen.Frame, error) {
	return nil, errors.New("display unavailable")
}

func (failingCapturer) CaptureRegion(context.Context, screen.Region) (*screen.Frame, error) {
	return nil, errors.New("display unavailable")
}

type countingCapturer struct {
	screen.Capturer
	calls int
}

func (c *countingCapturer) CaptureRegion(ctx context.Context, r screen.Region) (*screen.Frame, error) {
	c.calls++
	return c.Capturer.CaptureRegion(ctx, r)
}
