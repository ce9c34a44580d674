package screen

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Region is an axis-aligned rectangle in absolute screen coordinates
type Region struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// RegionFromRect converts an image rectangle. ok is false for empty rectangles.
func RegionFromRect(r image.Rectangle) (Region, bool) {
	r = r.Canon()
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return Region{}, false
	}
	return Region{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}, true
}

// Valid reports whether the region has a positive area
func (r Region) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

func (r Region) Left() int  { return r.X }
func (r Region) Right() int { return r.X + r.Width }

func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Region) CenterY() int {
	return r.Y + r.Height/2
}

func (r Region) String() string {
	return fmt.Sprintf("{x:%d y:%d w:%d h:%d}", r.X, r.Y, r.Width, r.Height)
}

// Frame is a captured image whose pixel (0,0) sits at Origin on screen.
// Frames are never mutated after capture.
type Frame struct {
	Image  *image.RGBA
	Origin image.Point
}

// NewFrame copies img into a zero-based RGBA buffer
func NewFrame(img image.Image, origin image.Point) *Frame {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return &Frame{Image: rgba, Origin: origin}
}

func (f *Frame) Width() int  { return f.Image.Rect.Dx() }
func (f *Frame) Height() int { return f.Image.Rect.Dy() }

// Region returns the screen area covered by the frame
func (f *Frame) Region() Region {
	return Region{X: f.Origin.X, Y: f.Origin.Y, Width: f.Width(), Height: f.Height()}
}

// Capturer grabs pixels from the screen
type Capturer interface {
	CaptureScreen(ctx context.Context) (*Frame, error)
	CaptureRegion(ctx context.Context, r Region) (*Frame, error)
}
