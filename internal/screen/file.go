package screen

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
)

// FileCapturer serves a saved screenshot as if it were the screen.
// Used for offline tuning of the detectors and in tests.
type FileCapturer struct {
	frame *Frame
}

func NewFileCapturer(path string, origin image.Point) (*FileCapturer, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return &FileCapturer{frame: NewFrame(img, origin)}, nil
}

// NewImageCapturer wraps an in-memory image
func NewImageCapturer(img image.Image, origin image.Point) *FileCapturer {
	return &FileCapturer{frame: NewFrame(img, origin)}
}

func (c *FileCapturer) CaptureScreen(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.frame, nil
}

func (c *FileCapturer) CaptureRegion(ctx context.Context, r Region) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !r.Valid() {
		return nil, fmt.Errorf("capture region %s: empty area", r)
	}
	local := r.Rect().Sub(c.frame.Origin)
	if !local.In(c.frame.Image.Rect) {
		return nil, fmt.Errorf("capture region %s: outside of screenshot %s", r, c.frame.Region())
	}
	sub := c.frame.Image.SubImage(local)
	return NewFrame(sub, r.Rect().Min), nil
}

// LoadImage decodes a PNG, JPEG or BMP file
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
