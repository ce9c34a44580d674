package screen

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	return img
}

func TestRegionFromRect(t *testing.T) {
	r, ok := RegionFromRect(image.Rect(30, 40, 10, 20))
	require.True(t, ok)
	assert.Equal(t, Region{X: 10, Y: 20, Width: 20, Height: 20}, r)
	assert.Equal(t, 10, r.Left())
	assert.Equal(t, 30, r.Right())
	assert.Equal(t, 30, r.CenterY())

	_, ok = RegionFromRect(image.Rect(5, 5, 5, 9))
	assert.False(t, ok)
}

func TestNewFrameRebasesImage(t *testing.T) {
	src := gradient(50, 40).SubImage(image.Rect(10, 5, 30, 25))

	frame := NewFrame(src, image.Pt(110, 205))
	assert.Equal(t, image.Rect(0, 0, 20, 20), frame.Image.Rect)
	assert.Equal(t, Region{X: 110, Y: 205, Width: 20, Height: 20}, frame.Region())

	c := frame.Image.RGBAAt(0, 0)
	assert.Equal(t, uint8(10), c.R)
	assert.Equal(t, uint8(5), c.G)
}

func TestFileCapturerCropsRegion(t *testing.T) {
	capturer := NewImageCapturer(gradient(100, 80), image.Pt(1000, 500))

	frame, err := capturer.CaptureRegion(context.Background(), Region{X: 1020, Y: 530, Width: 10, Height: 5})
	require.NoError(t, err)
	assert.Equal(t, 10, frame.Width())
	assert.Equal(t, 5, frame.Height())
	assert.Equal(t, image.Pt(1020, 530), frame.Origin)

	c := frame.Image.RGBAAt(0, 0)
	assert.Equal(t, uint8(20), c.R)
	assert.Equal(t, uint8(30), c.G)
}

func TestFileCapturerRejectsBadRegions(t *testing.T) {
	capturer := NewImageCapturer(gradient(100, 80), image.Point{})
	ctx := context.Background()

	_, err := capturer.CaptureRegion(ctx, Region{X: 90, Y: 0, Width: 20, Height: 10})
	assert.Error(t, err)

	_, err = capturer.CaptureRegion(ctx, Region{X: 0, Y: 0, Width: 0, Height: 10})
	assert.Error(t, err)
}

func TestFileCapturerHonoursContext(t *testing.T) {
	capturer := NewImageCapturer(gradient(10, 10), image.Point{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := capturer.CaptureScreen(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFileCapturer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screen.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, gradient(64, 48)))
	require.NoError(t, f.Close())

	capturer, err := NewFileCapturer(path, image.Point{})
	require.NoError(t, err)

	frame, err := capturer.CaptureScreen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Region{Width: 64, Height: 48}, frame.Region())

	_, err = NewFileCapturer(filepath.Join(t.TempDir(), "missing.png"), image.Point{})
	assert.Error(t, err)
}
