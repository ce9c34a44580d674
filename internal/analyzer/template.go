package analyzer

import (
	"context"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/ivlev/segexport/internal/screen"
	"github.com/ivlev/segexport/internal/system"
)

// TemplateDetector finds separators by normalized cross-correlation against
// a reference image of one separator. The boundary is the horizontal centre
// of each match.
type TemplateDetector struct {
	capturer  screen.Capturer
	template  *image.Gray
	threshold float64
}

func NewTemplateDetector(capturer screen.Capturer, tmpl image.Image, threshold float64) *TemplateDetector {
	b := tmpl.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), tmpl, b.Min, draw.Src)
	if threshold <= 0 {
		threshold = 0.8
	}
	return &TemplateDetector{capturer: capturer, template: gray, threshold: threshold}
}

func (d *TemplateDetector) Detect(ctx context.Context, region screen.Region) ([]int, error) {
	frame, err := d.capturer.CaptureRegion(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("capture timeline: %w", err)
	}

	gray := toGrayscale(frame.Image)
	defer system.PutGray(gray)

	local, err := matchTemplate(gray, d.template, d.threshold)
	if err != nil {
		return nil, err
	}

	half := d.template.Rect.Dx() / 2
	xs := make([]int, 0, len(local))
	for _, x := range local {
		xs = append(xs, frame.Origin.X+x+half)
	}
	return xs, nil
}

// matchTemplate computes the correlation coefficient (TM_CCOEFF_NORMED) of
// tmpl at every position of img, takes the best score per column and returns
// the columns that are local maxima at or above threshold
func matchTemplate(img, tmpl *image.Gray, threshold float64) ([]int, error) {
	W, H := img.Rect.Dx(), img.Rect.Dy()
	tw, th := tmpl.Rect.Dx(), tmpl.Rect.Dy()
	if tw == 0 || th == 0 {
		return nil, fmt.Errorf("template is empty")
	}
	if tw > W || th > H {
		return nil, fmt.Errorf("template %dx%d larger than timeline %dx%d", tw, th, W, H)
	}

	n := float64(tw * th)
	tmean := 0.0
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			tmean += float64(tmpl.Pix[y*tmpl.Stride+x])
		}
	}
	tmean /= n

	tdev := make([]float64, tw*th)
	tnorm := 0.0
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			d := float64(tmpl.Pix[y*tmpl.Stride+x]) - tmean
			tdev[y*tw+x] = d
			tnorm += d * d
		}
	}
	if tnorm == 0 {
		return nil, fmt.Errorf("template has no contrast")
	}

	// integral images of the pixel values and their squares
	iw := W + 1
	sum := make([]float64, iw*(H+1))
	sq := make([]float64, iw*(H+1))
	for y := 0; y < H; y++ {
		rowSum, rowSq := 0.0, 0.0
		for x := 0; x < W; x++ {
			v := float64(img.Pix[y*img.Stride+x])
			rowSum += v
			rowSq += v * v
			sum[(y+1)*iw+x+1] = sum[y*iw+x+1] + rowSum
			sq[(y+1)*iw+x+1] = sq[y*iw+x+1] + rowSq
		}
	}
	box := func(t []float64, x, y int) float64 {
		return t[(y+th)*iw+x+tw] - t[y*iw+x+tw] - t[(y+th)*iw+x] + t[y*iw+x]
	}

	cols := W - tw + 1
	best := make([]float64, cols)
	for x := 0; x < cols; x++ {
		best[x] = -1
		for y := 0; y <= H-th; y++ {
			s := box(sum, x, y)
			variance := box(sq, x, y) - s*s/n
			if variance <= 1e-6 {
				continue
			}

			cross := 0.0
			for ty := 0; ty < th; ty++ {
				row := img.Pix[(y+ty)*img.Stride+x:]
				trow := tdev[ty*tw:]
				for tx := 0; tx < tw; tx++ {
					cross += trow[tx] * float64(row[tx])
				}
			}

			score := cross / math.Sqrt(tnorm*variance)
			if score > best[x] {
				best[x] = score
			}
		}
	}

	xs := []int{}
	for x := 0; x < cols; x++ {
		if best[x] < threshold {
			continue
		}
		if x > 0 && best[x-1] >= best[x] {
			continue
		}
		if x < cols-1 && best[x+1] > best[x] {
			continue
		}
		xs = append(xs, x)
	}
	return xs, nil
}
