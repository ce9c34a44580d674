package analyzer

import (
	"image"

	"github.com/ivlev/segexport/internal/system"
)

// contour is one external contour: its bounding box and the number of
// pixels it encloses (holes included)
type contour struct {
	Rect image.Rectangle
	Area int
}

// toGrayscale converts an RGBA image into a pooled zero-based grayscale
// buffer. Callers hand it back with system.PutGray.
func toGrayscale(img *image.RGBA) *image.Gray {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	gray := system.GetGray(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		src := img.Pix[img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y):]
		dst := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			r := uint32(src[4*x])
			g := uint32(src[4*x+1])
			b := uint32(src[4*x+2])
			dst[x] = uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 16)
		}
	}

	return gray
}

// lightMask selects pixels with low saturation and high value in HSV terms
// (S and V scaled to 0..255). Hue is irrelevant for this heuristic.
func lightMask(img *image.RGBA, maxSaturation, minValue uint8) *image.Gray {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	mask := system.GetGray(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		src := img.Pix[img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y):]
		dst := mask.Pix[y*mask.Stride:]
		for x := 0; x < w; x++ {
			r, g, b := src[4*x], src[4*x+1], src[4*x+2]
			v := max(r, g, b)
			lo := min(r, g, b)

			// S = 255*(V-min)/V <= maxSaturation, kept in integers
			sat := int(v-lo)*255 <= int(maxSaturation)*int(v)
			if v >= minValue && sat {
				dst[x] = 255
			} else {
				dst[x] = 0
			}
		}
	}

	return mask
}

// externalContours finds the outermost contours of the white areas of a
// binary mask. Pixels that cannot be reached from outside the image through
// black pixels belong to the contour enclosing them.
func externalContours(mask *image.Gray) []contour {
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	set := func(x, y int) bool {
		return mask.Pix[y*mask.Stride+x] > 128
	}

	// Step 1: flood the background from the image border (4-connectivity)
	outside := make([]bool, w*h)
	stack := make([]image.Point, 0, 2*(w+h))
	seed := func(x, y int) {
		if !set(x, y) && !outside[y*w+x] {
			outside[y*w+x] = true
			stack = append(stack, image.Point{X: x, Y: y})
		}
	}
	for x := 0; x < w; x++ {
		seed(x, 0)
		seed(x, h-1)
	}
	for y := 0; y < h; y++ {
		seed(0, y)
		seed(w-1, y)
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.X > 0 {
			seed(p.X-1, p.Y)
		}
		if p.X < w-1 {
			seed(p.X+1, p.Y)
		}
		if p.Y > 0 {
			seed(p.X, p.Y-1)
		}
		if p.Y < h-1 {
			seed(p.X, p.Y+1)
		}
	}

	// Step 2: every 8-connected component of the remaining pixels is the
	// filled interior of one external contour
	visited := outside
	contours := []contour{}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if visited[y*w+x] {
				continue
			}
			contours = append(contours, floodFill(visited, w, h, x, y))
		}
	}

	return contours
}

// floodFill marks the 8-connected unvisited component containing
// (startX, startY) and returns its bounding rectangle and pixel count
func floodFill(visited []bool, w, h, startX, startY int) contour {
	minX, minY := startX, startY
	maxX, maxY := startX, startY
	area := 0

	visited[startY*w+startX] = true
	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		area++

		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := p.X+dx, p.Y+dy
				if nx < 0 || nx >= w || ny < 0 || ny >= h || visited[ny*w+nx] {
					continue
				}
				visited[ny*w+nx] = true
				stack = append(stack, image.Point{X: nx, Y: ny})
			}
		}
	}

	return contour{Rect: image.Rect(minX, minY, maxX+1, maxY+1), Area: area}
}
