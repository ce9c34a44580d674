package analyzer

import (
	"image"

	"github.com/ivlev/segexport/internal/system"
)

// gradient directions, quantized to 45° sectors
const (
	dirHorizontal = iota // gradient along x, edge runs vertically
	dirDiagDown          // gradient towards (+x,+y) or (-x,-y)
	dirVertical          // gradient along y
	dirDiagUp            // gradient towards (+x,-y) or (-x,+y)
)

// canny produces a binary edge map (255 = edge) from a grayscale image using
// a 3x3 Sobel operator with L1 magnitude, non-maximum suppression and
// two-threshold hysteresis. The result comes from the gray pool.
func canny(gray *image.Gray, low, high int) *image.Gray {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	edges := system.GetGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return edges
	}

	px := func(x, y int) int {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return int(gray.Pix[y*gray.Stride+x])
	}

	mag := make([]int, w*h)
	dir := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x-1, y) - px(x-1, y+1)
			gy := px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1)

			ax, ay := abs(gx), abs(gy)
			mag[y*w+x] = ax + ay

			// tan(22.5°) ≈ 0.4142, tan(67.5°) ≈ 2.4142
			switch {
			case ay*10000 <= ax*4142:
				dir[y*w+x] = dirHorizontal
			case ay*10000 >= ax*24142:
				dir[y*w+x] = dirVertical
			case (gx < 0) == (gy < 0):
				dir[y*w+x] = dirDiagDown
			default:
				dir[y*w+x] = dirDiagUp
			}
		}
	}

	at := func(x, y int) int {
		if x < 0 || x >= w || y < 0 || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	const (
		none = iota
		weak
		strong
	)
	state := make([]uint8, w*h)
	stack := []image.Point{}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := mag[y*w+x]
			if m <= low {
				continue
			}

			var keep bool
			switch dir[y*w+x] {
			case dirHorizontal:
				keep = m > at(x-1, y) && m >= at(x+1, y)
			case dirVertical:
				keep = m > at(x, y-1) && m >= at(x, y+1)
			case dirDiagDown:
				keep = m > at(x-1, y-1) && m > at(x+1, y+1)
			case dirDiagUp:
				keep = m > at(x+1, y-1) && m > at(x-1, y+1)
			}
			if !keep {
				continue
			}

			if m > high {
				state[y*w+x] = strong
				stack = append(stack, image.Point{X: x, Y: y})
			} else {
				state[y*w+x] = weak
			}
		}
	}

	// Hysteresis: weak pixels survive only when connected to a strong one
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := p.X+dx, p.Y+dy
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				if state[ny*w+nx] == weak {
					state[ny*w+nx] = strong
					stack = append(stack, image.Point{X: nx, Y: ny})
				}
			}
		}
	}

	for y := 0; y < h; y++ {
		row := edges.Pix[y*edges.Stride:]
		for x := 0; x < w; x++ {
			if state[y*w+x] == strong {
				row[x] = 255
			} else {
				row[x] = 0
			}
		}
	}

	return edges
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
