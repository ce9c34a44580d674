package analyzer

import (
	"image"
	"math"
	"math/rand"
)

// LineSegment is a detected line in local image coordinates
type LineSegment struct {
	X1, Y1 int
	X2, Y2 int
}

// houghParams mirrors the classic progressive probabilistic Hough inputs
type houghParams struct {
	Rho           float64 // distance resolution in pixels
	Theta         float64 // angular resolution in radians
	Threshold     int     // minimum accumulator votes
	MinLineLength int
	MaxLineGap    int
	Seed          int64 // shuffle seed, fixed so results are reproducible
}

// houghLinesP extracts line segments from a binary edge map. Edge points are
// visited in a seeded random order; each point votes in the (rho, theta)
// accumulator and, once its strongest bin reaches the threshold, the line is
// traced through the edge map allowing gaps up to MaxLineGap. Traced points
// are removed from the map and, for accepted lines, from the accumulator.
func houghLinesP(edges *image.Gray, p houghParams) []LineSegment {
	w, h := edges.Rect.Dx(), edges.Rect.Dy()
	if w == 0 || h == 0 || p.Rho <= 0 || p.Theta <= 0 {
		return nil
	}

	numAngle := int(math.Round(math.Pi / p.Theta))
	numRho := int(math.Round(float64((w+h)*2+1) / p.Rho))
	cosT := make([]float64, numAngle)
	sinT := make([]float64, numAngle)
	for n := 0; n < numAngle; n++ {
		angle := float64(n) * p.Theta
		cosT[n] = math.Cos(angle) / p.Rho
		sinT[n] = math.Sin(angle) / p.Rho
	}
	rhoOffset := (numRho - 1) / 2
	accum := make([]int, numAngle*numRho)

	mask := make([]bool, w*h)
	voted := make([]bool, w*h)
	points := []image.Point{}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if edges.Pix[y*edges.Stride+x] > 0 {
				mask[y*w+x] = true
				points = append(points, image.Point{X: x, Y: y})
			}
		}
	}

	r := rand.New(rand.NewSource(p.Seed))
	r.Shuffle(len(points), func(i, j int) { points[i], points[j] = points[j], points[i] })

	vote := func(x, y, delta int) {
		for n := 0; n < numAngle; n++ {
			rho := int(math.Round(float64(x)*cosT[n]+float64(y)*sinT[n])) + rhoOffset
			if rho >= 0 && rho < numRho {
				accum[n*numRho+rho] += delta
			}
		}
	}

	lines := []LineSegment{}
	for _, pt := range points {
		// already consumed by another line
		if !mask[pt.Y*w+pt.X] {
			continue
		}

		vote(pt.X, pt.Y, 1)
		voted[pt.Y*w+pt.X] = true

		maxVal, maxN := p.Threshold-1, -1
		for n := 0; n < numAngle; n++ {
			rho := int(math.Round(float64(pt.X)*cosT[n]+float64(pt.Y)*sinT[n])) + rhoOffset
			if rho < 0 || rho >= numRho {
				continue
			}
			if v := accum[n*numRho+rho]; v > maxVal {
				maxVal, maxN = v, n
			}
		}
		if maxN < 0 {
			continue
		}

		// direction along the line: perpendicular to the normal (cos, sin)
		a := -math.Sin(float64(maxN) * p.Theta)
		b := math.Cos(float64(maxN) * p.Theta)
		var dx, dy float64
		if math.Abs(a) > math.Abs(b) {
			dx, dy = math.Copysign(1, a), b/math.Abs(a)
		} else {
			dx, dy = a/math.Abs(b), math.Copysign(1, b)
		}

		var ends [2]image.Point
		for k := 0; k < 2; k++ {
			sx, sy := dx, dy
			if k == 1 {
				sx, sy = -dx, -dy
			}
			ends[k] = pt
			gap := 0
			fx, fy := float64(pt.X), float64(pt.Y)
			for {
				x, y := int(math.Round(fx)), int(math.Round(fy))
				if x < 0 || x >= w || y < 0 || y >= h {
					break
				}
				if mask[y*w+x] {
					gap = 0
					ends[k] = image.Point{X: x, Y: y}
				} else {
					gap++
					if gap > p.MaxLineGap {
						break
					}
				}
				fx += sx
				fy += sy
			}
		}

		good := abs(ends[1].X-ends[0].X) >= p.MinLineLength ||
			abs(ends[1].Y-ends[0].Y) >= p.MinLineLength

		for k := 0; k < 2; k++ {
			sx, sy := dx, dy
			if k == 1 {
				sx, sy = -dx, -dy
			}
			fx, fy := float64(pt.X), float64(pt.Y)
			for {
				x, y := int(math.Round(fx)), int(math.Round(fy))
				if x < 0 || x >= w || y < 0 || y >= h {
					break
				}
				if mask[y*w+x] {
					if good && voted[y*w+x] {
						vote(x, y, -1)
						voted[y*w+x] = false
					}
					mask[y*w+x] = false
				}
				if x == ends[k].X && y == ends[k].Y {
					break
				}
				fx += sx
				fy += sy
			}
		}

		if good {
			lines = append(lines, LineSegment{X1: ends[1].X, Y1: ends[1].Y, X2: ends[0].X, Y2: ends[0].Y})
		}
	}

	return lines
}
