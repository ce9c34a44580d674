package analyzer

import (
	"sort"

	"github.com/ivlev/segexport/internal/screen"
)

// NormalizeBoundaries sorts the candidates, drops those outside the region
// and merges values closer than tolerance, keeping the first of each cluster.
// The result is strictly ascending.
func NormalizeBoundaries(raw []int, region screen.Region, tolerance int) []int {
	if tolerance < 1 {
		tolerance = 1
	}

	sorted := make([]int, 0, len(raw))
	for _, x := range raw {
		if x >= region.Left() && x <= region.Right() {
			sorted = append(sorted, x)
		}
	}
	sort.Ints(sorted)

	out := []int{}
	for _, x := range sorted {
		if len(out) > 0 && x-out[len(out)-1] < tolerance {
			continue
		}
		out = append(out, x)
	}
	return out
}

// FallbackBoundaries describes one segment covering the whole timeline
func FallbackBoundaries(region screen.Region) []int {
	return []int{region.Left(), region.Right()}
}

// Segments splits the region at the given boundaries. Region edges are
// always segment edges; boundaries closer than tolerance to an edge or to
// each other do not start a new segment.
func Segments(region screen.Region, boundaries []int, tolerance int) []Segment {
	if !region.Valid() {
		return nil
	}
	if tolerance < 1 {
		tolerance = 1
	}

	left, right := region.Left(), region.Right()
	edges := []int{left}
	for _, b := range NormalizeBoundaries(boundaries, region, tolerance) {
		if b-edges[len(edges)-1] < tolerance || right-b < tolerance {
			continue
		}
		edges = append(edges, b)
	}
	edges = append(edges, right)

	segments := make([]Segment, 0, len(edges)-1)
	for i := 0; i+1 < len(edges); i++ {
		segments = append(segments, Segment{Start: edges[i], End: edges[i+1]})
	}
	return segments
}
