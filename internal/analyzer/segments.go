package analyzer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ivlev/segexport/internal/screen"
)

// SegmentDetector turns raw detector output into the boundary list of one
// export run. It never fails: any problem degrades to the whole-timeline
// fallback.
type SegmentDetector struct {
	detector  Detector
	tolerance int
	logger    zerolog.Logger
}

func NewSegmentDetector(detector Detector, tolerance int, logger zerolog.Logger) *SegmentDetector {
	return &SegmentDetector{detector: detector, tolerance: tolerance, logger: logger}
}

// Detect returns strictly ascending boundaries inside region, never empty
func (s *SegmentDetector) Detect(ctx context.Context, region screen.Region) (boundaries []int) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("panic", fmt.Sprint(r)).Msg("segment detection crashed, using whole timeline")
			boundaries = FallbackBoundaries(region)
		}
	}()

	raw, err := s.detector.Detect(ctx, region)
	if err != nil {
		s.logger.Warn().Err(err).Stringer("region", region).Msg("segment detection failed, using whole timeline")
		return FallbackBoundaries(region)
	}

	boundaries = NormalizeBoundaries(raw, region, s.tolerance)
	if len(boundaries) == 0 {
		s.logger.Info().Stringer("region", region).Msg("no separators found, using whole timeline")
		return FallbackBoundaries(region)
	}

	s.logger.Debug().Ints("raw", raw).Ints("boundaries", boundaries).Msg("separators detected")
	return boundaries
}
