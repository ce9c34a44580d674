package calibration

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// PointerLocator reads the current pointer position
type PointerLocator interface {
	Position() (x, y int, err error)
}

// Recorder asks the user to hover each landmark and samples the pointer
// after a grace delay.
type Recorder struct {
	Pointer PointerLocator
	Out     io.Writer
	Delay   time.Duration
	logger  zerolog.Logger
}

func NewRecorder(pointer PointerLocator, out io.Writer, logger zerolog.Logger) *Recorder {
	return &Recorder{Pointer: pointer, Out: out, Delay: 5 * time.Second, logger: logger}
}

// Record samples the given landmarks (all of them when none are given)
// into a new calibration.
func (r *Recorder) Record(ctx context.Context, names ...string) (*Calibration, error) {
	if len(names) == 0 {
		names = Landmarks
	}

	c := New()
	for _, name := range names {
		fmt.Fprintf(r.Out, "Move the pointer to %s, sampling in %s...\n", describe(name), r.Delay)

		timer := time.NewTimer(r.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		x, y, err := r.Pointer.Position()
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", name, err)
		}
		c.Set(name, Point{X: x, Y: y})
		r.logger.Info().Str("landmark", name).Int("x", x).Int("y", y).Msg("landmark recorded")
		fmt.Fprintf(r.Out, "  %s = (%d, %d)\n", name, x, y)
	}

	return c, nil
}

func describe(name string) string {
	return "the " + strings.ReplaceAll(name, "_", " ")
}
