package input

import (
	"context"
	"fmt"
	"time"

	"github.com/go-vgo/robotgo"
	"github.com/rs/zerolog"
)

// Robot drives the real keyboard and pointer through robotgo
type Robot struct {
	// pause between pointer move and click
	ClickDelay time.Duration
	logger     zerolog.Logger
}

func NewRobot(logger zerolog.Logger) *Robot {
	return &Robot{ClickDelay: 50 * time.Millisecond, logger: logger}
}

func (r *Robot) PressCombo(ctx context.Context, combo Combo) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !combo.Valid() {
		return fmt.Errorf("press %q: empty key combo", combo)
	}
	defer recoverNative("press "+combo.String(), &err)

	r.logger.Debug().Stringer("combo", combo).Msg("press")
	if mods := combo.Modifiers(); len(mods) > 0 {
		err = robotgo.KeyTap(combo.Key(), mods)
	} else {
		err = robotgo.KeyTap(combo.Key())
	}
	if err != nil {
		return fmt.Errorf("press %s: %w", combo, err)
	}
	return nil
}

func (r *Robot) ClickAt(ctx context.Context, x, y int) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer recoverNative(fmt.Sprintf("click %d,%d", x, y), &err)

	r.logger.Debug().Int("x", x).Int("y", y).Msg("click")
	robotgo.Move(x, y)
	if err := sleep(ctx, r.ClickDelay); err != nil {
		return err
	}
	robotgo.Click("left")
	return nil
}

func (r *Robot) TypeText(ctx context.Context, text string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer recoverNative("type text", &err)

	r.logger.Debug().Str("text", text).Msg("type")
	robotgo.TypeStr(text)
	return nil
}

func (r *Robot) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

// Position returns the current pointer location
func (r *Robot) Position() (x, y int, err error) {
	defer recoverNative("read pointer", &err)
	x, y = robotgo.Location()
	return x, y, nil
}

// recoverNative turns a panic from the native layer into an error
func recoverNative(op string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: input backend panic: %v", op, r)
	}
}
