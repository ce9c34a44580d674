package input

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type ActionKind string

const (
	ActionPress ActionKind = "press"
	ActionClick ActionKind = "click"
	ActionType  ActionKind = "type"
	ActionWait  ActionKind = "wait"
)

// Action is one recorded simulator call
type Action struct {
	Kind     ActionKind
	Combo    Combo
	X, Y     int
	Text     string
	Duration time.Duration
}

func (a Action) String() string {
	switch a.Kind {
	case ActionPress:
		return fmt.Sprintf("press %s", a.Combo)
	case ActionClick:
		return fmt.Sprintf("click %d,%d", a.X, a.Y)
	case ActionType:
		return fmt.Sprintf("type %q", a.Text)
	default:
		return fmt.Sprintf("wait %s", a.Duration)
	}
}

// DryRun records actions instead of sending them. Waits do not sleep
// unless RealWaits is set.
type DryRun struct {
	RealWaits bool

	mu      sync.Mutex
	actions []Action
	logger  zerolog.Logger
}

func NewDryRun(logger zerolog.Logger) *DryRun {
	return &DryRun{logger: logger}
}

func (d *DryRun) record(ctx context.Context, a Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	d.actions = append(d.actions, a)
	d.mu.Unlock()
	d.logger.Info().Str("action", a.String()).Msg("dry run")
	return nil
}

func (d *DryRun) PressCombo(ctx context.Context, combo Combo) error {
	if !combo.Valid() {
		return fmt.Errorf("press %q: empty key combo", combo)
	}
	return d.record(ctx, Action{Kind: ActionPress, Combo: combo})
}

func (d *DryRun) ClickAt(ctx context.Context, x, y int) error {
	return d.record(ctx, Action{Kind: ActionClick, X: x, Y: y})
}

func (d *DryRun) TypeText(ctx context.Context, text string) error {
	return d.record(ctx, Action{Kind: ActionType, Text: text})
}

func (d *DryRun) Wait(ctx context.Context, dur time.Duration) error {
	if err := d.record(ctx, Action{Kind: ActionWait, Duration: dur}); err != nil {
		return err
	}
	if d.RealWaits {
		return sleep(ctx, dur)
	}
	return nil
}

// Actions returns a copy of everything recorded so far
func (d *DryRun) Actions() []Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Action, len(d.actions))
	copy(out, d.actions)
	return out
}

// Count returns the number of recorded actions, optionally of given kinds
func (d *DryRun) Count(kinds ...ActionKind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(kinds) == 0 {
		return len(d.actions)
	}
	n := 0
	for _, a := range d.actions {
		for _, k := range kinds {
			if a.Kind == k {
				n++
				break
			}
		}
	}
	return n
}
