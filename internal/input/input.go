package input

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Simulator sends synthetic input to the foreground application.
// Implementations are synchronous: a nil error only means the event was
// emitted, not that the target application handled it.
type Simulator interface {
	PressCombo(ctx context.Context, combo Combo) error
	ClickAt(ctx context.Context, x, y int) error
	TypeText(ctx context.Context, text string) error
	Wait(ctx context.Context, d time.Duration) error
}

// Combo is a key chord. The last element is the key, the rest are modifiers.
type Combo []string

// ParseCombo accepts "ctrl+e" style strings
func ParseCombo(s string) (Combo, error) {
	var combo Combo
	for _, part := range strings.Split(s, "+") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			return nil, fmt.Errorf("invalid key combo %q", s)
		}
		combo = append(combo, part)
	}
	return combo, nil
}

// UnmarshalYAML takes either a list of keys or a "ctrl+e" string
func (c *Combo) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		combo, err := ParseCombo(node.Value)
		if err != nil {
			return err
		}
		*c = combo
		return nil
	case yaml.SequenceNode:
		var keys []string
		if err := node.Decode(&keys); err != nil {
			return err
		}
		combo := make(Combo, 0, len(keys))
		for _, k := range keys {
			k = strings.ToLower(strings.TrimSpace(k))
			if k == "" {
				return fmt.Errorf("line %d: empty key in combo", node.Line)
			}
			combo = append(combo, k)
		}
		*c = combo
		return nil
	default:
		return fmt.Errorf("line %d: key combo must be a string or a list", node.Line)
	}
}

func (c Combo) Key() string {
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1]
}

func (c Combo) Modifiers() []string {
	if len(c) < 2 {
		return nil
	}
	return c[:len(c)-1]
}

func (c Combo) Valid() bool {
	return len(c) > 0 && c.Key() != ""
}

func (c Combo) String() string {
	return strings.Join(c, "+")
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
