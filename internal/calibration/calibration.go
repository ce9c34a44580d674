package calibration

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/segexport/internal/screen"
)

const Version = "1"

// Landmark names understood by the driver and the recorder
const (
	TimelineTopLeft     = "timeline_top_left"
	TimelineBottomRight = "timeline_bottom_right"
	ExportButton        = "export_button"
)

// Landmarks lists every landmark in the order the recorder asks for them
var Landmarks = []string{TimelineTopLeft, TimelineBottomRight, ExportButton}

// Point is an absolute screen coordinate
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Calibration maps named screen landmarks to absolute coordinates
type Calibration struct {
	Version   string           `yaml:"version"`
	Landmarks map[string]Point `yaml:"landmarks"`
}

func New() *Calibration {
	return &Calibration{Version: Version, Landmarks: map[string]Point{}}
}

func (c *Calibration) Set(name string, p Point) {
	if c.Landmarks == nil {
		c.Landmarks = map[string]Point{}
	}
	c.Landmarks[name] = p
}

func (c *Calibration) Get(name string) (Point, bool) {
	p, ok := c.Landmarks[name]
	return p, ok
}

// TimelineRegion returns the rectangle spanned by the two timeline corners.
// ok is false when a corner is missing or the area is empty.
func (c *Calibration) TimelineRegion() (screen.Region, bool) {
	tl, ok := c.Get(TimelineTopLeft)
	if !ok {
		return screen.Region{}, false
	}
	br, ok := c.Get(TimelineBottomRight)
	if !ok {
		return screen.Region{}, false
	}
	if br.X <= tl.X || br.Y <= tl.Y {
		return screen.Region{}, false
	}
	return screen.Region{X: tl.X, Y: tl.Y, Width: br.X - tl.X, Height: br.Y - tl.Y}, true
}

// DefaultPath returns ~/.segexport/calibration.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "calibration.yaml"
	}
	return filepath.Join(home, ".segexport", "calibration.yaml")
}

// Write saves the calibration as YAML, creating parent directories
func Write(c *Calibration, path string) error {
	if c.Version == "" {
		c.Version = Version
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create calibration directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Read loads a calibration from a YAML file
func Read(path string) (*Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := New()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse calibration %s: %w", path, err)
	}
	if c.Version != Version {
		return nil, fmt.Errorf("calibration %s: unsupported version %q", path, c.Version)
	}
	if c.Landmarks == nil {
		c.Landmarks = map[string]Point{}
	}

	return c, nil
}
