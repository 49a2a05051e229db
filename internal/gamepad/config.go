// Package gamepad turns raw operator input into the smoothed velocity
// reference the policy consumes: per-axis inversion, deadband and curve
// shaping, median filtering, and a fixed-rate polling loop. Axis samples
// come from an AxisSource, which may be a serial RC receiver or a scripted
// source for tests.
package gamepad

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// AxisConfig shapes one input axis.
type AxisConfig struct {
	// Index selects the source axis feeding this output.
	Index int
	// Inverted negates the raw sample before shaping.
	Inverted bool
	// Deadband is the fraction of stick travel mapped to zero, in [0, 1).
	Deadband float64
	// Output magnitude at the forward edge of the deadband and at full
	// forward deflection.
	MinForward float64
	MaxForward float64
	// Same bounds for the reverse direction (output is negated).
	MinReverse float64
	MaxReverse float64
}

// Validate checks the axis bounds.
func (c AxisConfig) Validate() error {
	if c.Deadband < 0 || c.Deadband >= 1 {
		return fmt.Errorf("deadband must be in [0, 1), got %v", c.Deadband)
	}
	if c.MinForward < 0 || c.MinForward > c.MaxForward {
		return fmt.Errorf("need 0 <= min forward (%v) <= max forward (%v)", c.MinForward, c.MaxForward)
	}
	if c.MinReverse < 0 || c.MinReverse > c.MaxReverse {
		return fmt.Errorf("need 0 <= min reverse (%v) <= max reverse (%v)", c.MinReverse, c.MaxReverse)
	}
	return nil
}

// Config holds the shaping setup for the three command axes and the
// median filter window.
type Config struct {
	Longitudinal AxisConfig
	Lateral      AxisConfig
	Yaw          AxisConfig
	// FilterWindow is the median filter length per axis, >= 1.
	FilterWindow int
}

// DefaultConfig returns a mapping for a common dual-stick controller:
// left stick drives, right stick yaws, 20% deadband, walk speeds up to
// 1 m/s.
func DefaultConfig() *Config {
	return &Config{
		Longitudinal: AxisConfig{Index: 1, Inverted: true, Deadband: 0.2, MinForward: 0.25, MaxForward: 1, MinReverse: 0.25, MaxReverse: 1},
		Lateral:      AxisConfig{Index: 0, Inverted: true, Deadband: 0.2, MinForward: 0.25, MaxForward: 1, MinReverse: 0.25, MaxReverse: 1},
		Yaw:          AxisConfig{Index: 3, Inverted: true, Deadband: 0.2, MinForward: 0, MaxForward: 1, MinReverse: 0, MaxReverse: 1},
		FilterWindow: 10,
	}
}

// Validate checks the whole shaping configuration.
func (c *Config) Validate() error {
	for _, ax := range []struct {
		name string
		cfg  AxisConfig
	}{
		{"forward_backward", c.Longitudinal},
		{"lateral", c.Lateral},
		{"yaw", c.Yaw},
	} {
		if err := ax.cfg.Validate(); err != nil {
			return fmt.Errorf("axis %s: %w", ax.name, err)
		}
	}
	if c.FilterWindow < 1 {
		return fmt.Errorf("median filter window must be >= 1, got %d", c.FilterWindow)
	}
	return nil
}

// configFile is the on-disk shaping schema. A shared deadband applies to
// all axes; forward and backward speeds may differ while lateral and yaw
// are symmetric.
type configFile struct {
	Deadband     float64 `json:"deadband" yaml:"deadband"`
	MedianFilter struct {
		WindowSize int `json:"window_size" yaml:"window_size"`
	} `json:"median_filter" yaml:"median_filter"`
	AxisMapping map[string]struct {
		Index    int  `json:"index" yaml:"index"`
		Inverted bool `json:"inverted" yaml:"inverted"`
	} `json:"axis_mapping" yaml:"axis_mapping"`
	Forward  velocityRange `json:"forward" yaml:"forward"`
	Backward velocityRange `json:"backward" yaml:"backward"`
	Lateral  velocityRange `json:"lateral" yaml:"lateral"`
	Yaw      velocityRange `json:"yaw" yaml:"yaw"`
}

type velocityRange struct {
	Min float64 `json:"min_velocity" yaml:"min_velocity"`
	Max float64 `json:"max_velocity" yaml:"max_velocity"`
}

// LoadConfig reads a shaping file (.json, .yaml or .yml) and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gamepad config: %w", err)
	}

	var f configFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		return nil, fmt.Errorf("unsupported gamepad config extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse gamepad config %s: %w", path, err)
	}

	axis := func(name string) (int, bool, error) {
		m, ok := f.AxisMapping[name]
		if !ok {
			return 0, false, fmt.Errorf("gamepad config missing axis_mapping entry %q", name)
		}
		return m.Index, m.Inverted, nil
	}

	fbIndex, fbInverted, err := axis("forward_backward")
	if err != nil {
		return nil, err
	}
	latIndex, latInverted, err := axis("lateral")
	if err != nil {
		return nil, err
	}
	yawIndex, yawInverted, err := axis("yaw")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Longitudinal: AxisConfig{
			Index: fbIndex, Inverted: fbInverted, Deadband: f.Deadband,
			MinForward: f.Forward.Min, MaxForward: f.Forward.Max,
			MinReverse: f.Backward.Min, MaxReverse: f.Backward.Max,
		},
		Lateral: AxisConfig{
			Index: latIndex, Inverted: latInverted, Deadband: f.Deadband,
			MinForward: f.Lateral.Min, MaxForward: f.Lateral.Max,
			MinReverse: f.Lateral.Min, MaxReverse: f.Lateral.Max,
		},
		Yaw: AxisConfig{
			Index: yawIndex, Inverted: yawInverted, Deadband: f.Deadband,
			MinForward: f.Yaw.Min, MaxForward: f.Yaw.Max,
			MinReverse: f.Yaw.Min, MaxReverse: f.Yaw.Max,
		},
		FilterWindow: f.MedianFilter.WindowSize,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gamepad config %s: %w", path, err)
	}
	return cfg, nil
}
