package gamepad

import "sort"

// Shape maps one raw axis sample in [-1, 1] through the axis curve:
// inversion, deadband, then a linear remap of the remaining travel onto
// [min, max] output magnitude for the deflected direction.
func Shape(value float64, cfg AxisConfig) float64 {
	if cfg.Inverted {
		value = -value
	}

	switch {
	case value > -cfg.Deadband && value < cfg.Deadband:
		return 0
	case value > 0:
		slope := (cfg.MaxForward - cfg.MinForward) / (1 - cfg.Deadband)
		out := slope*value + cfg.MaxForward - slope
		return clamp(out, cfg.MinForward, cfg.MaxForward)
	default:
		slope := (cfg.MaxReverse - cfg.MinReverse) / (1 - cfg.Deadband)
		out := slope*value - (cfg.MaxReverse - slope)
		return clamp(out, -cfg.MaxReverse, -cfg.MinReverse)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// medianFilter is a fixed-window ring of recent samples used to reject
// salt-and-pepper noise from a flaky stick. The window starts zero-filled,
// matching a centred stick.
type medianFilter struct {
	ring []float64
	next int
}

func newMedianFilter(window int) *medianFilter {
	return &medianFilter{ring: make([]float64, window)}
}

// Push inserts a sample, evicting the oldest, and returns the median of the
// window. Even windows average the middle pair.
func (f *medianFilter) Push(v float64) float64 {
	f.ring[f.next] = v
	f.next = (f.next + 1) % len(f.ring)

	sorted := append([]float64(nil), f.ring...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
