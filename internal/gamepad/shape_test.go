package gamepad

import (
	"math"
	"testing"
)

var walkAxis = AxisConfig{Deadband: 0.2, MinForward: 0.25, MaxForward: 1, MinReverse: 0.25, MaxReverse: 1}

func TestShapeDeadbandMapsToZero(t *testing.T) {
	for _, v := range []float64{0, 0.05, -0.05, 0.199, -0.199} {
		if got := Shape(v, walkAxis); got != 0 {
			t.Errorf("Shape(%v) = %v, want 0", v, got)
		}
	}
}

func TestShapeForwardCurve(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0.2, 0.25}, // deadband edge lands on the minimum speed
		{0.6, 0.625},
		{0.625, 0.6484375},
		{1, 1},
	}
	for _, c := range cases {
		if got := Shape(c.in, walkAxis); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("Shape(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestShapeReverseMirrorsForward(t *testing.T) {
	for _, v := range []float64{0.2, 0.3, 0.625, 0.9, 1} {
		fwd := Shape(v, walkAxis)
		rev := Shape(-v, walkAxis)
		if math.Abs(fwd+rev) > 1e-12 {
			t.Errorf("Shape(%v) = %v but Shape(%v) = %v, want mirrored", v, fwd, -v, rev)
		}
	}
	if got := Shape(-1, walkAxis); got != -1 {
		t.Errorf("Shape(-1) = %v, want -1", got)
	}
}

func TestShapeIsMonotone(t *testing.T) {
	prev := Shape(-1, walkAxis)
	for v := -0.99; v <= 1.0; v += 0.01 {
		got := Shape(v, walkAxis)
		if got < prev {
			t.Fatalf("Shape(%v) = %v dropped below %v", v, got, prev)
		}
		prev = got
	}
}

func TestShapeInverts(t *testing.T) {
	cfg := walkAxis
	cfg.Inverted = true
	if got := Shape(1, cfg); got != -1 {
		t.Errorf("Shape(1, inverted) = %v, want -1", got)
	}
	if got := Shape(-0.625, cfg); math.Abs(got-0.6484375) > 1e-12 {
		t.Errorf("Shape(-0.625, inverted) = %v, want 0.6484375", got)
	}
}

func TestShapeClampsOutOfRangeSamples(t *testing.T) {
	if got := Shape(1.5, walkAxis); got != 1 {
		t.Errorf("Shape(1.5) = %v, want clamp to 1", got)
	}
	if got := Shape(-1.5, walkAxis); got != -1 {
		t.Errorf("Shape(-1.5) = %v, want clamp to -1", got)
	}
}

func TestShapeZeroMinimumPassesThroughDeadbandEdge(t *testing.T) {
	cfg := AxisConfig{Deadband: 0.2, MinForward: 0, MaxForward: 1, MinReverse: 0, MaxReverse: 1}
	if got := Shape(0.2, cfg); got != 0 {
		t.Errorf("Shape(0.2) = %v, want 0 at the deadband edge", got)
	}
	if got := Shape(0.6, cfg); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Shape(0.6) = %v, want 0.5", got)
	}
}

func TestMedianFilterStartsCentred(t *testing.T) {
	f := newMedianFilter(3)
	if got := f.Push(1); got != 0 {
		t.Errorf("first push = %v, want 0 from the zero-filled window", got)
	}
	if got := f.Push(1); got != 1 {
		t.Errorf("second push = %v, want 1", got)
	}
}

func TestMedianFilterRejectsOutlier(t *testing.T) {
	f := newMedianFilter(3)
	f.Push(0.5)
	f.Push(0.5)
	if got := f.Push(10); got != 0.5 {
		t.Errorf("median with outlier = %v, want 0.5", got)
	}
}

func TestMedianFilterEvenWindowAveragesMiddlePair(t *testing.T) {
	f := newMedianFilter(4)
	for _, v := range []float64{1, 2, 3} {
		f.Push(v)
	}
	if got := f.Push(4); got != 2.5 {
		t.Errorf("even-window median = %v, want 2.5", got)
	}
}

func TestMedianFilterWindowOnePassesThrough(t *testing.T) {
	f := newMedianFilter(1)
	for _, v := range []float64{0.1, -0.4, 0.9} {
		if got := f.Push(v); got != v {
			t.Errorf("Push(%v) = %v, want pass-through", v, got)
		}
	}
}

func TestMedianFilterEvictsOldest(t *testing.T) {
	f := newMedianFilter(3)
	f.Push(1)
	f.Push(2)
	f.Push(3)
	// The initial 1 ages out here.
	if got := f.Push(4); got != 3 {
		t.Errorf("median after eviction = %v, want 3", got)
	}
}
