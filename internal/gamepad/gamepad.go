package gamepad

import (
	"time"

	"github.com/gait-works/gaitctl/internal/monitoring"
	"github.com/gait-works/gaitctl/internal/timeutil"
)

// pollInterval is the input sampling period (~100 Hz), fast enough that the
// ~55 Hz command loop always sees a fresh reference. The loop is
// best-effort: a missed tick shifts the next sample, nothing more.
const pollInterval = 10 * time.Millisecond

// AxisSource delivers raw operator axis samples.
type AxisSource interface {
	// Axis returns the latest sample for the given axis index, in [-1, 1].
	Axis(index int) float64
	// Connected reports whether the input device is currently attached
	// and delivering data.
	Connected() bool
	// Close releases the device.
	Close() error
}

// VelocitySink receives the shaped 3-vector velocity reference
// (longitudinal, lateral, yaw).
type VelocitySink interface {
	PublishVelocity(v [3]float64)
}

// Gamepad polls an AxisSource at a fixed rate, shapes and median-filters
// each axis, and publishes the result as the operator velocity reference.
// It runs on its own goroutine between Start and Stop.
type Gamepad struct {
	src   AxisSource
	cfg   *Config
	sink  VelocitySink
	clock timeutil.Clock

	longitudinal *medianFilter
	lateral      *medianFilter
	yaw          *medianFilter

	stop chan struct{}
	done chan struct{}
}

// New builds the input loop. The configuration must already be validated.
func New(src AxisSource, cfg *Config, sink VelocitySink, clock timeutil.Clock) *Gamepad {
	return &Gamepad{
		src:          src,
		cfg:          cfg,
		sink:         sink,
		clock:        clock,
		longitudinal: newMedianFilter(cfg.FilterWindow),
		lateral:      newMedianFilter(cfg.FilterWindow),
		yaw:          newMedianFilter(cfg.FilterWindow),
	}
}

// Start launches the polling loop.
func (g *Gamepad) Start() {
	g.stop = make(chan struct{})
	g.done = make(chan struct{})
	go g.loop()
}

// Stop halts the polling loop and blocks until it has exited. The last
// published velocity reference remains in place.
func (g *Gamepad) Stop() {
	if g.stop == nil {
		return
	}
	close(g.stop)
	<-g.done
	g.stop = nil
}

func (g *Gamepad) loop() {
	defer close(g.done)

	tick := g.clock.NewTicker(pollInterval)
	defer tick.Stop()

	warned := false
	for {
		select {
		case <-g.stop:
			return
		case <-tick.C():
		}

		if !g.src.Connected() {
			// Degrade: keep the last reference, keep polling in case the
			// device comes back.
			if !warned {
				monitoring.Logf("gamepad: input device not available, holding last velocity reference")
				warned = true
			}
			continue
		}
		warned = false

		g.sink.PublishVelocity([3]float64{
			g.longitudinal.Push(Shape(g.src.Axis(g.cfg.Longitudinal.Index), g.cfg.Longitudinal)),
			g.lateral.Push(Shape(g.src.Axis(g.cfg.Lateral.Index), g.cfg.Lateral)),
			g.yaw.Push(Shape(g.src.Axis(g.cfg.Yaw.Index), g.cfg.Yaw)),
		})
	}
}
