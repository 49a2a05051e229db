package drive

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gait-works/gaitctl/internal/monitoring"
	"github.com/gait-works/gaitctl/internal/robot"
	"github.com/gait-works/gaitctl/internal/timeutil"
)

// Generator produces one command per command-clock tick.
type Generator interface {
	Next() (*robot.Command, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func() (*robot.Command, error)

func (f GeneratorFunc) Next() (*robot.Command, error) { return f() }

// InputLoop is an optional operator-input thread the session starts before
// streaming and stops last.
type InputLoop interface {
	Start()
	Stop()
}

// Recorder is an optional sink for the commands a session produces.
type Recorder interface {
	RecordCommand(*robot.Command) error
}

// Options wires a Session.
type Options struct {
	Robot     robot.Robot
	Context   *Context
	Divider   *RateDivider
	Generator Generator

	// Input is started before streaming and stopped after all streams
	// have joined. May be nil when no input device is attached.
	Input InputLoop

	// Recorder receives every produced command. May be nil.
	Recorder Recorder

	// StandingHeight is the stand command's body height delta, taken from
	// the training config.
	StandingHeight float64

	Clock timeutil.Clock
}

// Session sequences one control session across its concurrent threads:
// power-on, stand, state stream, command stream, joint-control activation,
// and orderly shutdown. A Session runs once and is not reusable.
type Session struct {
	robot    robot.Robot
	ctx      *Context
	divider  *RateDivider
	gen      Generator
	input    InputLoop
	recorder Recorder
	height   float64
	clock    timeutil.Clock

	state        atomic.Int32
	stopOnce     sync.Once
	stopping     chan struct{}
	activateDone chan struct{}
}

// NewSession validates the wiring and returns a session in the Idle state.
func NewSession(o Options) (*Session, error) {
	if o.Robot == nil || o.Context == nil || o.Divider == nil || o.Generator == nil {
		return nil, fmt.Errorf("session requires a robot, context, divider and generator")
	}
	clock := o.Clock
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	return &Session{
		robot:        o.Robot,
		ctx:          o.Context,
		divider:      o.Divider,
		gen:          o.Generator,
		input:        o.Input,
		recorder:     o.Recorder,
		height:       o.StandingHeight,
		clock:        clock,
		stopping:     make(chan struct{}),
		activateDone: make(chan struct{}),
	}, nil
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
	monitoring.Logf("session: %s", st)
}

// beginStop moves the session into Stopping exactly once and releases
// everything waiting on the stop signal.
func (s *Session) beginStop() {
	s.stopOnce.Do(func() {
		s.setState(Stopping)
		close(s.stopping)
	})
}

// Run drives the session to completion: it returns once the robot has been
// powered off after an operator interrupt (context cancellation), a state
// stream timeout, or an activation failure. Power-on, stand and power-off
// errors are fatal and returned. No command is sent after Run returns.
func (s *Session) Run(ctx context.Context) error {
	if err := s.robot.PowerOn(ctx); err != nil {
		s.setState(Stopped)
		return fmt.Errorf("power on failed: %w", err)
	}
	s.setState(PoweredOn)

	if err := s.robot.Stand(ctx, s.height); err != nil {
		s.setState(Stopped)
		return fmt.Errorf("stand failed: %w", err)
	}
	s.setState(Standing)

	if s.input != nil {
		s.input.Start()
	}

	if err := s.robot.StartStateStream(s.ctx.PublishState); err != nil {
		s.stopInput()
		s.setState(Stopped)
		return fmt.Errorf("state stream failed to start: %w", err)
	}
	s.setState(StreamingState)

	if err := s.robot.StartCommandStream(&commandSource{s}); err != nil {
		s.robot.StopStateStream()
		s.stopInput()
		s.setState(Stopped)
		return fmt.Errorf("command stream failed to start: %w", err)
	}
	s.setState(StreamingCommands)

	go s.activate(ctx)

	select {
	case <-ctx.Done():
		monitoring.Logf("session: interrupt received")
	case <-s.stopping:
	}
	s.beginStop()

	// Join order matters: the command stream first so nothing new goes on
	// the wire, then activation, then the state stream, then input.
	s.robot.StopCommandStream()
	<-s.activateDone
	s.robot.StopStateStream()
	s.stopInput()

	if err := s.robot.PowerOff(context.WithoutCancel(ctx)); err != nil {
		s.setState(Stopped)
		return fmt.Errorf("power off failed: %w", err)
	}
	if s.robot.PoweredOn() {
		s.setState(Stopped)
		return fmt.Errorf("robot still reports powered on after power off")
	}
	monitoring.Logf("session: robot safely powered off")
	s.setState(Stopped)
	return nil
}

// stopInput halts the operator input loop. Every exit path out of Run that
// follows input.Start must pass through here.
func (s *Session) stopInput() {
	if s.input != nil {
		s.input.Stop()
	}
}

// activate waits for the first command to reach the wire, then enables
// joint-level control. Runs on its own goroutine; a failure stops the
// session.
func (s *Session) activate(ctx context.Context) {
	defer close(s.activateDone)

	for s.ctx.Commands() == 0 {
		select {
		case <-s.stopping:
			return
		default:
		}
		s.clock.Sleep(time.Millisecond)
	}

	monitoring.Logf("session: activating joint control")
	if err := s.robot.Activate(ctx); err != nil {
		monitoring.Logf("session: activation failed: %v", err)
		s.beginStop()
		return
	}
	// Only advance if nothing has started stopping in the meantime.
	s.state.CompareAndSwap(int32(StreamingCommands), int32(Activated))
}

// commandSource is the pull iterator the transport drains: each Next waits
// out the rate divider, then synthesizes one command. A false return is
// terminal for the stream.
type commandSource struct {
	s *Session
}

func (cs *commandSource) Next() (*robot.Command, bool) {
	select {
	case <-cs.s.stopping:
		return nil, false
	default:
	}

	if !cs.s.divider.Wait() {
		monitoring.Logf("session: state stream timed out, stopping command stream")
		cs.s.beginStop()
		return nil, false
	}

	cmd, err := cs.s.gen.Next()
	if err != nil {
		monitoring.Logf("session: command generation failed: %v", err)
		cs.s.beginStop()
		return nil, false
	}

	if cs.s.recorder != nil {
		if err := cs.s.recorder.RecordCommand(cmd); err != nil {
			monitoring.Logf("session: telemetry record failed: %v", err)
		}
	}
	return cmd, true
}
