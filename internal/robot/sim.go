package robot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gait-works/gaitctl/internal/monitoring"
	"github.com/gait-works/gaitctl/internal/timeutil"
)

// SimStateRate is the interval between simulated state snapshots, matching
// the ~333 Hz stream of the real robot.
const SimStateRate = 3 * time.Millisecond

var errNotPowered = errors.New("joint control requires motor power")

// Sim is an in-memory Robot for development and tests. Its state stream
// publishes a neutral standing pose at SimStateRate; its command stream
// drains the source and records what would have gone on the wire.
type Sim struct {
	clock timeutil.Clock

	// Error overrides for exercising failure paths in tests. When set,
	// the corresponding call returns the error instead of succeeding.
	PowerOnErr  error
	StandErr    error
	ActivateErr error
	PowerOffErr error

	mu        sync.Mutex
	powered   bool
	standing  bool
	activated bool
	sent      uint64
	last      *Command

	stateStop chan struct{}
	stateDone chan struct{}
	cmdStop   chan struct{}
	cmdDone   chan struct{}
}

// NewSim returns a simulated robot driven by clock.
func NewSim(clock timeutil.Clock) *Sim {
	return &Sim{clock: clock}
}

func (s *Sim) PowerOn(ctx context.Context) error {
	if s.PowerOnErr != nil {
		return s.PowerOnErr
	}
	s.mu.Lock()
	s.powered = true
	s.mu.Unlock()
	return nil
}

func (s *Sim) Stand(ctx context.Context, bodyHeight float64) error {
	if s.StandErr != nil {
		return s.StandErr
	}
	s.mu.Lock()
	s.standing = true
	s.mu.Unlock()
	monitoring.Logf("sim: standing at height %.3f", bodyHeight)
	return nil
}

// neutralSnapshot fabricates a level, motionless pose with all joints at
// zero, the same state the real robot reports when standing still.
func (s *Sim) neutralSnapshot() *Snapshot {
	return &Snapshot{
		Rotation:        Identity(),
		JointPositions:  make([]float64, NumJoints),
		JointVelocities: make([]float64, NumJoints),
		JointLoads:      make([]float64, NumJoints),
		AcquisitionTime: s.clock.Now(),
	}
}

func (s *Sim) StartStateStream(onState StateFunc) error {
	s.stateStop = make(chan struct{})
	s.stateDone = make(chan struct{})

	go func() {
		defer close(s.stateDone)
		tick := s.clock.NewTicker(SimStateRate)
		defer tick.Stop()
		for {
			select {
			case <-s.stateStop:
				return
			case <-tick.C():
				onState(s.neutralSnapshot())
			}
		}
	}()
	return nil
}

func (s *Sim) StopStateStream() {
	if s.stateStop == nil {
		return
	}
	close(s.stateStop)
	<-s.stateDone
	s.stateStop = nil
}

func (s *Sim) StartCommandStream(src CommandSource) error {
	s.cmdStop = make(chan struct{})
	s.cmdDone = make(chan struct{})

	go func() {
		defer close(s.cmdDone)
		for {
			select {
			case <-s.cmdStop:
				return
			default:
			}
			cmd, ok := src.Next()
			if !ok {
				monitoring.Logf("sim: command source exhausted")
				return
			}
			s.mu.Lock()
			s.sent++
			s.last = cmd
			s.mu.Unlock()
		}
	}()
	return nil
}

func (s *Sim) StopCommandStream() {
	if s.cmdStop == nil {
		return
	}
	close(s.cmdStop)
	<-s.cmdDone
	s.cmdStop = nil
}

func (s *Sim) Activate(ctx context.Context) error {
	if s.ActivateErr != nil {
		return s.ActivateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.powered {
		return errNotPowered
	}
	s.activated = true
	return nil
}

func (s *Sim) PowerOff(ctx context.Context) error {
	if s.PowerOffErr != nil {
		return s.PowerOffErr
	}
	s.mu.Lock()
	s.powered = false
	s.activated = false
	s.mu.Unlock()
	return nil
}

func (s *Sim) PoweredOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.powered
}

// Activated reports whether joint control has been enabled.
func (s *Sim) Activated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activated
}

// SentCommands returns how many commands the stream has consumed and the
// most recent one.
func (s *Sim) SentCommands() (uint64, *Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent, s.last
}
