package policy

import (
	"fmt"
	"time"

	"github.com/gait-works/gaitctl/internal/robot"
)

// Command validity window: a command expires this long after the snapshot
// it was computed from, and the robot may extrapolate a little past that.
const (
	commandWindow      = 100 * time.Millisecond
	extrapolationSlack = 5 * time.Millisecond
)

// rampStep is the per-cycle increment of the startup ramp: actuation
// authority grows linearly from rampStep on the first cycle to full scale
// on the tenth, avoiding a position discontinuity at stream start.
const rampStep = 0.1

// Inferencer is the opaque policy: a 48-value observation in, a 12-value
// action out. Implementations are expected to be side-effect free and to
// finish well inside one control cycle.
type Inferencer interface {
	Infer(observation []float64) ([]float64, error)
}

// ZeroPolicy is an Inferencer that always outputs the zero action, which
// drives every joint to its neutral offset. Useful for dry runs against the
// simulator.
type ZeroPolicy struct{}

func (ZeroPolicy) Infer(observation []float64) ([]float64, error) {
	return make([]float64, robot.NumJoints), nil
}

// ControlState is the slice of the shared control context the generator
// reads and writes.
type ControlState interface {
	// LatestState returns the most recent snapshot.
	LatestState() *robot.Snapshot
	// Velocity returns the operator velocity reference.
	Velocity() [3]float64
	// CommandSent records that one command has been produced.
	CommandSent()
}

// CommandGenerator synthesizes joint commands from policy output. Each Next
// call reads the shared context, builds an observation, runs the policy,
// and applies action scaling, the startup ramp, neutral offset restore and
// the policy-to-actuator reorder. Gains are attached to the first command
// only; the robot latches them.
//
// The generator is driven from the single command-stream goroutine and is
// the sole owner of the command sequence counter.
type CommandGenerator struct {
	state ControlState
	cfg   *Config
	infer Inferencer

	obs        *ObservationBuilder
	toActuator []int
	offsets    []float64 // neutral offsets, policy order
	stiffness  []float64 // actuator order
	damping    []float64 // actuator order

	lastAction []float64
	cycle      uint64 // starts at 1 on the first Next call
	seq        uint64

	// Joint positions and loads captured when the stream started, used by
	// hold commands.
	initPositions []float64
	initLoads     []float64
}

// NewCommandGenerator builds a generator for the given context, training
// config and policy.
func NewCommandGenerator(state ControlState, cfg *Config, infer Inferencer) (*CommandGenerator, error) {
	obs, err := NewObservationBuilder(cfg)
	if err != nil {
		return nil, err
	}
	toActuator, err := FindOrdering(JointOrder, robot.JointOrder)
	if err != nil {
		return nil, fmt.Errorf("joint orderings disagree: %w", err)
	}
	offsets, err := OrderedValues(cfg.NeutralOffsets, JointOrder)
	if err != nil {
		return nil, err
	}
	stiffness, err := OrderedValues(cfg.Stiffness, robot.JointOrder)
	if err != nil {
		return nil, err
	}
	damping, err := OrderedValues(cfg.Damping, robot.JointOrder)
	if err != nil {
		return nil, err
	}
	return &CommandGenerator{
		state:      state,
		cfg:        cfg,
		infer:      infer,
		obs:        obs,
		toActuator: toActuator,
		offsets:    offsets,
		stiffness:  stiffness,
		damping:    damping,
		lastAction: make([]float64, robot.NumJoints),
	}, nil
}

// captureInitialPose records the joint pose at the moment the stream
// starts, for hold commands. Called lazily so the captured pose is the one
// current when the first command is produced, not when the session was set
// up.
func (g *CommandGenerator) captureInitialPose(snap *robot.Snapshot) {
	if g.initPositions != nil {
		return
	}
	g.initPositions = append([]float64(nil), snap.JointPositions...)
	g.initLoads = append([]float64(nil), snap.JointLoads...)
}

// Next produces the next policy-driven command.
func (g *CommandGenerator) Next() (*robot.Command, error) {
	snap := g.state.LatestState()
	if snap == nil {
		return nil, fmt.Errorf("no state snapshot available")
	}
	g.captureInitialPose(snap)

	observation, err := g.obs.Build(snap, g.state.Velocity(), g.lastAction)
	if err != nil {
		return nil, err
	}
	action, err := g.infer.Infer(observation)
	if err != nil {
		return nil, fmt.Errorf("policy inference failed: %w", err)
	}
	if len(action) != robot.NumJoints {
		return nil, fmt.Errorf("policy produced %d values, want %d", len(action), robot.NumJoints)
	}

	g.cycle++
	ramp := RampFactor(g.cycle)

	targets := make([]float64, robot.NumJoints)
	for i, a := range action {
		targets[i] = a*g.cfg.ActionScale*ramp + g.offsets[i]
	}

	cmd := g.newCommand(Reorder(targets, g.toActuator), make([]float64, robot.NumJoints), snap)
	if g.cycle == 1 {
		cmd.Gains = &robot.Gains{Stiffness: g.stiffness, Damping: g.damping}
	}

	// the raw action, not the scaled target, feeds the next observation
	g.lastAction = action
	g.state.CommandSent()
	return cmd, nil
}

// NextHold produces a zero-motion command that pins the joints at the pose
// captured when the stream started. Same gain, deadline and sequencing
// rules as Next, with the platform default gains.
func (g *CommandGenerator) NextHold() (*robot.Command, error) {
	snap := g.state.LatestState()
	if snap == nil {
		return nil, fmt.Errorf("no state snapshot available")
	}
	g.captureInitialPose(snap)

	g.cycle++
	cmd := g.newCommand(
		append([]float64(nil), g.initPositions...),
		make([]float64, robot.NumJoints),
		snap,
	)
	cmd.Load = append([]float64(nil), g.initLoads...)
	if g.cycle == 1 {
		cmd.Gains = &robot.Gains{
			Stiffness: robot.DefaultStiffness,
			Damping:   robot.DefaultDamping,
		}
	}
	g.state.CommandSent()
	return cmd, nil
}

// newCommand stamps the deadline, extrapolation window and the next
// sequence key onto a command.
func (g *CommandGenerator) newCommand(pos, vel []float64, snap *robot.Snapshot) *robot.Command {
	g.seq++
	return &robot.Command{
		Position:      pos,
		Velocity:      vel,
		Load:          make([]float64, robot.NumJoints),
		EndTime:       snap.AcquisitionTime.Add(commandWindow),
		Extrapolation: extrapolationSlack,
		SequenceKey:   g.seq,
	}
}

// RampFactor returns the startup ramp multiplier for a 1-based cycle
// index: 0.1, 0.2, ... 0.9 for cycles 1-9, then 1.0 from cycle 10 on.
func RampFactor(cycle uint64) float64 {
	if f := rampStep * float64(cycle); f < 1 {
		return f
	}
	return 1
}
