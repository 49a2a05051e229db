// Package robot defines the transport-facing contract for a joint-controlled
// quadruped: the sensor snapshot and actuation command wire types, the Robot
// interface the session drives, and a simulated implementation for running
// without hardware.
package robot

import "time"

// NumJoints is the degree-of-freedom count of the supported platform.
const NumJoints = 12

// JointOrder lists the joint names in actuator-native order, the order the
// robot reports joint state in and expects command arrays in. Legs front to
// back, left before right; hip-x, hip-y, knee within each leg.
var JointOrder = []string{
	"fl_hx", "fl_hy", "fl_kn",
	"fr_hx", "fr_hy", "fr_kn",
	"hl_hx", "hl_hy", "hl_kn",
	"hr_hx", "hr_hy", "hr_kn",
}

// Default joint gains used by hold-pose commands when no training
// configuration supplies them. One triple per leg: hip-x, hip-y, knee.
var (
	DefaultStiffness = []float64{
		624, 936, 286.44,
		624, 936, 286.44,
		624, 936, 286.44,
		624, 936, 286.44,
	}
	DefaultDamping = []float64{
		5.20, 5.20, 2.04,
		5.20, 5.20, 2.04,
		5.20, 5.20, 2.04,
		5.20, 5.20, 2.04,
	}
)

// Quaternion is a unit rotation, scalar-first.
type Quaternion struct {
	W, X, Y, Z float64
}

// Identity returns the no-rotation quaternion.
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// Snapshot is one sampled instant of robot state as delivered by the state
// stream. Velocities and orientation are expressed in the robot's world
// (odometry) frame; joint arrays are in JointOrder. A snapshot is immutable
// once published.
type Snapshot struct {
	// LinearVelocity and AngularVelocity of the base, world frame.
	LinearVelocity  [3]float64
	AngularVelocity [3]float64

	// Rotation is the orientation of the body in the world frame.
	Rotation Quaternion

	// Per-joint state, actuator-native order.
	JointPositions  []float64
	JointVelocities []float64
	JointLoads      []float64

	// AcquisitionTime is when the sample was taken on the robot.
	AcquisitionTime time.Time
}

// Gains carries per-joint proportional (stiffness) and derivative (damping)
// position-control gains, actuator-native order. The robot latches the last
// gains it was sent, so a stream only needs to attach them once.
type Gains struct {
	Stiffness []float64
	Damping   []float64
}

// Command is one outgoing joint-level actuation instruction. Target arrays
// are in actuator-native order. On the wire the deadline travels as
// seconds+nanos and the extrapolation window as a duration; both map
// losslessly onto the Go types used here. A command is immutable once built.
type Command struct {
	Position []float64
	Velocity []float64
	Load     []float64

	// Gains is non-nil on the first command of a stream only.
	Gains *Gains

	// EndTime is the deadline after which the robot must not act on this
	// command.
	EndTime time.Time

	// Extrapolation is how far past EndTime the robot may extrapolate the
	// trajectory.
	Extrapolation time.Duration

	// SequenceKey strictly increases across the life of a stream. It is
	// never reused and never decreases.
	SequenceKey uint64
}
