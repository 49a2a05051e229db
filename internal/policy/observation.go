package policy

import (
	"fmt"

	"gonum.org/v1/gonum/num/quat"

	"github.com/gait-works/gaitctl/internal/robot"
)

// ObservationSize is the fixed length of the policy input vector:
// base linear velocity (3), base angular velocity (3), projected gravity
// (3), velocity command (3), joint positions (12), joint velocities (12),
// last action (12).
const ObservationSize = 48

// gravityWorld is the world-frame "down" unit vector. Projecting it into
// the body frame assumes the world frame's vertical axis is anti-parallel
// to gravity, which holds only if the robot was level when its odometry
// frame was established at boot. A robot powered on on a slope gets a
// silently skewed gravity term; the original controller has the same
// limitation and it is deliberately not corrected here.
var gravityWorld = [3]float64{0, 0, -1}

// ObservationBuilder assembles the fixed-layout observation vector from a
// snapshot, the operator velocity reference, and the previous action. The
// actuator-to-policy joint permutation and the neutral offsets are resolved
// once at construction.
type ObservationBuilder struct {
	toPolicy []int
	offsets  []float64
}

// NewObservationBuilder resolves the joint permutation and neutral offsets
// for cfg.
func NewObservationBuilder(cfg *Config) (*ObservationBuilder, error) {
	toPolicy, err := FindOrdering(robot.JointOrder, JointOrder)
	if err != nil {
		return nil, fmt.Errorf("joint orderings disagree: %w", err)
	}
	offsets, err := OrderedValues(cfg.NeutralOffsets, JointOrder)
	if err != nil {
		return nil, err
	}
	return &ObservationBuilder{toPolicy: toPolicy, offsets: offsets}, nil
}

// rotateByInverse rotates a world-frame vector into the body frame given
// the body's world-frame orientation.
func rotateByInverse(q robot.Quaternion, v [3]float64) [3]float64 {
	rot := quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
	p := quat.Number{Imag: v[0], Jmag: v[1], Kmag: v[2]}
	// unit quaternion, so the conjugate is the inverse
	r := quat.Mul(quat.Mul(quat.Conj(rot), p), rot)
	return [3]float64{r.Imag, r.Jmag, r.Kmag}
}

// Build produces the 48-value observation vector for one control cycle.
func (b *ObservationBuilder) Build(snap *robot.Snapshot, vel [3]float64, lastAction []float64) ([]float64, error) {
	if len(snap.JointPositions) != robot.NumJoints || len(snap.JointVelocities) != robot.NumJoints {
		return nil, fmt.Errorf("snapshot has %d/%d joint values, want %d",
			len(snap.JointPositions), len(snap.JointVelocities), robot.NumJoints)
	}
	if len(lastAction) != robot.NumJoints {
		return nil, fmt.Errorf("last action has %d values, want %d", len(lastAction), robot.NumJoints)
	}

	obs := make([]float64, 0, ObservationSize)

	linear := rotateByInverse(snap.Rotation, snap.LinearVelocity)
	angular := rotateByInverse(snap.Rotation, snap.AngularVelocity)
	gravity := rotateByInverse(snap.Rotation, gravityWorld)
	obs = append(obs, linear[:]...)
	obs = append(obs, angular[:]...)
	obs = append(obs, gravity[:]...)
	obs = append(obs, vel[:]...)

	pos := Reorder(snap.JointPositions, b.toPolicy)
	for i := range pos {
		pos[i] -= b.offsets[i]
	}
	obs = append(obs, pos...)
	obs = append(obs, Reorder(snap.JointVelocities, b.toPolicy)...)
	obs = append(obs, lastAction...)

	return obs, nil
}
