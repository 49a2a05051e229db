package robot

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/gait-works/gaitctl/internal/timeutil"
)

func TestSimPowerCycle(t *testing.T) {
	s := NewSim(timeutil.SystemClock{})
	ctx := context.Background()

	if s.PoweredOn() {
		t.Fatal("fresh sim reports powered on")
	}
	if err := s.PowerOn(ctx); err != nil {
		t.Fatalf("PowerOn: %v", err)
	}
	if !s.PoweredOn() {
		t.Fatal("PowerOn did not take")
	}
	if err := s.Stand(ctx, 0.33); err != nil {
		t.Fatalf("Stand: %v", err)
	}
	if err := s.Activate(ctx); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !s.Activated() {
		t.Fatal("Activate did not take")
	}
	if err := s.PowerOff(ctx); err != nil {
		t.Fatalf("PowerOff: %v", err)
	}
	if s.PoweredOn() || s.Activated() {
		t.Error("PowerOff left power or joint control on")
	}
}

func TestSimActivateRequiresPower(t *testing.T) {
	s := NewSim(timeutil.SystemClock{})
	if err := s.Activate(context.Background()); err == nil {
		t.Fatal("Activate succeeded without power")
	}
}

func TestSimStateStream(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := timeutil.NewFakeClock(time.Unix(50, 0))
	s := NewSim(clock)

	var count atomic.Int64
	var last atomic.Pointer[Snapshot]
	if err := s.StartStateStream(func(snap *Snapshot) {
		last.Store(snap)
		count.Add(1)
	}); err != nil {
		t.Fatalf("StartStateStream: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for count.Load() < 3 {
		select {
		case <-deadline:
			t.Fatal("state stream produced no snapshots")
		default:
			clock.Advance(SimStateRate)
			time.Sleep(time.Millisecond)
		}
	}
	s.StopStateStream()

	snap := last.Load()
	if snap.Rotation != Identity() {
		t.Errorf("snapshot rotation = %+v, want identity", snap.Rotation)
	}
	if len(snap.JointPositions) != NumJoints || len(snap.JointVelocities) != NumJoints {
		t.Errorf("snapshot has %d/%d joint values", len(snap.JointPositions), len(snap.JointVelocities))
	}
	if snap.AcquisitionTime.Before(time.Unix(50, 0)) {
		t.Errorf("acquisition time %v predates the clock", snap.AcquisitionTime)
	}

	// Stop is idempotent.
	s.StopStateStream()
}

type queueSource struct {
	commands []*Command
	next     int
}

func (q *queueSource) Next() (*Command, bool) {
	if q.next >= len(q.commands) {
		return nil, false
	}
	cmd := q.commands[q.next]
	q.next++
	return cmd, true
}

func TestSimCommandStreamDrainsSource(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewSim(timeutil.SystemClock{})
	src := &queueSource{commands: []*Command{
		{SequenceKey: 1},
		{SequenceKey: 2},
		{SequenceKey: 3},
	}}
	if err := s.StartCommandStream(src); err != nil {
		t.Fatalf("StartCommandStream: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		if sent, _ := s.SentCommands(); sent == 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("command stream never drained the source")
		case <-time.After(time.Millisecond):
		}
	}
	s.StopCommandStream()

	sent, last := s.SentCommands()
	if sent != 3 || last == nil || last.SequenceKey != 3 {
		t.Errorf("sent = %d, last = %+v", sent, last)
	}

	s.StopCommandStream()
}

func TestSimErrorOverrides(t *testing.T) {
	s := NewSim(timeutil.SystemClock{})
	ctx := context.Background()

	s.PowerOnErr = context.DeadlineExceeded
	if err := s.PowerOn(ctx); err == nil {
		t.Error("PowerOn ignored its override")
	}
	s.PowerOnErr = nil
	if err := s.PowerOn(ctx); err != nil {
		t.Fatalf("PowerOn: %v", err)
	}

	s.StandErr = context.DeadlineExceeded
	if err := s.Stand(ctx, 0.33); err == nil {
		t.Error("Stand ignored its override")
	}
	s.ActivateErr = context.DeadlineExceeded
	if err := s.Activate(ctx); err == nil {
		t.Error("Activate ignored its override")
	}
	s.PowerOffErr = context.DeadlineExceeded
	if err := s.PowerOff(ctx); err == nil {
		t.Error("PowerOff ignored its override")
	}
}
