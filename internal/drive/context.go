// Package drive implements the real-time coordination layer between the
// robot's state stream, the policy, and the command stream: the shared
// control context, the rate divider that derives the command clock from the
// state clock, and the session lifecycle that sequences it all.
package drive

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gait-works/gaitctl/internal/robot"
	"github.com/gait-works/gaitctl/internal/timeutil"
)

// Context is the state shared between the session's goroutines. Each field
// has exactly one writer: the state-stream callback overwrites the latest
// snapshot and raises the tick signal, the input loop overwrites the
// velocity reference, and the command generator bumps the command counter.
// Reads are never consistent across fields: a reader may observe a snapshot
// newer than the velocity reference or vice versa. That staleness bound is
// accepted.
//
// Construct a fresh Context per session; contexts are never reused.
type Context struct {
	clock  timeutil.Clock
	signal chan struct{}

	stateMu sync.RWMutex
	latest  *robot.Snapshot

	velMu sync.RWMutex
	vel   [3]float64

	commands atomic.Uint64
}

// NewContext returns an empty control context driven by clock.
func NewContext(clock timeutil.Clock) *Context {
	return &Context{
		clock:  clock,
		signal: make(chan struct{}, 1),
	}
}

// PublishState stores the most recent snapshot and raises the tick signal.
// It never blocks, so it is safe to call from the high-rate state stream.
func (c *Context) PublishState(s *robot.Snapshot) {
	c.stateMu.Lock()
	c.latest = s
	c.stateMu.Unlock()

	select {
	case c.signal <- struct{}{}:
	default:
		// already raised; coalesce
	}
}

// LatestState returns the most recently published snapshot, or nil before
// the first one arrives.
func (c *Context) LatestState() *robot.Snapshot {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.latest
}

// PublishVelocity overwrites the operator velocity reference
// (longitudinal, lateral, yaw).
func (c *Context) PublishVelocity(v [3]float64) {
	c.velMu.Lock()
	c.vel = v
	c.velMu.Unlock()
}

// Velocity returns the current operator velocity reference.
func (c *Context) Velocity() [3]float64 {
	c.velMu.RLock()
	defer c.velMu.RUnlock()
	return c.vel
}

// WaitAndClear blocks until the tick signal is raised or timeout elapses,
// clearing the signal on success. It returns false on timeout.
func (c *Context) WaitAndClear(timeout time.Duration) bool {
	select {
	case <-c.signal:
		return true
	default:
	}
	select {
	case <-c.signal:
		return true
	case <-c.clock.After(timeout):
		return false
	}
}

// CommandSent records that one more command has been produced. Only the
// command-generation path calls this.
func (c *Context) CommandSent() {
	c.commands.Add(1)
}

// Commands returns how many commands have been produced this session.
func (c *Context) Commands() uint64 {
	return c.commands.Load()
}
