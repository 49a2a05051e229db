package robot

import "context"

// StateFunc receives each snapshot from the state stream. It runs on the
// stream's goroutine and must not block: the state stream arrives at several
// hundred hertz and a slow callback would back up the transport.
type StateFunc func(*Snapshot)

// CommandSource is the pull side of a command stream. The transport calls
// Next each time it is ready to send; a false return means the stream is
// finished and no further command will be produced. Next may block while the
// source waits for its tick.
type CommandSource interface {
	Next() (*Command, bool)
}

// Robot is the transport boundary to a physical or simulated quadruped. The
// real implementation wraps the vendor SDK's streaming clients; the session
// layer drives this interface and never sees the wire protocol.
//
// Stop methods block until the corresponding stream goroutine has exited, so
// once they return no further callback fires and no further command is sent.
type Robot interface {
	// PowerOn powers the actuators. Blocking; an error is fatal to the
	// session.
	PowerOn(ctx context.Context) error

	// Stand commands a stand and blocks until the robot is standing.
	// bodyHeight is the standing height delta in metres.
	Stand(ctx context.Context, bodyHeight float64) error

	// StartStateStream begins delivering snapshots to onState from a
	// dedicated goroutine until StopStateStream is called.
	StartStateStream(onState StateFunc) error

	// StopStateStream stops the state stream and joins its goroutine.
	StopStateStream()

	// StartCommandStream begins pulling commands from src on a dedicated
	// goroutine and sending them until src reports exhaustion or
	// StopCommandStream is called.
	StartCommandStream(src CommandSource) error

	// StopCommandStream stops the command stream and joins its goroutine.
	StopCommandStream()

	// Activate switches the robot into joint-level control. Valid only
	// once a command stream is live; the robot rejects activation before
	// it has received a first streamed command.
	Activate(ctx context.Context) error

	// PowerOff powers the actuators down gracefully (never an immediate
	// cut).
	PowerOff(ctx context.Context) error

	// PoweredOn reports whether the actuators are powered.
	PoweredOn() bool
}
