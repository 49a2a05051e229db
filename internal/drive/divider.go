package drive

import "time"

// signalTimeout bounds each individual wait on the state-stream signal. A
// state stream that goes quiet for this long is considered dead.
const signalTimeout = time.Second

// interSignalPause keeps consecutive waits from landing inside the same
// coalesced signal window.
const interSignalPause = time.Millisecond

// RateDivider derives the command clock from the state-stream signal: one
// Wait returns after `factor` signals, dividing a ~333 Hz state stream down
// to the ~55 Hz command rate at factor 6.
//
// This is the only coupling between the two clocks. A timeout on any single
// signal is terminal for the session: the divider never resynchronises or
// retries.
type RateDivider struct {
	ctx    *Context
	factor int
}

// NewRateDivider returns a divider that passes one tick in `factor` signals.
func NewRateDivider(ctx *Context, factor int) *RateDivider {
	return &RateDivider{ctx: ctx, factor: factor}
}

// Wait blocks until `factor` signals have been observed, each within
// signalTimeout, and reports whether all of them arrived in time. On the
// first timeout it gives up immediately with no partial tick.
func (d *RateDivider) Wait() bool {
	for count := 0; count < d.factor; count++ {
		if !d.ctx.WaitAndClear(signalTimeout) {
			return false
		}
		d.ctx.clock.Sleep(interSignalPause)
	}
	return true
}
