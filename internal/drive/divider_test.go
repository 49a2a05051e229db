package drive

import (
	"testing"
	"time"

	"github.com/gait-works/gaitctl/internal/robot"
	"github.com/gait-works/gaitctl/internal/timeutil"
)

func TestWaitRequiresExactlyFactorSignals(t *testing.T) {
	ctx := NewContext(timeutil.SystemClock{})
	div := NewRateDivider(ctx, 3)

	done := make(chan bool, 1)
	go func() {
		done <- div.Wait()
	}()

	// Two of three signals: Wait must still be blocked.
	for i := 0; i < 2; i++ {
		ctx.PublishState(&robot.Snapshot{})
		time.Sleep(5 * time.Millisecond)
	}
	select {
	case <-done:
		t.Fatal("Wait returned before the third signal")
	default:
	}

	ctx.PublishState(&robot.Snapshot{})
	select {
	case ok := <-done:
		if !ok {
			t.Fatal("Wait failed despite all signals arriving in time")
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the third signal")
	}
}

func TestWaitTimesOutWithoutSignals(t *testing.T) {
	clock := timeutil.NewFakeClock(time.Unix(0, 0))
	ctx := NewContext(clock)
	div := NewRateDivider(ctx, 6)

	done := make(chan bool, 1)
	go func() {
		done <- div.Wait()
	}()

	for {
		select {
		case ok := <-done:
			if ok {
				t.Fatal("Wait succeeded with a silent state stream")
			}
			return
		default:
			clock.Advance(signalTimeout)
			time.Sleep(time.Millisecond)
		}
	}
}

func TestWaitFailsOnSingleMissedWindow(t *testing.T) {
	clock := timeutil.NewFakeClock(time.Unix(0, 0))
	ctx := NewContext(clock)
	div := NewRateDivider(ctx, 6)

	// Five prompt signals, then silence: the sixth window must fail the
	// whole wait with no partial tick.
	done := make(chan bool, 1)
	go func() {
		done <- div.Wait()
	}()

	for i := 0; i < 5; i++ {
		ctx.PublishState(&robot.Snapshot{})
		// Let the divider consume before the next publication so the
		// signals are not coalesced.
		time.Sleep(5 * time.Millisecond)
	}

	for {
		select {
		case ok := <-done:
			if ok {
				t.Fatal("Wait succeeded despite a missed signal window")
			}
			return
		default:
			clock.Advance(signalTimeout)
			time.Sleep(time.Millisecond)
		}
	}
}

func TestWaitPausesBetweenSignals(t *testing.T) {
	clock := timeutil.NewFakeClock(time.Unix(0, 0))
	ctx := NewContext(clock)
	div := NewRateDivider(ctx, 2)

	done := make(chan bool, 1)
	go func() {
		done <- div.Wait()
	}()

	ctx.PublishState(&robot.Snapshot{})
	time.Sleep(5 * time.Millisecond)
	ctx.PublishState(&robot.Snapshot{})

	select {
	case ok := <-done:
		if !ok {
			t.Fatal("Wait failed")
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return")
	}

	sleeps := clock.Sleeps()
	if len(sleeps) != 2 {
		t.Fatalf("recorded %d inter-signal pauses, want 2", len(sleeps))
	}
	for _, d := range sleeps {
		if d != interSignalPause {
			t.Errorf("pause = %v, want %v", d, interSignalPause)
		}
	}
}
