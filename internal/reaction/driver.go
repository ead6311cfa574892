package reaction

import (
	"context"
	"time"
)

// StepDisplay shows presented symbols.
// Implementations must not block.
type StepDisplay interface {
	ShowStep(step int, sym Symbol, lit bool)
}

// Driver presents the sequence at an accelerating cadence.
type Driver struct {
	session *Session
	cadence Cadence
	display StepDisplay
}

// NewDriver creates a presentation driver for session.
func NewDriver(session *Session, cadence Cadence, display StepDisplay) *Driver {
	return &Driver{
		session: session,
		cadence: cadence,
		display: display,
	}
}

// Run presents symbols until the round ends or ctx is cancelled.
//
// It waits the start delay, activates the session, then alternates
// highlight and pause for each symbol. Once every symbol has been shown the
// player gets as many more slots as the lag limit allows to catch up;
// after that the round is lost as too slow.
//
// Run returns the terminal outcome it produced, or a Continuing outcome if
// it was cancelled or the round was ended by someone else.
func (d *Driver) Run(ctx context.Context) Outcome {
	if !sleep(ctx, d.cadence.StartDelay) {
		return Outcome{}
	}
	d.session.Activate()

	for {
		more, out := d.session.HasNextStep()
		if out.Terminal() {
			return out
		}
		if !more {
			break
		}

		step, sym, ok := d.session.NextStep()
		if !ok {
			break
		}

		d.show(step, sym, true)
		lit := sleep(ctx, d.cadence.Highlight(step))
		d.show(step, sym, false)
		if !lit || !sleep(ctx, d.cadence.Pause(step)) {
			return Outcome{}
		}
	}

	if d.session.Over() {
		return Outcome{}
	}

	grace := time.Duration(d.session.MaxLag()+1) * d.cadence.Slot(d.session.Len())
	if !sleep(ctx, grace) {
		return Outcome{}
	}
	return d.session.Expire()
}

func (d *Driver) show(step int, sym Symbol, lit bool) {
	if d.display != nil {
		d.display.ShowStep(step, sym, lit)
	}
}

// sleep waits for dur or until ctx is done. It reports whether the full
// duration elapsed.
func sleep(ctx context.Context, dur time.Duration) bool {
	if dur <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(dur)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
