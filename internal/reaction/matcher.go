package reaction

import (
	"context"
	"time"
)

// PressDisplay shows press acknowledgements and the running score.
// Implementations must not block.
type PressDisplay interface {
	AckPress(b Button, lit bool)
	ShowScore(score int)
}

// Matcher consumes button events and feeds them to the session.
type Matcher struct {
	session *Session
	presses <-chan PressEvent
	display PressDisplay
	timers  *HighlightTimers
	onLeave func()
}

// NewMatcher creates an input matcher reading from presses.
// onLeave, if set, is called for every leave gesture seen during the round.
func NewMatcher(session *Session, presses <-chan PressEvent, ackDuration time.Duration, display PressDisplay, onLeave func()) *Matcher {
	m := &Matcher{
		session: session,
		presses: presses,
		display: display,
		onLeave: onLeave,
	}
	m.timers = NewHighlightTimers(ackDuration, func(b Button, lit bool) {
		if m.display != nil {
			m.display.AckPress(b, lit)
		}
	})
	return m
}

// Run handles presses until the round ends, the input closes, or ctx is
// cancelled. It returns the terminal outcome it produced, if any.
func (m *Matcher) Run(ctx context.Context) Outcome {
	for {
		select {
		case <-ctx.Done():
			return Outcome{}
		case evt, ok := <-m.presses:
			if !ok {
				return Outcome{}
			}
			if out := m.Handle(evt); out.Terminal() {
				return out
			}
		}
	}
}

// Handle processes a single event.
func (m *Matcher) Handle(evt PressEvent) Outcome {
	if evt.IsLeave() {
		if m.onLeave != nil {
			m.onLeave()
		}
		return Outcome{}
	}
	if evt.Kind != Press || !evt.Valid() || !m.session.Active() {
		return Outcome{}
	}

	b := Button(evt.Button)
	m.timers.Trigger(b)

	out := m.session.Press(b)
	if !out.Terminal() && m.display != nil {
		m.display.ShowScore(m.session.Score())
	}
	return out
}

// Timers exposes the per-button highlight timers.
func (m *Matcher) Timers() *HighlightTimers {
	return m.timers
}

// Stop cancels pending highlight timers.
func (m *Matcher) Stop() {
	m.timers.StopAll()
}
