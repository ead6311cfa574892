package duel

import (
	"sync"
	"time"

	"github.com/vovakirdan/reaction-duel/internal/reaction"
)

// Event is a display update emitted by a running match.
type Event interface {
	matchEvent()
}

// WaitingForPeerEvent is sent after the local seed went out.
type WaitingForPeerEvent struct {
	LocalSeed uint32
}

func (WaitingForPeerEvent) matchEvent() {}

// RoundStartingEvent is sent once the shared seed is known.
type RoundStartingEvent struct {
	SharedSeed uint32
	Length     int
	StartDelay time.Duration
}

func (RoundStartingEvent) matchEvent() {}

// StepEvent lights or unlights a presented symbol.
type StepEvent struct {
	Step   int
	Symbol reaction.Symbol
	Lit    bool
}

func (StepEvent) matchEvent() {}

// PressAckEvent toggles the highlight acknowledging a press.
type PressAckEvent struct {
	Button reaction.Button
	Lit    bool
}

func (PressAckEvent) matchEvent() {}

// ScoreEvent carries the running score after a correct press.
type ScoreEvent struct {
	Score int
}

func (ScoreEvent) matchEvent() {}

// RemoteFinishedEvent is sent when the peer reports its score mid-round.
type RemoteFinishedEvent struct {
	Score uint32
}

func (RemoteFinishedEvent) matchEvent() {}

// RoundOverEvent is sent when the local round ends.
type RoundOverEvent struct {
	Outcome reaction.Outcome
}

func (RoundOverEvent) matchEvent() {}

// WaitingEvent is sent while the local side waits for the peer's score.
type WaitingEvent struct {
	LocalScore int
}

func (WaitingEvent) matchEvent() {}

// NoticeEvent carries a short status line for the player.
type NoticeEvent struct {
	Message string
}

func (NoticeEvent) matchEvent() {}

// MatchOverEvent is the last event of a match.
type MatchOverEvent struct {
	Result Result
}

func (MatchOverEvent) matchEvent() {}

// emitter is a non-blocking event stream. It implements the round's
// display interfaces so the driver and matcher can feed it directly.
type emitter struct {
	mu     sync.RWMutex
	closed bool
	ch     chan Event
}

func newEmitter(size int) *emitter {
	if size < 1 {
		size = 64
	}
	return &emitter{ch: make(chan Event, size)}
}

// Send emits evt, dropping the oldest queued event if the buffer is full.
func (e *emitter) Send(evt Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return
	}

	pushDropOldest(e.ch, evt)
}

func (e *emitter) Events() <-chan Event {
	return e.ch
}

func (e *emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}

func (e *emitter) ShowStep(step int, sym reaction.Symbol, lit bool) {
	e.Send(StepEvent{Step: step, Symbol: sym, Lit: lit})
}

func (e *emitter) AckPress(b reaction.Button, lit bool) {
	e.Send(PressAckEvent{Button: b, Lit: lit})
}

func (e *emitter) ShowScore(score int) {
	e.Send(ScoreEvent{Score: score})
}
