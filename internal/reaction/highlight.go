package reaction

import (
	"sync"
	"time"
)

// DefaultAckDuration is how long a pressed button stays highlighted.
const DefaultAckDuration = 500 * time.Millisecond

// HighlightTimers keeps one deactivation timer per button.
//
// Triggering a button that is already lit cancels its pending timer and
// starts a fresh one, so the last press always owns the highlight window.
// A generation counter per slot discards callbacks from timers that fired
// concurrently with a cancel.
type HighlightTimers struct {
	mu       sync.Mutex
	duration time.Duration
	onChange func(b Button, lit bool)
	slots    [AlphabetSize]*time.Timer
	gens     [AlphabetSize]uint64
	stopped  bool
}

// NewHighlightTimers creates timers that call onChange when a button lights
// up or goes dark. onChange runs with the internal lock held and must not
// call back into the HighlightTimers.
func NewHighlightTimers(duration time.Duration, onChange func(b Button, lit bool)) *HighlightTimers {
	if duration <= 0 {
		duration = DefaultAckDuration
	}
	return &HighlightTimers{
		duration: duration,
		onChange: onChange,
	}
}

// Trigger lights b and (re)starts its deactivation timer.
func (h *HighlightTimers) Trigger(b Button) {
	if int(b) >= AlphabetSize {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return
	}
	if t := h.slots[b]; t != nil {
		t.Stop()
	}
	h.gens[b]++
	gen := h.gens[b]
	h.notify(b, true)
	h.slots[b] = time.AfterFunc(h.duration, func() {
		h.expire(b, gen)
	})
}

// Lit reports whether b currently has a live timer.
func (h *HighlightTimers) Lit(b Button) bool {
	if int(b) >= AlphabetSize {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.slots[b] != nil
}

// Pending returns how many buttons have a live timer.
func (h *HighlightTimers) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, t := range h.slots {
		if t != nil {
			n++
		}
	}
	return n
}

// StopAll cancels every pending timer and turns the lit buttons off.
// Later Trigger calls are ignored.
func (h *HighlightTimers) StopAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopped = true
	for i, t := range h.slots {
		if t == nil {
			continue
		}
		t.Stop()
		h.gens[i]++
		h.slots[i] = nil
		h.notify(Button(i), false)
	}
}

func (h *HighlightTimers) expire(b Button, gen uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.gens[b] != gen {
		return // superseded by a newer press or StopAll
	}
	h.slots[b] = nil
	h.notify(b, false)
}

func (h *HighlightTimers) notify(b Button, lit bool) {
	if h.onChange != nil {
		h.onChange(b, lit)
	}
}
