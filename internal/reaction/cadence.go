package reaction

import (
	"math"
	"time"
)

// Cadence controls how fast symbols are presented.
//
// Highlight and pause both shrink geometrically with the step index, so a
// round speeds up regardless of how well the player is doing. The pause
// shrinks faster but never drops below PauseFloor.
type Cadence struct {
	StartDelay     time.Duration // Wait before the first symbol
	HighlightBase  time.Duration // Highlight duration at step 0
	HighlightDecay float64       // Per-step highlight multiplier
	PauseBase      time.Duration // Pause duration at step 0
	PauseDecay     float64       // Per-step pause multiplier
	PauseFloor     time.Duration // Minimum pause
}

// DefaultCadence returns the standard timing: H(n) = 0.2s*0.99^n,
// P(n) = max(0.2s, 1s*0.9^n), after a 1.5s lead-in.
func DefaultCadence() Cadence {
	return Cadence{
		StartDelay:     1500 * time.Millisecond,
		HighlightBase:  200 * time.Millisecond,
		HighlightDecay: 0.99,
		PauseBase:      time.Second,
		PauseDecay:     0.9,
		PauseFloor:     200 * time.Millisecond,
	}
}

// Highlight returns how long the symbol at step stays lit.
func (c Cadence) Highlight(step int) time.Duration {
	return scale(c.HighlightBase, c.HighlightDecay, step)
}

// Pause returns the gap after the symbol at step.
func (c Cadence) Pause(step int) time.Duration {
	return max(c.PauseFloor, scale(c.PauseBase, c.PauseDecay, step))
}

// Slot returns the full time taken by the symbol at step.
func (c Cadence) Slot(step int) time.Duration {
	return c.Highlight(step) + c.Pause(step)
}

func scale(base time.Duration, decay float64, step int) time.Duration {
	if step < 0 {
		step = 0
	}
	return time.Duration(float64(base) * math.Pow(decay, float64(step)))
}
