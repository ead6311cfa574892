package reaction

import (
	"fmt"
	"sync"
)

// DefaultMaxLag is how many symbols the player may trail playback by.
const DefaultMaxLag = 5

// OutcomeKind tags an Outcome.
type OutcomeKind int

const (
	Continuing OutcomeKind = iota // Round still running
	Lost                          // Mismatch or fell too far behind
	Won                           // Whole sequence matched
)

// String returns a human-readable name for the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case Continuing:
		return "continuing"
	case Lost:
		return "lost"
	case Won:
		return "won"
	default:
		return "unknown"
	}
}

// Reason explains why a round ended.
type Reason int

const (
	ReasonNone      Reason = iota
	ReasonMismatch         // Wrong button pressed
	ReasonTooSlow          // Player trailed playback by more than the allowed lag
	ReasonCompleted        // Every symbol matched
)

// String returns a human-readable description of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonMismatch:
		return "wrong button"
	case ReasonTooSlow:
		return "you are too far behind"
	case ReasonCompleted:
		return "sequence completed"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of a step function.
// Score is only meaningful for terminal outcomes.
type Outcome struct {
	Kind   OutcomeKind
	Score  int
	Reason Reason
}

// Terminal reports whether the outcome ends the round.
func (o Outcome) Terminal() bool {
	return o.Kind == Lost || o.Kind == Won
}

func (o Outcome) String() string {
	if !o.Terminal() {
		return o.Kind.String()
	}
	return fmt.Sprintf("%s(%d)", o.Kind, o.Score)
}

// Session is the state of one round on one peer.
//
// The presentation driver and the input matcher share a Session; every
// method is safe for concurrent use. Cursors only move forward and
// inputCursor <= displayCursor <= len(sequence) holds at all times.
// Exactly one terminal Outcome is ever returned; after that the cursors are
// frozen and step functions report Continuing without effect.
type Session struct {
	mu      sync.Mutex
	seq     Sequence
	maxLag  int
	display int
	input   int
	active  bool
	final   Outcome
}

// NewSession creates a session over seq. maxLag <= 0 selects DefaultMaxLag.
func NewSession(seq Sequence, maxLag int) *Session {
	if maxLag <= 0 {
		maxLag = DefaultMaxLag
	}
	return &Session{
		seq:    seq,
		maxLag: maxLag,
	}
}

// Len returns the sequence length.
func (s *Session) Len() int {
	return len(s.seq)
}

// MaxLag returns the configured lag limit.
func (s *Session) MaxLag() int {
	return s.maxLag
}

// Activate opens the session for input. Presses before activation are ignored.
func (s *Session) Activate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
}

// Active reports whether the session accepts input.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && !s.final.Terminal()
}

// Over reports whether a terminal outcome has been produced.
func (s *Session) Over() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.final.Terminal()
}

// Final returns the terminal outcome, or Continuing while the round runs.
func (s *Session) Final() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.final
}

// HasNextStep reports whether another symbol can be presented.
// It ends the round with Lost when the player trails playback by more than
// the lag limit.
func (s *Session) HasNextStep() (bool, Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.final.Terminal() {
		return false, Outcome{}
	}
	if s.display-s.input > s.maxLag {
		return false, s.finish(Lost, ReasonTooSlow, s.input)
	}
	return s.display < len(s.seq), Outcome{}
}

// NextStep returns the next symbol to present with its zero-based index and
// advances the display cursor. ok is false when nothing is left to present.
func (s *Session) NextStep() (step int, sym Symbol, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.final.Terminal() || s.display >= len(s.seq) {
		return s.display, 0, false
	}
	step = s.display
	sym = s.seq[step]
	s.display++
	return step, sym, true
}

// Press matches sym against the next expected symbol.
//
// A press with nothing presented yet to match (inputCursor == displayCursor)
// is ignored, as is any press before Activate or after the round ended.
func (s *Session) Press(sym Symbol) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || s.final.Terminal() || s.input >= s.display {
		return Outcome{}
	}
	if sym != s.seq[s.input] {
		return s.finish(Lost, ReasonMismatch, s.input)
	}

	s.input++
	if s.input == len(s.seq) {
		// +1 bonus for clearing the whole sequence
		return s.finish(Won, ReasonCompleted, s.input+1)
	}
	return Outcome{}
}

// Expire ends a round whose playback is exhausted but whose input is not.
func (s *Session) Expire() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.final.Terminal() {
		return Outcome{}
	}
	return s.finish(Lost, ReasonTooSlow, s.input)
}

// Score returns the number of correctly matched symbols.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Cursors returns the display and input cursors.
func (s *Session) Cursors() (display, input int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display, s.input
}

// Expected returns the symbol the player must press next.
func (s *Session) Expected() (Symbol, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.input >= s.display {
		return 0, false
	}
	return s.seq[s.input], true
}

// finish records the terminal outcome. Callers hold s.mu.
func (s *Session) finish(kind OutcomeKind, reason Reason, score int) Outcome {
	s.final = Outcome{Kind: kind, Score: score, Reason: reason}
	return s.final
}
