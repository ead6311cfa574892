package duel

import "errors"

// ErrAlreadyFinished is returned when the local round reports a second finish.
var ErrAlreadyFinished = errors.New("duel: local round already finished")

// FinishState tracks which peers have reported their final score.
type FinishState int

const (
	Playing             FinishState = iota // Neither side finished
	LocalFinished                          // Local finished, waiting on the peer
	RemoteFinishedFirst                    // Peer finished, local still playing
	BothFinished                           // Result known
)

func (s FinishState) String() string {
	switch s {
	case Playing:
		return "playing"
	case LocalFinished:
		return "local finished"
	case RemoteFinishedFirst:
		return "remote finished first"
	case BothFinished:
		return "both finished"
	default:
		return "unknown"
	}
}

// Negotiator reconciles two rounds that end independently.
//
// Whichever side finishes first records its score; the second report
// resolves the match. Only the match loop touches a Negotiator, so it has
// no lock.
type Negotiator struct {
	state  FinishState
	local  uint32
	remote uint32
}

// NewNegotiator returns a negotiator in the Playing state.
func NewNegotiator() *Negotiator {
	return &Negotiator{}
}

// State returns the current finish state.
func (n *Negotiator) State() FinishState {
	return n.state
}

// LocalFinished records the local final score and returns the message to
// send to the peer. resolved is true when the peer had already finished.
func (n *Negotiator) LocalFinished(score uint32) (msg FinishMessage, resolved bool, err error) {
	switch n.state {
	case Playing:
		n.local = score
		n.state = LocalFinished
		return FinishMessage{FinalScore: score}, false, nil
	case RemoteFinishedFirst:
		n.local = score
		n.state = BothFinished
		return FinishMessage{FinalScore: score}, true, nil
	default:
		return FinishMessage{}, false, ErrAlreadyFinished
	}
}

// RemoteFinished records the peer's final score. It reports whether this
// call resolved the match. Reports after the first are ignored.
func (n *Negotiator) RemoteFinished(score uint32) (resolved bool) {
	switch n.state {
	case Playing:
		n.remote = score
		n.state = RemoteFinishedFirst
		return false
	case LocalFinished:
		n.remote = score
		n.state = BothFinished
		return true
	default:
		return false
	}
}

// LocalDone reports whether the local score has been recorded.
func (n *Negotiator) LocalDone() bool {
	return n.state == LocalFinished || n.state == BothFinished
}

// RemoteKnown reports whether the peer's score has been recorded.
func (n *Negotiator) RemoteKnown() bool {
	return n.state == RemoteFinishedFirst || n.state == BothFinished
}

// Scores returns the recorded scores.
func (n *Negotiator) Scores() (local, remote uint32) {
	return n.local, n.remote
}

// Result returns the match outcome once both scores are known.
func (n *Negotiator) Result() (MatchOutcome, bool) {
	if n.state != BothFinished {
		return MatchPending, false
	}
	return Compare(n.local, n.remote), true
}
