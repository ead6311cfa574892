// Package duel runs a two-peer reaction match: seed exchange, the local
// round, and finish negotiation over a message transport.
package duel

import (
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/reaction-duel/internal/reaction"
)

// SessionID uniquely identifies a connected player session (e.g., SSH connection).
type SessionID string

// MatchID uniquely identifies a match. Both peers of a match share it when
// a coordinator pairs them; direct peers each mint their own.
type MatchID string

// NewMatchID returns a fresh random match identifier.
func NewMatchID() MatchID {
	return MatchID(uuid.NewString())
}

// MatchOutcome is the final result of a match from the local player's view.
type MatchOutcome int

const (
	MatchPending     MatchOutcome = iota // Not resolved yet
	MatchWon                             // Local score above remote
	MatchLost                            // Local score below remote
	MatchDraw                            // Equal scores
	MatchUnavailable                     // Opponent never reported a score
	MatchAbandoned                       // Local player left before resolution
)

// String returns the storage name for the outcome.
func (o MatchOutcome) String() string {
	switch o {
	case MatchPending:
		return "pending"
	case MatchWon:
		return "won"
	case MatchLost:
		return "lost"
	case MatchDraw:
		return "draw"
	case MatchUnavailable:
		return "unavailable"
	case MatchAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Headline returns the end-screen title for the outcome.
func (o MatchOutcome) Headline() string {
	switch o {
	case MatchWon:
		return "You Won!"
	case MatchLost:
		return "You Lost!"
	case MatchDraw:
		return "Draw!"
	case MatchUnavailable:
		return "Opponent unavailable"
	case MatchAbandoned:
		return "You left"
	default:
		return "Waiting..."
	}
}

// ParseMatchOutcome converts a storage name back into an outcome.
func ParseMatchOutcome(s string) MatchOutcome {
	for o := MatchPending; o <= MatchAbandoned; o++ {
		if o.String() == s {
			return o
		}
	}
	return MatchPending
}

// Compare resolves a match by strict score comparison.
func Compare(local, remote uint32) MatchOutcome {
	switch {
	case local > remote:
		return MatchWon
	case local < remote:
		return MatchLost
	default:
		return MatchDraw
	}
}

// EndReason describes why a match ended.
type EndReason int

const (
	EndCompleted     EndReason = iota // Both scores exchanged
	EndSeedTimeout                    // Peer seed never arrived
	EndFinishTimeout                  // Peer score never arrived
	EndPeerClosed                     // Transport ended before resolution
	EndLeft                           // Local player left the end screen
	EndCancelled                      // Context cancelled
	EndRulesMismatch                  // Peer announced a different length or max lag
)

func (r EndReason) String() string {
	switch r {
	case EndCompleted:
		return "completed"
	case EndSeedTimeout:
		return "seed timeout"
	case EndFinishTimeout:
		return "finish timeout"
	case EndPeerClosed:
		return "peer closed"
	case EndLeft:
		return "left"
	case EndCancelled:
		return "cancelled"
	case EndRulesMismatch:
		return "rules mismatch"
	default:
		return "unknown"
	}
}

// Result summarizes a finished match from the local player's view.
type Result struct {
	MatchID     MatchID
	Player      string
	Peer        string
	LocalScore  int
	RemoteScore int
	RemoteKnown bool // RemoteScore is only meaningful when set
	Outcome     MatchOutcome
	Reason      EndReason
	Round       reaction.Outcome
	SharedSeed  uint32
	Started     bool // A round was played
	Duration    time.Duration
}

// ResultSaver persists match results.
// This lets matches save results without depending on the storage package.
type ResultSaver interface {
	SaveMatchResult(result Result) error
}
