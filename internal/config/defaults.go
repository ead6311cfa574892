package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/reaction.yaml
var defaultReactionYAML []byte

// DefaultReactionConfig returns the default reaction duel configuration.
func DefaultReactionConfig() ReactionConfig {
	return ReactionConfig{
		Sequence: SequenceConfig{
			Length: 300,
			MaxLag: 5,
		},
		Seed: SeedConfig{
			Min: 10_000,
			Max: 100_000,
		},
		Cadence: CadenceConfig{
			StartDelay:     1500 * time.Millisecond,
			HighlightBase:  200 * time.Millisecond,
			HighlightDecay: 0.99,
			PauseBase:      time.Second,
			PauseDecay:     0.9,
			PauseFloor:     200 * time.Millisecond,
		},
		Input: InputConfig{
			AckDuration: 500 * time.Millisecond,
		},
		Timeouts: TimeoutConfig{
			Seed:   30 * time.Second,
			Finish: 60 * time.Second,
		},
	}
}
