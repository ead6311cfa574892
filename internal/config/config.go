// Package config provides YAML-based game configuration loading and
// environment-driven process settings.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ReactionConfig contains all tuning for a reaction duel.
// Both peers of a match must agree on the Sequence section.
type ReactionConfig struct {
	Sequence SequenceConfig `yaml:"sequence"`
	Seed     SeedConfig     `yaml:"seed"`
	Cadence  CadenceConfig  `yaml:"cadence"`
	Input    InputConfig    `yaml:"input"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
}

// SequenceConfig defines the shared sequence and the lag limit.
type SequenceConfig struct {
	Length int `yaml:"length"`
	MaxLag int `yaml:"max_lag"` // Symbols the player may trail playback by
}

// SeedConfig bounds the locally generated seed to [Min, Max).
type SeedConfig struct {
	Min uint32 `yaml:"min"`
	Max uint32 `yaml:"max"`
}

// CadenceConfig defines presentation timing.
type CadenceConfig struct {
	StartDelay     time.Duration `yaml:"start_delay"`
	HighlightBase  time.Duration `yaml:"highlight_base"`
	HighlightDecay float64       `yaml:"highlight_decay"`
	PauseBase      time.Duration `yaml:"pause_base"`
	PauseDecay     float64       `yaml:"pause_decay"`
	PauseFloor     time.Duration `yaml:"pause_floor"`
}

// InputConfig defines press feedback.
type InputConfig struct {
	AckDuration time.Duration `yaml:"ack_duration"`
}

// TimeoutConfig bounds waits on the peer. Zero waits forever.
type TimeoutConfig struct {
	Seed   time.Duration `yaml:"seed"`
	Finish time.Duration `yaml:"finish"`
}

// Validate rejects configurations that cannot produce a playable round.
func (c ReactionConfig) Validate() error {
	var errs []error

	if c.Sequence.Length <= 0 {
		errs = append(errs, fmt.Errorf("sequence.length must be positive, got %d", c.Sequence.Length))
	}
	if c.Sequence.MaxLag <= 0 {
		errs = append(errs, fmt.Errorf("sequence.max_lag must be positive, got %d", c.Sequence.MaxLag))
	}
	if c.Seed.Max <= c.Seed.Min {
		errs = append(errs, fmt.Errorf("seed range [%d, %d) is empty", c.Seed.Min, c.Seed.Max))
	}
	if c.Cadence.HighlightDecay <= 0 || c.Cadence.HighlightDecay > 1 {
		errs = append(errs, fmt.Errorf("cadence.highlight_decay must be in (0, 1], got %g", c.Cadence.HighlightDecay))
	}
	if c.Cadence.PauseDecay <= 0 || c.Cadence.PauseDecay > 1 {
		errs = append(errs, fmt.Errorf("cadence.pause_decay must be in (0, 1], got %g", c.Cadence.PauseDecay))
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"cadence.start_delay", c.Cadence.StartDelay},
		{"cadence.highlight_base", c.Cadence.HighlightBase},
		{"cadence.pause_base", c.Cadence.PauseBase},
		{"cadence.pause_floor", c.Cadence.PauseFloor},
		{"input.ack_duration", c.Input.AckDuration},
		{"timeouts.seed", c.Timeouts.Seed},
		{"timeouts.finish", c.Timeouts.Finish},
	}
	for _, d := range durations {
		if d.d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", d.name, d.d))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid reaction config: %w", errors.Join(errs...))
	}
	return nil
}

// DifficultyPreset represents a named cadence profile.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
	DifficultyFixed  DifficultyPreset = "fixed"
)

// ParseDifficultyPreset validates a preset name. Empty means normal.
func ParseDifficultyPreset(s string) (DifficultyPreset, error) {
	switch p := DifficultyPreset(s); p {
	case "":
		return DifficultyNormal, nil
	case DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyFixed:
		return p, nil
	default:
		return "", fmt.Errorf("config: unknown difficulty %q (want easy, normal, hard or fixed)", s)
	}
}

// ApplyReactionPreset adjusts the cadence for a difficulty preset.
// Normal leaves the loaded values untouched.
func ApplyReactionPreset(cfg *ReactionConfig, preset DifficultyPreset) {
	switch preset {
	case DifficultyEasy:
		cfg.Cadence.HighlightBase = 300 * time.Millisecond
		cfg.Cadence.PauseDecay = 0.95
		cfg.Cadence.PauseFloor = 350 * time.Millisecond
	case DifficultyHard:
		cfg.Cadence.HighlightDecay = 0.98
		cfg.Cadence.PauseDecay = 0.85
		cfg.Cadence.PauseFloor = 120 * time.Millisecond
	case DifficultyFixed:
		// No acceleration: every symbol gets the step-0 timing
		cfg.Cadence.HighlightDecay = 1
		cfg.Cadence.PauseDecay = 1
	}
}
