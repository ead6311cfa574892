package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/vovakirdan/reaction-duel/internal/config"
	"github.com/vovakirdan/reaction-duel/internal/duel"
	"github.com/vovakirdan/reaction-duel/internal/storage"
)

// loadMatchOptions reads the game config and applies --difficulty.
func loadMatchOptions() (duel.Options, error) {
	cfg, err := config.LoadReaction(flagConfig)
	if err != nil {
		return duel.Options{}, err
	}

	preset, err := config.ParseDifficultyPreset(flagDifficulty)
	if err != nil {
		return duel.Options{}, err
	}
	config.ApplyReactionPreset(&cfg, preset)

	if err := cfg.Validate(); err != nil {
		return duel.Options{}, err
	}
	return duel.OptionsFromConfig(&cfg), nil
}

// openStoreOrWarn opens the duel database. Play continues without history
// if it cannot be opened.
func openStoreOrWarn() *storage.Store {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open duel database: %v\n", err)
		return nil
	}
	return store
}

// terminalSize returns the stdout size, or 80x24 when it is not a terminal.
func terminalSize() (int, int) {
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return w, h
	}
	return 80, 24
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
