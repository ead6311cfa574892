package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/reaction-duel/internal/platform/tui"
	"github.com/vovakirdan/reaction-duel/internal/storage"
)

var (
	flagHistoryAll   bool
	flagHistoryMatch string
	flagHistoryLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent duels",
	Long: `Show recent duels and their results.

On a terminal the history opens as a scrollable table; tab switches
between your duels and everyone's. Piped output is plain text.

Examples:
  reaction history
  reaction history --all --limit 50
  reaction history --match 6f1c...   # Both sides of one duel
  reaction history | grep won`,
	Run: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&flagHistoryAll, "all", false, "Show every player's duels")
	historyCmd.Flags().StringVar(&flagHistoryMatch, "match", "", "Show the records of one match ID")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "Number of duels in plain output")
}

func runHistory(_ *cobra.Command, _ []string) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening duel database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	player := flagName
	if flagHistoryAll {
		player = ""
	}

	if flagHistoryMatch == "" && isTerminal() {
		width, height := terminalSize()
		if err := tui.RunHistory(store, player, width, height); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			store.Close()
			os.Exit(1)
		}
		return
	}

	var records []storage.MatchRecord
	if flagHistoryMatch != "" {
		records, err = store.MatchByID(flagHistoryMatch)
	} else {
		records, err = store.RecentMatches(player, flagHistoryLimit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving duels: %v\n", err)
		store.Close()
		os.Exit(1)
	}

	if len(records) == 0 {
		fmt.Println("No duels recorded yet.")
		return
	}

	fmt.Printf("  %-12s  %-12s  %-12s  %-9s  %-20s  %s\n", "When", "Player", "Opponent", "Score", "Result", "Ended")
	fmt.Printf("  %-12s  %-12s  %-12s  %-9s  %-20s  %s\n", "----", "------", "--------", "-----", "------", "-----")
	for _, row := range tui.HistoryRows(records) {
		fmt.Printf("  %-12s  %-12s  %-12s  %-9s  %-20s  %s\n", row[0], row[1], row[2], row[3], row[4], row[5])
	}
}
