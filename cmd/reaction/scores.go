package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/reaction-duel/internal/storage"
)

var (
	flagScoresAll   bool
	flagScoresClear bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show best round scores",
	Long: `Display the top 10 round scores.

A round score is the number of symbols repeated correctly before a wrong
button, falling too far behind, or completing the sequence.

Examples:
  reaction scores
  reaction scores --all
  reaction scores --clear`,
	Run: runScores,
}

func init() {
	scoresCmd.Flags().BoolVar(&flagScoresAll, "all", false, "Show every player's scores")
	scoresCmd.Flags().BoolVar(&flagScoresClear, "clear", false, "Delete your recorded scores")
}

func runScores(_ *cobra.Command, _ []string) {
	// Open score storage
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening duel database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if flagScoresClear {
		if err := store.ClearScores(flagName); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing scores: %v\n", err)
			store.Close()
			os.Exit(1)
		}
		fmt.Printf("Cleared scores for %s\n", flagName)
		return
	}

	player := flagName
	title := flagName
	if flagScoresAll {
		player = ""
		title = "everyone"
	}

	// Get top scores
	scores, err := store.TopScores(player, 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving scores: %v\n", err)
		store.Close()
		os.Exit(1)
	}

	// Display scores
	fmt.Printf("Best Rounds - %s\n", title)
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println()
		fmt.Println("Play 'reaction host' or 'reaction serve' to set the first one!")
		return
	}

	// Print header
	fmt.Printf("  %-4s  %-12s  %-6s  %-24s  %s\n", "Rank", "Player", "Score", "Ended", "Date")
	fmt.Printf("  %-4s  %-12s  %-6s  %-24s  %s\n", "----", "------", "-----", "-----", "----")

	// Print scores
	for i, entry := range scores {
		dateStr := entry.CreatedAt.Format("2006-01-02 15:04")
		fmt.Printf("  %-4d  %-12s  %-6d  %-24s  %s\n", i+1, entry.Player, entry.Score, entry.Reason, dateStr)
	}

	if !flagScoresAll {
		best, err := store.HighScore(flagName)
		if err == nil {
			fmt.Println()
			fmt.Printf("Personal best: %d\n", best)
		}
	}
}
