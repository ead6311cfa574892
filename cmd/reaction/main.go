// reaction is a two-player reaction and memory duel for the terminal.
//
// Usage:
//
//	reaction serve              - Start SSH server; players pair with join codes
//	reaction host               - Host a direct duel over a websocket
//	reaction join <address>     - Join a direct duel
//	reaction history            - Show recent duels
//	reaction scores             - Show best round scores
//	reaction sequence --seed N  - Print the sequence a seed produces
//
// Global flags:
//
//	--config <path>      - Game config YAML (default: search ~/.reaction/configs, ./configs)
//	--difficulty <name>  - Cadence preset: easy, normal, hard or fixed
//	--db <path>          - Database path (default: ~/.reaction/duels.db)
//	--name <player>      - Player name (default: $USER)
//	--log-level <level>  - debug, info, warn or error
//	--log-file <path>    - Append logs to a file
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/reaction-duel/internal/config"
)

const defaultDBPath = "~/.reaction/duels.db"

var (
	// Global flags
	flagConfig     string
	flagDifficulty string
	flagDBPath     string
	flagName       string
	flagLogLevel   string
	flagLogFile    string

	// Process settings from the environment; flags win
	serverEnv config.ServerEnv
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reaction",
	Short: "Reaction Duel - a two-player memory race in your terminal",
	Long: `Reaction Duel lights up a sequence of four buttons faster and faster.
Both players see the same sequence; whoever repeats more of it wins.

Available commands:
  serve     - Start SSH server, players pair with join codes
  host      - Host a direct duel over a websocket
  join      - Join a direct duel
  history   - Show recent duels
  scores    - Show best round scores
  sequence  - Print the sequence a seed produces

Examples:
  reaction serve --ssh :2222
  reaction host --listen :7777
  reaction join 192.168.1.20:7777
  reaction history
  reaction sequence --seed 1234 --length 20`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: applyEnv,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to game config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", defaultDBPath, "Path to duel database (env REACTION_DB)")
	rootCmd.PersistentFlags().StringVar(&flagName, "name", defaultPlayerName(), "Player name")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (env REACTION_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Append logs to this file")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(sequenceCmd)
}

// applyEnv fills flags the user did not set from the environment.
func applyEnv(cmd *cobra.Command, _ []string) error {
	env, err := config.LoadServerEnv()
	if err != nil {
		return err
	}
	serverEnv = env

	flags := cmd.Flags()
	if !flags.Changed("db") && env.DBPath != "" {
		flagDBPath = env.DBPath
	}
	if !flags.Changed("log-level") && env.LogLevel != "" {
		flagLogLevel = env.LogLevel
	}
	return nil
}

func defaultPlayerName() string {
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "player"
}
