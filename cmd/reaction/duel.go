package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/reaction-duel/internal/duel"
	"github.com/vovakirdan/reaction-duel/internal/netpeer"
	"github.com/vovakirdan/reaction-duel/internal/platform/tui"
)

const dialTimeout = 10 * time.Second

var flagListen string

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Host a direct duel over a websocket",
	Long: `Wait for one opponent to connect, then play a duel.

The opponent runs 'reaction join' with the address printed here. Both
sides must use the same sequence length and max lag from the config file;
a duel between mismatched configs ends before the round starts.

Controls:
  1/a 2/s 3/d 4/f  - Start, Select, A, B
  Esc              - Leave the end screen (hold B)
  Q                - Quit

Examples:
  reaction host
  reaction host --listen :9000 --difficulty hard`,
	Run: runHost,
}

var joinCmd = &cobra.Command{
	Use:   "join <address>",
	Short: "Join a duel hosted with 'reaction host'",
	Long: `Connect to a waiting host and play a duel.

The address may be a full websocket URL or just host:port.

Examples:
  reaction join 192.168.1.20:7777
  reaction join ws://duels.example.com:7777/duel`,
	Args: cobra.ExactArgs(1),
	Run:  runJoin,
}

func init() {
	hostCmd.Flags().StringVar(&flagListen, "listen", ":7777", "Address to listen on (host:port)")
}

func runHost(_ *cobra.Command, _ []string) {
	if err := hostDuel(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runJoin(_ *cobra.Command, args []string) {
	if err := joinDuel(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func hostDuel() error {
	if !isTerminal() {
		return errors.New("host needs an interactive terminal")
	}
	opts, err := loadMatchOptions()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger("host", true)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := netpeer.Listen(flagListen, logger)
	if err != nil {
		return err
	}
	fmt.Printf("Waiting for an opponent on %s\n", ln.URL())
	fmt.Printf("They can join with: reaction join %s\n", ln.Addr())
	fmt.Println("Press Ctrl+C to stop")

	conn, err := ln.Accept(ctx)
	// One opponent per duel
	ln.Close()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	return playDuel(ctx, conn, "guest", opts, logger)
}

func joinDuel(addr string) error {
	if !isTerminal() {
		return errors.New("join needs an interactive terminal")
	}
	opts, err := loadMatchOptions()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger("join", true)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	conn, err := netpeer.Dial(dialCtx, netpeer.PeerURL(addr), logger)
	cancel()
	if err != nil {
		if errors.Is(err, netpeer.ErrPeerTaken) {
			return errors.New("that duel already has an opponent")
		}
		return err
	}

	return playDuel(ctx, conn, "host", opts, logger)
}

// playDuel runs the duel screen over transport and prints the result.
func playDuel(ctx context.Context, transport duel.Transport, opponent string, opts duel.Options, logger *log.Logger) error {
	store := openStoreOrWarn()
	if store != nil {
		defer store.Close()
	}

	res, err := tui.RunDuel(ctx, tui.DuelSetup{
		MatchID:   duel.NewMatchID(),
		Player:    flagName,
		Opponent:  opponent,
		Transport: transport,
		Options:   opts,
		Store:     store,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	printResult(res)
	return nil
}

func printResult(res duel.Result) {
	fmt.Println(res.Outcome.Headline())
	if !res.Started {
		fmt.Printf("No round was played (%s)\n", res.Reason)
		return
	}

	remote := "?"
	if res.RemoteKnown {
		remote = fmt.Sprintf("%d", res.RemoteScore)
	}
	fmt.Printf("  You: %d   %s: %s\n", res.LocalScore, res.Peer, remote)
	if reason := res.Round.Reason.String(); reason != "" {
		fmt.Printf("  Round: %s\n", reason)
	}
	fmt.Printf("  Seed: %d   Ended: %s\n", res.SharedSeed, res.Reason)
}
