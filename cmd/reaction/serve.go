package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/reaction-duel/internal/duel"
	"github.com/vovakirdan/reaction-duel/internal/platform/tui"
)

var (
	flagSSHAddr      string
	flagHostKey      string
	flagIdleTimeout  time.Duration
	flagLobbyTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the duel SSH server",
	Long: `Start an SSH server where players meet for duels.

Each SSH connection gets a menu. One player hosts and receives a six
character join code; the other enters it to start the duel. Every player
runs their own round, so lag on one connection never slows the other.
Results are stored per-server.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.reaction/host_key

Environment:
  REACTION_SSH_ADDR, REACTION_HOST_KEY, REACTION_IDLE_TIMEOUT,
  REACTION_DB and REACTION_LOG_LEVEL provide defaults for the flags.

Examples:
  reaction serve                           # Listen on :23234 with auto-generated key
  reaction serve --ssh :2222               # Listen on port 2222
  reaction serve --host-key ./my_host_key  # Use specific host key
  reaction serve --difficulty hard         # Faster cadence for everyone

Users can connect with:
  ssh localhost -p 23234`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().DurationVar(&flagIdleTimeout, "idle-timeout", 30*time.Minute, "Idle time before disconnecting")
	serveCmd.Flags().DurationVar(&flagLobbyTimeout, "lobby-timeout", duel.DefaultCoordinatorConfig().LobbyTimeout, "How long a join code stays valid")
}

func runServe(cmd *cobra.Command, _ []string) {
	flags := cmd.Flags()
	if !flags.Changed("ssh") && serverEnv.SSHAddr != "" {
		flagSSHAddr = serverEnv.SSHAddr
	}
	if !flags.Changed("host-key") && serverEnv.HostKeyPath != "" {
		flagHostKey = serverEnv.HostKeyPath
	}
	if !flags.Changed("idle-timeout") && serverEnv.IdleTimeout > 0 {
		flagIdleTimeout = serverEnv.IdleTimeout
	}

	opts, err := loadMatchOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := newLogger("reaction-ssh", false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	cfg := tui.DefaultSSHServerConfig()
	cfg.Address = flagSSHAddr
	cfg.HostKeyPath = flagHostKey
	cfg.DBPath = flagDBPath
	cfg.IdleTimeout = flagIdleTimeout
	cfg.Match = opts
	cfg.Lobby.LobbyTimeout = flagLobbyTimeout
	cfg.Logger = logger

	server, err := tui.NewSSHServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting duel SSH server on %s\n", cfg.Address)
	fmt.Println("Connect with: ssh localhost -p 23234")
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}
