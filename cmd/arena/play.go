package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/pong-arena/internal/config"
	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/logging"
	"github.com/vovakirdan/pong-arena/internal/multiplayer"
	"github.com/vovakirdan/pong-arena/internal/platform/tui"
	"github.com/vovakirdan/pong-arena/internal/storage"
	"github.com/vovakirdan/pong-arena/internal/transport/ws"
)

var (
	flagServer string
	flagName   string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long: `Open the arena menu in this terminal.

Without --server the arena runs in-process: matches against the CPU,
hot-seat matches and local tournaments work offline and are recorded in
the local history database. With --server the client connects to a
running arena over WebSocket and can also host or join online tournaments.

Controls:
  W/S        - Left paddle (your paddle online)
  Up/Down    - Right paddle (hot-seat and local tournaments)
  P / Space  - Pause / resume
  R          - Restart
  N          - Register a player (tournaments)
  T          - Start the tournament (host)
  Enter/1/2  - Ready
  Esc        - Leave the room
  Q          - Quit

Examples:
  arena play
  arena play --server ws://localhost:8080/ws --name alice`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagServer, "server", "", "Arena WebSocket URL (ws://host:port/ws)")
	playCmd.Flags().StringVar(&flagName, "name", "", "Identity to use online (reuse it to resume a session)")
}

func terminalSize() (int, int) {
	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}
	return width, height
}

func runPlay(cmd *cobra.Command, _ []string) error {
	width, height := terminalSize()
	if flagServer != "" {
		return playRemote(cmd.Context(), width, height)
	}
	return playLocal(width, height)
}

func playRemote(ctx context.Context, width, height int) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := ws.Dial(dialCtx, flagServer, flagName)
	if err != nil {
		return err
	}
	defer client.Close()

	return tui.Run(tui.Options{
		Conn:         client,
		Difficulties: difficultyNames(config.Default().Manager()),
		Width:        width,
		Height:       height,
	})
}

func playLocal(width, height int) error {
	rules, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	mcfg := rules.Manager()

	opts := tui.Options{
		Difficulties: difficultyNames(mcfg),
		Width:        width,
		Height:       height,
	}
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: match history disabled: %v\n", err)
	} else {
		defer store.Close()
		opts.History = store
	}

	// Logs would draw over the alt screen.
	logger := logging.New(logging.Options{Output: io.Discard})
	manager := multiplayer.NewManager(mcfg, nil, logger)
	defer manager.Close()
	if store != nil {
		manager.SetResultSaver(store)
		manager.SetTournamentSaver(store)
	}

	conn := tui.NewLocalConn(manager, core.Identity("local-"+uuid.NewString()[:8]), 256)
	defer conn.Close()
	opts.Conn = conn

	return tui.Run(opts)
}
