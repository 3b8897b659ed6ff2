// arena is an authoritative Pong server with a terminal client.
//
// Usage:
//
//	arena serve              - Run the WebSocket/HTTP server and the SSH server
//	arena play               - Play in the terminal, offline or against a server
//	arena history            - Show recorded matches and player stats
//	arena config             - Print the effective rules configuration
//
// Global flags:
//
//	--config <path>  - Rules YAML (default search: ~/.arena, ./configs, built-in)
//	--db <path>      - Match history database (default: ~/.arena/arena.db)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pong-arena/internal/multiplayer"
)

var (
	// Global flags
	flagConfig string
	flagDBPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "Pong Arena - authoritative Pong matches and tournaments",
	Long: `Pong Arena runs Pong matches on the server and streams the state to
players. It supports matches against the CPU, hot-seat matches on one
keyboard, local tournaments and online tournaments.

Available commands:
  serve    - Start the WebSocket and SSH servers
  play     - Play in the terminal
  history  - Show recorded matches
  config   - Print the rules configuration

Examples:
  arena serve
  arena play
  arena play --server ws://localhost:8080/ws --name alice
  arena history --player alice
  ssh localhost -p 2323`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to rules config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.arena/arena.db", "Path to match history database")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

// difficultyNames lists the AI presets offered by the menu.
func difficultyNames(cfg multiplayer.Config) []string {
	names := make([]string, len(cfg.Difficulties))
	for i, d := range cfg.Difficulties {
		names[i] = d.Name
	}
	return names
}
