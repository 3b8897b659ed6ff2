package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/pong-arena/internal/storage"
)

var (
	flagPlayer string
	flagLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded matches",
	Long: `Display the most recent matches from the local history database.
With --player only that player's matches are listed, followed by their
win/loss record.

Examples:
  arena history
  arena history --limit 50
  arena history --player alice`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&flagPlayer, "player", "", "Only show matches of this player ID")
	historyCmd.Flags().IntVar(&flagLimit, "limit", 20, "Maximum number of matches")
}

func runHistory(_ *cobra.Command, _ []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var entries []storage.MatchEntry
	if flagPlayer != "" {
		entries, err = store.PlayerMatches(flagPlayer, flagLimit)
	} else {
		entries, err = store.RecentMatches(flagLimit)
	}
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No matches recorded yet.")
		fmt.Println()
		fmt.Println("Play 'arena play' to record the first one!")
		return nil
	}
	fmt.Println(matchTable(entries))

	if flagPlayer != "" {
		stats, err := store.PlayerStats(flagPlayer)
		if err != nil {
			return fmt.Errorf("read stats: %w", err)
		}
		fmt.Fprintf(os.Stdout, "\n%s: %d matches, %d wins, %d losses, %d titles\n",
			flagPlayer, stats.Matches, stats.Wins, stats.Matches-stats.Wins, stats.Titles)
	}
	return nil
}

func matchTable(entries []storage.MatchEntry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		kind := "match"
		switch {
		case e.Forfeit:
			kind = "forfeit"
		case e.IsTournament:
			kind = fmt.Sprintf("round %d", e.Round+1)
		}
		rows[i] = []string{
			fmt.Sprintf("%d", e.ID),
			e.EndedAt.Local().Format("2006-01-02 15:04"),
			e.Player1Name,
			fmt.Sprintf("%d-%d", e.Score1, e.Score2),
			e.Player2Name,
			e.WinnerName(),
			kind,
		}
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("ID", "When", "Left", "Score", "Right", "Winner", "Type").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		String()
}
