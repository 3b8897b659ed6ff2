package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/pong-arena/internal/storage"
)

const maxHistory = 100

// HistorySource is the part of the match store the history screen reads.
type HistorySource interface {
	RecentMatches(limit int) ([]storage.MatchEntry, error)
}

// HistoryModel lists recent matches in a table.
type HistoryModel struct {
	source  HistorySource
	entries []storage.MatchEntry
	err     error
	table   table.Model
	help    help.Model
	keys    MenuKeyMap
	back    bool
	width   int
	height  int
}

// NewHistoryModel creates the history screen and loads the entries.
func NewHistoryModel(source HistorySource, width, height int) HistoryModel {
	m := HistoryModel{
		source: source,
		help:   help.New(),
		keys:   DefaultMenuKeyMap(),
		width:  width,
		height: height,
	}
	m.table = m.createTable()
	m.load()
	return m
}

func (m *HistoryModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "When", Width: 13},
		{Title: "Left", Width: 14},
		{Title: "Score", Width: 7},
		{Title: "Right", Width: 14},
		{Title: "Winner", Width: 14},
		{Title: "Type", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-8, 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func (m *HistoryModel) load() {
	if m.source == nil {
		m.entries = nil
		m.updateRows()
		return
	}
	m.entries, m.err = m.source.RecentMatches(maxHistory)
	m.updateRows()
}

func (m *HistoryModel) updateRows() {
	m.table.SetRows(historyRows(m.entries))
	m.table.GotoTop()
}

func historyRows(entries []storage.MatchEntry) []table.Row {
	rows := make([]table.Row, len(entries))
	for i, e := range entries {
		kind := "match"
		switch {
		case e.IsTournament && e.Forfeit:
			kind = "forfeit"
		case e.IsTournament:
			kind = fmt.Sprintf("round %d", e.Round+1)
		}
		rows[i] = table.Row{
			e.EndedAt.Local().Format("Jan 02 15:04"),
			e.Player1Name,
			fmt.Sprintf("%d-%d", e.Score1, e.Score2),
			e.Player2Name,
			e.WinnerName(),
			kind,
		}
	}
	return rows
}

// Back reports whether the user left the screen.
func (m HistoryModel) Back() bool {
	return m.back
}

// Update handles history input.
func (m HistoryModel) Update(msg tea.Msg) (HistoryModel, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back):
			m.back = true
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table = m.createTable()
		m.updateRows()
		return m, nil
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the history screen.
func (m HistoryModel) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.MarginBottom(1).Render(centerText("MATCH HISTORY", m.width)))
	b.WriteString("\n\n")

	switch {
	case m.source == nil:
		b.WriteString(statusStyle.Italic(true).Padding(2, 4).Render("History is not available on this connection."))
	case m.err != nil:
		b.WriteString(errorStyle.Render("could not load history: " + m.err.Error()))
	case len(m.entries) == 0:
		b.WriteString(statusStyle.Italic(true).Padding(2, 4).Render("No matches recorded yet."))
	default:
		b.WriteString(panelStyle.Render(m.table.View()))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}
