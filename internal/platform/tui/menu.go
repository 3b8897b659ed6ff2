package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// MenuAction is what the user picked in the menu.
type MenuAction int

const (
	ActionNone MenuAction = iota
	ActionVsCPU
	ActionHotseat
	ActionLocalTournament
	ActionHostTournament
	ActionJoinRoom
	ActionHistory
	ActionQuit
)

// MenuItem is one menu entry.
type MenuItem struct {
	Title  string
	Action MenuAction
}

var menuItems = []MenuItem{
	{"Play vs CPU", ActionVsCPU},
	{"Hot-seat match", ActionHotseat},
	{"Local tournament", ActionLocalTournament},
	{"Host online tournament", ActionHostTournament},
	{"Join room", ActionJoinRoom},
	{"Match history", ActionHistory},
	{"Quit", ActionQuit},
}

// Selection is a confirmed menu choice.
type Selection struct {
	Action     MenuAction
	Difficulty string
	RoomID     string
}

// Command returns the command that starts the selection, or nil when it is
// not a room action.
func (s Selection) Command() protocol.Command {
	switch s.Action {
	case ActionVsCPU:
		return protocol.CreateSession{Kind: protocol.KindLocalMatch, Mode: "ai", Difficulty: s.Difficulty}
	case ActionHotseat:
		return protocol.CreateSession{Kind: protocol.KindLocalMatch, Mode: "hotseat"}
	case ActionLocalTournament:
		return protocol.CreateSession{Kind: protocol.KindLocalTournament}
	case ActionHostTournament:
		return protocol.CreateSession{Kind: protocol.KindRemoteTournament}
	case ActionJoinRoom:
		return protocol.JoinRoom{RoomID: s.RoomID}
	default:
		return nil
	}
}

// MenuModel is the main menu.
type MenuModel struct {
	items        []MenuItem
	cursor       int
	difficulties []string
	difficulty   int
	keys         MenuKeyMap
	help         help.Model
	input        textinput.Model
	joining      bool
	selected     *Selection
	width        int
	height       int
}

// NewMenuModel creates a menu. difficulties are the selectable AI presets;
// the middle one is preselected.
func NewMenuModel(difficulties []string, width, height int) MenuModel {
	if len(difficulties) == 0 {
		difficulties = []string{"normal"}
	}
	ti := textinput.New()
	ti.Placeholder = "room id"
	ti.CharLimit = 64
	ti.Width = 40

	return MenuModel{
		items:        menuItems,
		difficulties: difficulties,
		difficulty:   len(difficulties) / 2,
		keys:         DefaultMenuKeyMap(),
		help:         help.New(),
		input:        ti,
		width:        width,
		height:       height,
	}
}

// Difficulty returns the selected AI preset name.
func (m MenuModel) Difficulty() string {
	return m.difficulties[m.difficulty]
}

// Selected returns the confirmed choice, if any.
func (m MenuModel) Selected() *Selection {
	return m.selected
}

// Update handles menu input.
func (m MenuModel) Update(msg tea.Msg) (MenuModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.joining {
			return m.updateJoin(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m MenuModel) handleKey(msg tea.KeyMsg) (MenuModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.selected = &Selection{Action: ActionQuit}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Left):
		if m.items[m.cursor].Action == ActionVsCPU {
			m.difficulty = (m.difficulty + len(m.difficulties) - 1) % len(m.difficulties)
		}
	case key.Matches(msg, m.keys.Right):
		if m.items[m.cursor].Action == ActionVsCPU {
			m.difficulty = (m.difficulty + 1) % len(m.difficulties)
		}
	case key.Matches(msg, m.keys.Select):
		action := m.items[m.cursor].Action
		switch action {
		case ActionJoinRoom:
			m.joining = true
			cmd := m.input.Focus()
			return m, cmd
		case ActionQuit:
			m.selected = &Selection{Action: ActionQuit}
			return m, tea.Quit
		}
		m.selected = &Selection{Action: action, Difficulty: m.Difficulty()}
	}
	return m, nil
}

func (m MenuModel) updateJoin(msg tea.KeyMsg) (MenuModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		id := strings.TrimSpace(m.input.Value())
		if id == "" {
			return m, nil
		}
		m.joining = false
		m.input.Blur()
		m.input.Reset()
		m.selected = &Selection{Action: ActionJoinRoom, RoomID: id}
		return m, nil
	case tea.KeyEsc:
		m.joining = false
		m.input.Blur()
		m.input.Reset()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the menu.
func (m MenuModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(headerStyle.Render(centerText("  P O N G   A R E N A  ", m.width)))
	b.WriteString("\n\n")

	for i, item := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		line := cursor + item.Title
		if item.Action == ActionVsCPU {
			line += fmt.Sprintf("  < %s >", m.Difficulty())
		}
		b.WriteString(centerText(line, m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.joining {
		b.WriteString(centerText("room: "+m.input.View(), m.width))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// centerText centers text within given width.
func centerText(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}
