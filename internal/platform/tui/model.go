// Package tui is the terminal client of the arena. The same Bubble Tea model
// runs locally, over SSH and against a remote server through a WebSocket.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// Screen identifies the active view.
type Screen int

const (
	ScreenMenu Screen = iota
	ScreenRoom
	ScreenHistory
)

// eventMsg wraps a server event for the update loop.
type eventMsg struct {
	evt protocol.Event
}

// disconnectedMsg is sent once the connection ends.
type disconnectedMsg struct{}

// waitForEvent returns a command that waits for the next server event.
func waitForEvent(conn Conn) tea.Cmd {
	return func() tea.Msg {
		select {
		case evt, ok := <-conn.Events():
			if !ok {
				return disconnectedMsg{}
			}
			return eventMsg{evt: evt}
		case <-conn.Done():
			return disconnectedMsg{}
		}
	}
}

// Options configures a client model.
type Options struct {
	Conn         Conn
	History      HistorySource // optional
	Difficulties []string
	Width        int
	Height       int
}

// Model is the root Bubble Tea model. It switches between the menu, a room
// and the history table, and feeds server events to the room.
type Model struct {
	conn    Conn
	history HistorySource
	screen  Screen

	menu  MenuModel
	room  RoomModel
	table HistoryModel

	notice       string
	disconnected bool
	width        int
	height       int
}

// NewModel creates the root model.
func NewModel(opts Options) Model {
	return Model{
		conn:    opts.Conn,
		history: opts.History,
		screen:  ScreenMenu,
		menu:    NewMenuModel(opts.Difficulties, opts.Width, opts.Height),
		width:   opts.Width,
		height:  opts.Height,
	}
}

// Screen returns the active view.
func (m Model) Screen() Screen {
	return m.screen
}

// Init starts listening for server events.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.conn)
}

// Update routes messages to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m = m.handleEvent(msg.evt)
		return m, waitForEvent(m.conn)
	case disconnectedMsg:
		m.disconnected = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	var cmd tea.Cmd
	switch m.screen {
	case ScreenMenu:
		m.menu, cmd = m.menu.Update(msg)
		return m.afterMenu(cmd)
	case ScreenRoom:
		m.room, cmd = m.room.Update(msg)
		if m.room.Left() {
			m.screen = ScreenMenu
		}
	case ScreenHistory:
		m.table, cmd = m.table.Update(msg)
		if m.table.Back() {
			m.screen = ScreenMenu
		}
	}
	return m, cmd
}

func (m Model) handleEvent(evt protocol.Event) Model {
	switch m.screen {
	case ScreenRoom:
		m.room = m.room.apply(evt)
		if m.room.Left() {
			m.screen = ScreenMenu
		}
	default:
		switch e := evt.(type) {
		case protocol.RoomJoined:
			// A resumed identity is put back into its room without asking.
			m.room = NewRoomModel(m.conn, e.Kind, "", m.width, m.height).apply(e)
			m.screen = ScreenRoom
			m.notice = ""
		case protocol.Error:
			m.notice = e.Reason
		}
	}
	return m
}

func (m Model) afterMenu(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	sel := m.menu.Selected()
	if sel == nil {
		return m, cmd
	}
	m.menu.selected = nil

	switch sel.Action {
	case ActionQuit:
		return m, tea.Quit
	case ActionHistory:
		m.table = NewHistoryModel(m.history, m.width, m.height)
		m.screen = ScreenHistory
		return m, cmd
	}

	start := sel.Command()
	if start == nil {
		return m, cmd
	}
	kind, mode := "", ""
	if c, ok := start.(protocol.CreateSession); ok {
		kind, mode = c.Kind, c.Mode
	}
	m.room = NewRoomModel(m.conn, kind, mode, m.width, m.height)
	m.screen = ScreenRoom
	m.notice = ""
	return m, tea.Batch(cmd, send(m.conn, start))
}

// View renders the active view.
func (m Model) View() string {
	if m.disconnected {
		return "disconnected\n"
	}
	switch m.screen {
	case ScreenRoom:
		return m.room.View()
	case ScreenHistory:
		return m.table.View()
	default:
		v := m.menu.View()
		if m.notice != "" {
			v += "\n" + errorStyle.Render(m.notice)
		}
		return v
	}
}

// Run runs the client in the current terminal until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
