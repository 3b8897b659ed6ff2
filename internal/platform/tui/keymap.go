package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds every binding of the client. Seat 1 uses W/S and seat 2 the
// arrow keys, so two people can share one keyboard.
type KeyMap struct {
	Up1     key.Binding
	Down1   key.Binding
	Up2     key.Binding
	Down2   key.Binding
	Pause   key.Binding
	Resume  key.Binding
	Restart key.Binding
	Ready1  key.Binding
	Ready2  key.Binding
	Start   key.Binding
	AddName key.Binding
	Leave   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up1: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w/s", "left paddle"),
		),
		Down1: key.NewBinding(
			key.WithKeys("s"),
		),
		Up2: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑/↓", "right paddle"),
		),
		Down2: key.NewBinding(
			key.WithKeys("down"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause"),
		),
		Resume: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "resume"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart"),
		),
		Ready1: key.NewBinding(
			key.WithKeys("enter", "1"),
			key.WithHelp("enter/1", "ready"),
		),
		Ready2: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "ready right"),
		),
		Start: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "start tournament"),
		),
		AddName: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "register"),
		),
		Leave: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "leave"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up1, k.Up2, k.Pause, k.Resume, k.Leave, k.Help}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up1, k.Up2, k.Pause, k.Resume, k.Restart},
		{k.AddName, k.Start, k.Ready1, k.Ready2},
		{k.Leave, k.Quit},
	}
}

// MenuKeyMap holds the bindings of the menu and history screens.
type MenuKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Select key.Binding
	Back   key.Binding
	Quit   key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k MenuKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Select, k.Back, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k MenuKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Select, k.Back, k.Quit},
	}
}

// DefaultMenuKeyMap returns default menu bindings.
func DefaultMenuKeyMap() MenuKeyMap {
	return MenuKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k", "w"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j", "s"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/→", "difficulty"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
