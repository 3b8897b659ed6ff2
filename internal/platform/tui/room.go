package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/games/pong"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// Lines reserved around the field for the header, status and help rows.
const roomChromeLines = 6

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	panelStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// sendMsg reports a command the connection refused.
type sendMsg struct{ err error }

// send delivers cmd off the update loop.
func send(conn Conn, cmd protocol.Command) tea.Cmd {
	return func() tea.Msg {
		if err := conn.Send(cmd); err != nil {
			return sendMsg{err: err}
		}
		return nil
	}
}

// RoomModel is the in-room screen: a match, a tournament lobby or a bracket
// between matches. It folds server events into what it draws.
type RoomModel struct {
	conn  Conn
	keys  KeyMap
	help  help.Model
	input textinput.Model

	naming bool // name input is focused
	left   bool // user asked to leave

	roomID string
	kind   string
	mode   string
	seat   int

	snapshot     *pong.Snapshot
	bracket      *protocol.BracketView
	announcement *protocol.MatchAnnouncement
	ready        []protocol.Player
	result       *protocol.MatchRecord
	countdown    int
	status       string
	errMsg       string

	width  int
	height int
}

// NewRoomModel creates the room screen for a session of the given kind.
func NewRoomModel(conn Conn, kind, mode string, width, height int) RoomModel {
	ti := textinput.New()
	ti.Placeholder = "display name"
	ti.CharLimit = 24
	ti.Width = 24

	h := help.New()
	h.ShowAll = false

	return RoomModel{
		conn:   conn,
		keys:   DefaultKeyMap(),
		help:   h,
		input:  ti,
		kind:   kind,
		mode:   mode,
		status: "connecting...",
		width:  width,
		height: height,
	}
}

func (m RoomModel) tournament() bool {
	return m.kind == protocol.KindLocalTournament || m.kind == protocol.KindRemoteTournament
}

func (m RoomModel) hotseat() bool {
	return m.kind == protocol.KindLocalMatch && (m.mode == "hotseat" || m.mode == "pvp")
}

// Left reports whether the user left the room.
func (m RoomModel) Left() bool {
	return m.left
}

// apply folds one server event into the model.
func (m RoomModel) apply(evt protocol.Event) RoomModel {
	// Until the room is confirmed, anything else is left over from a
	// previous room.
	if m.roomID == "" {
		switch evt.(type) {
		case protocol.SessionCreated, protocol.RoomJoined, protocol.Error:
		default:
			return m
		}
	}
	switch e := evt.(type) {
	case protocol.SessionCreated:
		m.roomID = e.RoomID
		m.kind = e.Kind
		if e.Mode != "" {
			m.mode = e.Mode
		}
		m.status = "room " + e.RoomID
	case protocol.RoomJoined:
		m.roomID = e.RoomID
		m.kind = e.Kind
		m.seat = e.Seat
		if e.Seat == 0 && !m.tournament() {
			m.status = "spectating " + e.RoomID
		} else {
			m.status = "room " + e.RoomID
		}
	case protocol.RoomLeft:
		if e.RoomID == m.roomID {
			m.left = true
		}
	case protocol.StateUpdate:
		s := e.Snapshot
		m.snapshot = &s
		if s.Paused && !s.GameOver && m.result == nil {
			m.status = "paused"
		}
	case protocol.MatchStarted:
		m.result = nil
		m.ready = nil
		m.countdown = 0
		m.status = fmt.Sprintf("%s vs %s", e.Player1.Name, e.Player2.Name)
	case protocol.MatchPaused:
		m.status = "paused"
		if e.Reason != "" {
			m.status += ": " + e.Reason
		}
	case protocol.MatchResumed:
		m.result = nil
		m.status = "playing"
	case protocol.MatchResult:
		rec := e.Record
		m.result = &rec
		m.status = fmt.Sprintf("%s wins %d-%d", winnerName(rec), rec.Score1, rec.Score2)
	case protocol.MatchAnnouncement:
		a := e
		m.announcement = &a
		m.snapshot = nil
		m.ready = nil
		m.status = fmt.Sprintf("round %d: %s vs %s", e.Round+1, e.Player1.Name, e.Player2.Name)
	case protocol.ReadyUpdate:
		m.ready = e.Ready
	case protocol.CountdownUpdate:
		m.countdown = e.Seconds
	case protocol.TournamentBracket:
		b := e.Bracket
		m.bracket = &b
	case protocol.MatchForfeit:
		m.status = fmt.Sprintf("%s forfeits to %s", e.Loser.Name, e.Winner.Name)
	case protocol.MatchCancelled:
		m.status = "match cancelled: " + e.Reason
		m.announcement = nil
		m.snapshot = nil
	case protocol.TournamentOver:
		m.announcement = nil
		m.snapshot = nil
		if e.Champion != nil {
			m.status = "champion: " + e.Champion.Name
		} else {
			m.status = "tournament over"
		}
	case protocol.TournamentCancelled:
		m.announcement = nil
		m.snapshot = nil
		m.status = "tournament cancelled: " + e.Reason
	case protocol.Error:
		m.errMsg = e.Reason
		return m
	}
	m.errMsg = ""
	return m
}

func winnerName(rec protocol.MatchRecord) string {
	switch rec.WinnerID {
	case rec.Participant1.ID:
		return rec.Participant1.Name
	case rec.Participant2.ID:
		return rec.Participant2.Name
	default:
		return rec.WinnerID
	}
}

// Update handles keys and resizes. Server events go through apply.
func (m RoomModel) Update(msg tea.Msg) (RoomModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case sendMsg:
		m.errMsg = msg.err.Error()
		return m, nil
	case tea.KeyMsg:
		if m.naming {
			return m.updateNaming(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m RoomModel) updateNaming(msg tea.KeyMsg) (RoomModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		name := strings.TrimSpace(m.input.Value())
		m.naming = false
		m.input.Blur()
		m.input.Reset()
		if name == "" {
			return m, nil
		}
		return m, send(m.conn, protocol.RegisterPlayer{DisplayName: name})
	case tea.KeyEsc:
		m.naming = false
		m.input.Blur()
		m.input.Reset()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m RoomModel) handleKey(msg tea.KeyMsg) (RoomModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Leave):
		m.left = true
		if m.roomID == "" {
			return m, nil
		}
		return m, send(m.conn, protocol.LeaveRoom{})
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Pause):
		return m, send(m.conn, protocol.PauseGame{})
	case key.Matches(msg, m.keys.Resume):
		return m, send(m.conn, protocol.ResumeGame{})
	case key.Matches(msg, m.keys.Restart):
		return m, send(m.conn, protocol.RestartGame{})
	}

	if cmd := m.moveCommand(msg); cmd != nil {
		return m, send(m.conn, cmd)
	}

	if !m.tournament() {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.AddName):
		m.naming = true
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Start):
		return m, send(m.conn, protocol.StartTournament{})
	case key.Matches(msg, m.keys.Ready1):
		return m, send(m.conn, protocol.PlayerReady{Player: m.announcedID(core.Seat1)})
	case key.Matches(msg, m.keys.Ready2):
		if m.kind != protocol.KindLocalTournament {
			return m, nil
		}
		return m, send(m.conn, protocol.PlayerReady{Player: m.announcedID(core.Seat2)})
	}
	return m, nil
}

// announcedID names the participant on a seat of the announced matchup. Only
// local tournaments address players explicitly.
func (m RoomModel) announcedID(seat core.Seat) string {
	if m.kind != protocol.KindLocalTournament || m.announcement == nil {
		return ""
	}
	if seat == core.Seat2 {
		return m.announcement.Player2.ID
	}
	return m.announcement.Player1.ID
}

// moveCommand maps a key to a paddle move, or nil. W/S drive the left paddle
// and the arrows the right one when both players share the keyboard;
// otherwise either pair drives the player's own paddle.
func (m RoomModel) moveCommand(msg tea.KeyMsg) protocol.Command {
	var (
		dir  core.Direction
		seat core.Seat
	)
	switch {
	case key.Matches(msg, m.keys.Up1):
		dir, seat = core.DirUp, core.Seat1
	case key.Matches(msg, m.keys.Down1):
		dir, seat = core.DirDown, core.Seat1
	case key.Matches(msg, m.keys.Up2):
		dir, seat = core.DirUp, core.Seat2
	case key.Matches(msg, m.keys.Down2):
		dir, seat = core.DirDown, core.Seat2
	default:
		return nil
	}

	switch {
	case m.hotseat():
		return protocol.PlayerMove{Direction: dir, Seat: seat}
	case m.kind == protocol.KindLocalTournament:
		id := m.announcedID(seat)
		if id == "" {
			return nil
		}
		return protocol.PlayerMove{Direction: dir, Player: id}
	default:
		return protocol.PlayerMove{Direction: dir}
	}
}

// View renders the room.
func (m RoomModel) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(m.title()))
	b.WriteString("\n")
	if m.snapshot != nil {
		b.WriteString(scoreLine(*m.snapshot, m.names()))
		b.WriteString("\n")
		fh := max(m.height-roomChromeLines, minFieldH)
		b.WriteString(RenderField(*m.snapshot, m.width, fh))
		b.WriteString("\n")
	} else if m.tournament() {
		b.WriteString(m.lobbyView())
		b.WriteString("\n")
	}

	if m.countdown > 0 {
		b.WriteString(headerStyle.Render(fmt.Sprintf("starting in %d", m.countdown)))
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n")
	}
	if m.naming {
		b.WriteString("name: " + m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m RoomModel) title() string {
	switch m.kind {
	case protocol.KindLocalTournament:
		return "LOCAL TOURNAMENT"
	case protocol.KindRemoteTournament:
		return "TOURNAMENT " + m.roomID
	}
	if m.hotseat() {
		return "HOT-SEAT MATCH"
	}
	return "MATCH VS CPU"
}

// names returns the labels of the left and right paddles.
func (m RoomModel) names() [2]string {
	if m.announcement != nil {
		return [2]string{m.announcement.Player1.Name, m.announcement.Player2.Name}
	}
	if m.hotseat() {
		return [2]string{"P1", "P2"}
	}
	if m.seat == 2 {
		return [2]string{"CPU", "You"}
	}
	return [2]string{"You", "CPU"}
}

func scoreLine(s pong.Snapshot, names [2]string) string {
	line := fmt.Sprintf("%s %d : %d %s", names[0], s.Scores[0], s.Scores[1], names[1])
	if s.WinScore > 0 {
		line += fmt.Sprintf("   (first to %d)", s.WinScore)
	}
	return line
}

// lobbyView lists participants and the bracket.
func (m RoomModel) lobbyView() string {
	if m.bracket == nil {
		return panelStyle.Render("waiting for the bracket...")
	}
	bv := m.bracket

	var b strings.Builder
	fmt.Fprintf(&b, "phase: %s", bv.Phase)
	if bv.Host != "" {
		fmt.Fprintf(&b, "   host: %s", bv.Host)
	}
	b.WriteString("\n\nPlayers\n")
	if len(bv.Participants) == 0 {
		b.WriteString("  (none yet, press n to register)\n")
	}
	for _, p := range bv.Participants {
		b.WriteString("  " + p.Name + "\n")
	}
	players := b.String()

	if len(bv.Rounds) == 0 {
		return panelStyle.Render(players)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(players), "  ", panelStyle.Render(renderBracket(*bv, m.ready)))
}

// renderBracket draws rounds as columns of matchups.
func renderBracket(bv protocol.BracketView, ready []protocol.Player) string {
	cols := make([]string, 0, len(bv.Rounds))
	for r, round := range bv.Rounds {
		var b strings.Builder
		fmt.Fprintf(&b, "Round %d\n", r+1)
		for _, mu := range round {
			marker := "  "
			if mu.IsCurrent {
				marker = "> "
			}
			switch {
			case mu.IsBye:
				fmt.Fprintf(&b, "%s%s (bye)\n", marker, slotName(mu.A))
			case mu.IsComplete:
				fmt.Fprintf(&b, "%s%s %d-%d %s\n", marker, slotName(mu.A), mu.ScoreA, mu.ScoreB, slotName(mu.B))
			default:
				fmt.Fprintf(&b, "%s%s%s vs %s%s\n", marker,
					slotName(mu.A), readyMark(mu.A, ready), slotName(mu.B), readyMark(mu.B, ready))
			}
		}
		cols = append(cols, b.String())
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top, interleave(cols, "   ")...)
	if bv.Champion != nil {
		out += "\nChampion: " + bv.Champion.Name
	}
	return out
}

func interleave(cols []string, sep string) []string {
	out := make([]string, 0, len(cols)*2)
	for i, c := range cols {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, c)
	}
	return out
}

func slotName(p *protocol.Player) string {
	if p == nil {
		return "?"
	}
	return p.Name
}

func readyMark(p *protocol.Player, ready []protocol.Player) string {
	if p == nil {
		return ""
	}
	for _, r := range ready {
		if r.ID == p.ID {
			return "*"
		}
	}
	return ""
}
