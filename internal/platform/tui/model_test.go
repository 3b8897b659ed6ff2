package tui

import (
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/protocol"
	"github.com/vovakirdan/pong-arena/internal/storage"
)

// fakeConn records sent commands.
type fakeConn struct {
	mu     sync.Mutex
	sent   []protocol.Command
	events chan protocol.Event
	done   chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		events: make(chan protocol.Event, 16),
		done:   make(chan struct{}),
	}
}

func (c *fakeConn) Send(cmd protocol.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, cmd)
	return nil
}

func (c *fakeConn) Events() <-chan protocol.Event { return c.events }
func (c *fakeConn) Done() <-chan struct{}         { return c.done }
func (c *fakeConn) Close()                        {}

func (c *fakeConn) last() protocol.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return nil
	}
	return c.sent[len(c.sent)-1]
}

// run executes cmd and any batched commands, skipping ones that block.
func run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			run(c)
		}
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSelectionCommand(t *testing.T) {
	tests := []struct {
		name     string
		sel      Selection
		expected protocol.Command
	}{
		{"cpu", Selection{Action: ActionVsCPU, Difficulty: "hard"},
			protocol.CreateSession{Kind: protocol.KindLocalMatch, Mode: "ai", Difficulty: "hard"}},
		{"hotseat", Selection{Action: ActionHotseat},
			protocol.CreateSession{Kind: protocol.KindLocalMatch, Mode: "hotseat"}},
		{"local tournament", Selection{Action: ActionLocalTournament},
			protocol.CreateSession{Kind: protocol.KindLocalTournament}},
		{"host", Selection{Action: ActionHostTournament},
			protocol.CreateSession{Kind: protocol.KindRemoteTournament}},
		{"join", Selection{Action: ActionJoinRoom, RoomID: "r1"}, protocol.JoinRoom{RoomID: "r1"}},
		{"history", Selection{Action: ActionHistory}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sel.Command(); got != tt.expected {
				t.Errorf("Command() = %#v, expected %#v", got, tt.expected)
			}
		})
	}
}

func TestMenuCyclesDifficulty(t *testing.T) {
	m := NewMenuModel([]string{"easy", "normal", "hard"}, 80, 24)
	if m.Difficulty() != "normal" {
		t.Fatalf("Difficulty() = %q, expected normal", m.Difficulty())
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.Difficulty() != "hard" {
		t.Errorf("after right Difficulty() = %q, expected hard", m.Difficulty())
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.Difficulty() != "easy" {
		t.Errorf("after wrap Difficulty() = %q, expected easy", m.Difficulty())
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.Difficulty() != "hard" {
		t.Errorf("after left Difficulty() = %q, expected hard", m.Difficulty())
	}
}

func TestMenuJoinPrompt(t *testing.T) {
	m := NewMenuModel(nil, 80, 24)
	for range 4 {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.joining {
		t.Fatal("selecting Join room should open the prompt")
	}
	m, _ = m.Update(keyRunes("room-42"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	sel := m.Selected()
	if sel == nil || sel.Action != ActionJoinRoom || sel.RoomID != "room-42" {
		t.Errorf("Selected() = %+v, expected join of room-42", sel)
	}
}

func TestModelStartsHotseatMatch(t *testing.T) {
	conn := newFakeConn()
	var tm tea.Model = NewModel(Options{Conn: conn, Width: 80, Height: 24})

	tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyDown})
	tm, cmd := tm.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(cmd)

	m := tm.(Model)
	if m.Screen() != ScreenRoom {
		t.Fatalf("Screen() = %v, expected room", m.Screen())
	}
	expected := protocol.CreateSession{Kind: protocol.KindLocalMatch, Mode: "hotseat"}
	if got := conn.last(); got != expected {
		t.Fatalf("sent %#v, expected %#v", got, expected)
	}

	tm, _ = tm.Update(eventMsg{protocol.SessionCreated{RoomID: "local_match-1", Kind: protocol.KindLocalMatch, Mode: "hotseat"}})
	tm, _ = tm.Update(eventMsg{protocol.RoomJoined{RoomID: "local_match-1", Kind: protocol.KindLocalMatch, Seat: 1}})

	_, cmd = tm.Update(tea.KeyMsg{Type: tea.KeyUp})
	run(cmd)
	if got := conn.last(); got != (protocol.PlayerMove{Direction: core.DirUp, Seat: core.Seat2}) {
		t.Errorf("arrow up sent %#v, expected a seat 2 move", got)
	}
	_, cmd = tm.Update(keyRunes("s"))
	run(cmd)
	if got := conn.last(); got != (protocol.PlayerMove{Direction: core.DirDown, Seat: core.Seat1}) {
		t.Errorf("s sent %#v, expected a seat 1 move", got)
	}
}

func TestModelLeavesRoom(t *testing.T) {
	conn := newFakeConn()
	var tm tea.Model = NewModel(Options{Conn: conn, Width: 80, Height: 24})
	tm, cmd := tm.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(cmd)
	tm, _ = tm.Update(eventMsg{protocol.SessionCreated{RoomID: "r1", Kind: protocol.KindLocalMatch, Mode: "ai"}})

	tm, cmd = tm.Update(tea.KeyMsg{Type: tea.KeyEsc})
	run(cmd)
	if tm.(Model).Screen() != ScreenMenu {
		t.Errorf("Screen() = %v, expected menu after leaving", tm.(Model).Screen())
	}
	if got := conn.last(); got != (protocol.LeaveRoom{}) {
		t.Errorf("sent %#v, expected LeaveRoom", got)
	}
}

func TestModelReattachesOnRoomJoined(t *testing.T) {
	conn := newFakeConn()
	var tm tea.Model = NewModel(Options{Conn: conn, Width: 80, Height: 24})
	tm, _ = tm.Update(eventMsg{protocol.RoomJoined{RoomID: "remote_tournament-1", Kind: protocol.KindRemoteTournament, Seat: 1}})
	if tm.(Model).Screen() != ScreenRoom {
		t.Errorf("Screen() = %v, expected room", tm.(Model).Screen())
	}
}

func TestModelQuitsOnDisconnect(t *testing.T) {
	conn := newFakeConn()
	var tm tea.Model = NewModel(Options{Conn: conn, Width: 80, Height: 24})
	close(conn.done)

	msg := waitForEvent(conn)()
	if _, ok := msg.(disconnectedMsg); !ok {
		t.Fatalf("waitForEvent() = %#v, expected disconnectedMsg", msg)
	}
	tm, _ = tm.Update(msg)
	if !strings.Contains(tm.View(), "disconnected") {
		t.Errorf("View() = %q, expected a disconnected notice", tm.View())
	}
}

func TestRoomIgnoresStaleEvents(t *testing.T) {
	r := NewRoomModel(newFakeConn(), protocol.KindLocalMatch, "ai", 80, 24)
	r = r.apply(protocol.RoomLeft{RoomID: "old"})
	r = r.apply(protocol.StateUpdate{Snapshot: newSnapshot()})
	if r.Left() || r.snapshot != nil {
		t.Error("events before the room is confirmed should be ignored")
	}

	r = r.apply(protocol.SessionCreated{RoomID: "new", Kind: protocol.KindLocalMatch})
	r = r.apply(protocol.RoomLeft{RoomID: "old"})
	if r.Left() {
		t.Error("RoomLeft of another room should be ignored")
	}
	r = r.apply(protocol.RoomLeft{RoomID: "new"})
	if !r.Left() {
		t.Error("RoomLeft of the current room should leave")
	}
}

func TestRoomLocalTournamentAddressesPlayers(t *testing.T) {
	conn := newFakeConn()
	r := NewRoomModel(conn, protocol.KindLocalTournament, "", 100, 30)
	r = r.apply(protocol.SessionCreated{RoomID: "t1", Kind: protocol.KindLocalTournament})

	r, _ = r.Update(keyRunes("n"))
	if !r.naming {
		t.Fatal("n should open the name prompt")
	}
	r, _ = r.Update(keyRunes("Ann"))
	r, cmd := r.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(cmd)
	if got := conn.last(); got != (protocol.RegisterPlayer{DisplayName: "Ann"}) {
		t.Fatalf("sent %#v, expected RegisterPlayer Ann", got)
	}

	r = r.apply(protocol.MatchAnnouncement{
		Player1: protocol.Player{ID: "p1", Name: "Ann"},
		Player2: protocol.Player{ID: "p2", Name: "Bob"},
	})

	tests := []struct {
		name     string
		msg      tea.KeyMsg
		expected protocol.Command
	}{
		{"ready left", tea.KeyMsg{Type: tea.KeyEnter}, protocol.PlayerReady{Player: "p1"}},
		{"ready right", keyRunes("2"), protocol.PlayerReady{Player: "p2"}},
		{"left up", keyRunes("w"), protocol.PlayerMove{Direction: core.DirUp, Player: "p1"}},
		{"right down", tea.KeyMsg{Type: tea.KeyDown}, protocol.PlayerMove{Direction: core.DirDown, Player: "p2"}},
		{"start", keyRunes("t"), protocol.StartTournament{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cmd := r.Update(tt.msg)
			run(cmd)
			if got := conn.last(); got != tt.expected {
				t.Errorf("sent %#v, expected %#v", got, tt.expected)
			}
		})
	}
}

func TestRoomRemoteMovesOwnPaddle(t *testing.T) {
	conn := newFakeConn()
	r := NewRoomModel(conn, protocol.KindRemoteTournament, "", 80, 24)
	r = r.apply(protocol.RoomJoined{RoomID: "t1", Kind: protocol.KindRemoteTournament, Seat: 1})

	for _, msg := range []tea.KeyMsg{keyRunes("w"), {Type: tea.KeyUp}} {
		_, cmd := r.Update(msg)
		run(cmd)
		if got := conn.last(); got != (protocol.PlayerMove{Direction: core.DirUp}) {
			t.Errorf("%s sent %#v, expected an unaddressed move", msg, got)
		}
	}
}

func TestRoomViewShowsBracket(t *testing.T) {
	a := protocol.Player{ID: "a", Name: "Ann"}
	b := protocol.Player{ID: "b", Name: "Bob"}
	c := protocol.Player{ID: "c", Name: "Cid"}

	r := NewRoomModel(newFakeConn(), protocol.KindRemoteTournament, "", 120, 30)
	r = r.apply(protocol.RoomJoined{RoomID: "t1", Kind: protocol.KindRemoteTournament})
	r = r.apply(protocol.TournamentBracket{Bracket: protocol.BracketView{
		Phase:        "announcing",
		Host:         "a",
		Participants: []protocol.Player{a, b, c},
		Rounds: [][]protocol.MatchupView{{
			{A: &a, B: &b, IsCurrent: true},
			{A: &c, Winner: &c, IsBye: true, IsComplete: true},
		}},
	}})
	r = r.apply(protocol.ReadyUpdate{Ready: []protocol.Player{a}})

	view := r.View()
	for _, want := range []string{"Ann* vs Bob", "Cid (bye)", "phase: announcing"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

type fakeHistory struct {
	entries []storage.MatchEntry
}

func (f fakeHistory) RecentMatches(int) ([]storage.MatchEntry, error) {
	return f.entries, nil
}

func TestHistoryRows(t *testing.T) {
	entries := []storage.MatchEntry{
		{Player1ID: "a", Player1Name: "Ann", Player2ID: "b", Player2Name: "Bob", Score1: 5, Score2: 2, WinnerID: "a"},
		{Player1ID: "a", Player1Name: "Ann", Player2ID: "c", Player2Name: "Cid", WinnerID: "c", IsTournament: true, Round: 1},
		{Player1ID: "a", Player1Name: "Ann", Player2ID: "d", Player2Name: "Dan", WinnerID: "a", IsTournament: true, Forfeit: true},
	}
	m := NewHistoryModel(fakeHistory{entries: entries}, 100, 30)
	rows := m.table.Rows()
	if len(rows) != 3 {
		t.Fatalf("Rows() = %d, expected 3", len(rows))
	}

	tests := []struct {
		row              int
		score, win, kind string
	}{
		{0, "5-2", "Ann", "match"},
		{1, "0-0", "Cid", "round 2"},
		{2, "0-0", "Ann", "forfeit"},
	}
	for _, tt := range tests {
		r := rows[tt.row]
		if r[2] != tt.score || r[4] != tt.win || r[5] != tt.kind {
			t.Errorf("row %d = %v, expected score %s winner %s type %s", tt.row, r, tt.score, tt.win, tt.kind)
		}
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !m.Back() {
		t.Error("esc should leave the history screen")
	}
}

func TestSessionIdentity(t *testing.T) {
	tests := []struct {
		user     string
		nanos    int64
		expected core.Identity
	}{
		{"", 5, "ssh-anon-5"},
		{"bob", 7, "ssh-bob-7"},
	}
	for _, tt := range tests {
		if id := sessionIdentity(tt.user, time.Unix(0, tt.nanos)); id != tt.expected {
			t.Errorf("sessionIdentity(%q) = %q, expected %q", tt.user, id, tt.expected)
		}
	}
}
