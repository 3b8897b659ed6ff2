package multiplayer

import (
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/games/pong"
	"github.com/vovakirdan/pong-arena/internal/match"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

type eventLog struct {
	events  []protocol.Event
	results []protocol.MatchRecord
}

func (l *eventLog) emit(e protocol.Event) {
	l.events = append(l.events, e)
}

func (l *eventLog) save(rec protocol.MatchRecord) {
	l.results = append(l.results, rec)
}

func (l *eventLog) count(typ string) int {
	n := 0
	for _, e := range l.events {
		if e.EventType() == typ {
			n++
		}
	}
	return n
}

func newTestMatchRoom(mode match.Mode) (*matchRoom, *eventLog) {
	l := &eventLog{}
	p := pong.DefaultParams()
	p.Seed = 7
	e := match.New(mode, match.WithParams(p))
	return newMatchRoom("local_match-test", "p1", e, l.emit, l.save), l
}

// finishAsSeat1 puts seat 1 one point from victory and the ball past seat 2.
func finishAsSeat1(r *matchRoom) {
	s := r.engine.State()
	s.Scores[0] = s.Params().WinScore - 1
	s.Ball.X = pong.FieldWidth
	s.Ball.VX = 5
}

func TestMatchRoomSeats(t *testing.T) {
	tests := []struct {
		name  string
		mode  match.Mode
		joins []core.Identity
		seats []core.Seat
	}{
		{"casual", match.ModeCasual, []core.Identity{"p1", "p2", "p3"}, []core.Seat{core.Seat1, core.Seat2, core.NoSeat}},
		{"ai", match.ModeAI, []core.Identity{"p1", "p2"}, []core.Seat{core.Seat1, core.NoSeat}},
		{"rejoin", match.ModeCasual, []core.Identity{"p1", "p1"}, []core.Seat{core.Seat1, core.Seat1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestMatchRoom(tt.mode)
			for i, id := range tt.joins {
				if got := r.join(id); got != tt.seats[i] {
					t.Errorf("join(%s) = %v, expected %v", id, got, tt.seats[i])
				}
			}
		})
	}
}

func TestMatchRoomSpectatorCannotControl(t *testing.T) {
	r, _ := newTestMatchRoom(match.ModeAI)
	r.join("p1")
	r.join("watcher")

	for _, cmd := range []protocol.Command{protocol.PauseGame{}, protocol.ResumeGame{}, protocol.RestartGame{}} {
		if err := r.handle("watcher", cmd); !errors.Is(err, ErrSpectator) {
			t.Errorf("handle(%s) error = %v, expected %v", cmd.CommandType(), err, ErrSpectator)
		}
	}
	if !r.engine.Paused() {
		t.Error("spectator commands should not start the match")
	}
}

func TestMatchRoomRejectsTournamentCommands(t *testing.T) {
	r, _ := newTestMatchRoom(match.ModeCasual)
	r.join("p1")
	for _, cmd := range []protocol.Command{protocol.RegisterPlayer{DisplayName: "x"}, protocol.StartTournament{}, protocol.PlayerReady{}} {
		if err := r.handle("p1", cmd); !errors.Is(err, ErrUnsupported) {
			t.Errorf("handle(%s) error = %v, expected %v", cmd.CommandType(), err, ErrUnsupported)
		}
	}
}

func TestMatchRoomPauseResume(t *testing.T) {
	r, l := newTestMatchRoom(match.ModeAI)
	r.join("p1")

	if err := r.handle("p1", protocol.ResumeGame{}); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if r.engine.Paused() {
		t.Fatal("match should be running after resume")
	}
	r.tick(time.Second / 60)
	if r.status().phase != "playing" {
		t.Errorf("phase = %q, expected playing", r.status().phase)
	}

	if err := r.handle("p1", protocol.PauseGame{}); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if r.status().phase != "paused" {
		t.Errorf("phase = %q, expected paused", r.status().phase)
	}
	before := l.count(protocol.TypeStateUpdate)
	r.tick(time.Second / 60)
	if l.count(protocol.TypeStateUpdate) != before {
		t.Error("paused match should not broadcast state")
	}
	if l.count(protocol.TypeMatchPaused) != 1 || l.count(protocol.TypeMatchResumed) != 1 {
		t.Errorf("paused/resumed events = %d/%d, expected 1/1",
			l.count(protocol.TypeMatchPaused), l.count(protocol.TypeMatchResumed))
	}
}

func TestMatchRoomHotSeat(t *testing.T) {
	r, _ := newTestMatchRoom(match.ModeCasual)
	r.join("p1")
	_ = r.handle("p1", protocol.ResumeGame{})

	before := r.engine.State().Paddles[1].Offset
	if err := r.handle("p1", protocol.PlayerMove{Direction: core.DirUp, Seat: core.Seat2}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if r.engine.State().Paddles[1].Offset >= before {
		t.Error("hot-seat player should drive the free seat")
	}

	r.join("p2")
	before = r.engine.State().Paddles[1].Offset
	_ = r.handle("p1", protocol.PlayerMove{Direction: core.DirDown, Seat: core.Seat2})
	if r.engine.State().Paddles[1].Offset != before {
		t.Error("occupied seat should not be driven by another player")
	}
}

func TestMatchRoomReportsOnce(t *testing.T) {
	r, l := newTestMatchRoom(match.ModeAI)
	r.join("p1")
	_ = r.handle("p1", protocol.ResumeGame{})
	finishAsSeat1(r)

	r.tick(time.Second / 60)
	r.tick(time.Second / 60)

	if !r.engine.GameOver() {
		t.Fatal("match should be over")
	}
	if len(l.results) != 1 {
		t.Fatalf("saved %d results, expected 1", len(l.results))
	}
	rec := l.results[0]
	if rec.WinnerID != "p1" || rec.Participant2.ID != string(match.AIIdentity) || rec.IsTournament {
		t.Errorf("record = %+v, expected p1 beating the CPU in a casual record", rec)
	}
	if rec.RoomID != "local_match-test" {
		t.Errorf("RoomID = %q, expected local_match-test", rec.RoomID)
	}
	if l.count(protocol.TypeMatchResult) != 1 {
		t.Errorf("match_result events = %d, expected 1", l.count(protocol.TypeMatchResult))
	}
	if r.status().phase != "finished" {
		t.Errorf("phase = %q, expected finished", r.status().phase)
	}
}

func TestMatchRoomHotSeatGuestWins(t *testing.T) {
	r, l := newTestMatchRoom(match.ModeCasual)
	r.join("p1")
	_ = r.handle("p1", protocol.ResumeGame{})
	s := r.engine.State()
	s.Scores[1] = s.Params().WinScore - 1
	s.Ball.X = 0
	s.Ball.VX = -5

	r.tick(time.Second / 60)
	if len(l.results) != 1 || l.results[0].WinnerID != string(guestID) {
		t.Fatalf("results = %+v, expected one win for %s", l.results, guestID)
	}
}

func TestMatchRoomRestart(t *testing.T) {
	r, l := newTestMatchRoom(match.ModeAI)
	r.join("p1")
	_ = r.handle("p1", protocol.ResumeGame{})
	finishAsSeat1(r)
	r.tick(time.Second / 60)

	if err := r.handle("p1", protocol.RestartGame{}); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if r.engine.GameOver() || r.engine.Paused() {
		t.Error("restart should start a fresh running match")
	}
	if s1, s2 := r.engine.Scores(); s1 != 0 || s2 != 0 {
		t.Errorf("Scores() = %d-%d, expected 0-0", s1, s2)
	}

	finishAsSeat1(r)
	r.tick(time.Second / 60)
	if len(l.results) != 2 {
		t.Errorf("saved %d results, expected 2 after a restarted match", len(l.results))
	}
}

func TestMatchRoomLeavePausesAndTransfersHost(t *testing.T) {
	r, l := newTestMatchRoom(match.ModeCasual)
	r.join("p1")
	r.join("p2")
	_ = r.handle("p1", protocol.ResumeGame{})

	r.leave("p1", []core.Identity{"p2"})
	if !r.engine.Paused() {
		t.Error("match should pause when a player leaves")
	}
	if l.count(protocol.TypeMatchPaused) != 1 {
		t.Errorf("match_paused events = %d, expected 1", l.count(protocol.TypeMatchPaused))
	}
	if r.status().host != "p2" {
		t.Errorf("host = %q, expected p2", r.status().host)
	}
}
