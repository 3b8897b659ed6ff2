package multiplayer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/protocol"
	"github.com/vovakirdan/pong-arena/internal/tournament"
)

func testTournamentConfig() tournament.Config {
	cfg := tournament.DefaultConfig()
	cfg.Countdown = time.Second
	cfg.ForfeitGrace = 2 * time.Second
	cfg.Seed = 1
	cfg.Params.Seed = 1
	return cfg
}

func newLocalRoom(t *testing.T, names ...string) (*tournamentRoom[tournament.LocalID], *eventLog) {
	t.Helper()
	l := &eventLog{}
	r := newTournamentRoom[tournament.LocalID]("local_tournament-test", tournament.Local, "device",
		testTournamentConfig(), l.emit, l.save, nil)
	r.join("device")
	for _, n := range names {
		if err := r.handle("device", protocol.RegisterPlayer{DisplayName: n}); err != nil {
			t.Fatalf("register %s: %v", n, err)
		}
	}
	return r, l
}

func newRemoteRoom(t *testing.T, ids ...core.Identity) (*tournamentRoom[core.Identity], *eventLog) {
	t.Helper()
	l := &eventLog{}
	r := newTournamentRoom[core.Identity]("remote_tournament-test", tournament.Remote, "host",
		testTournamentConfig(), l.emit, l.save, nil)
	for _, id := range ids {
		r.join(id)
		if err := r.handle(id, protocol.RegisterPlayer{DisplayName: string(id)}); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	return r, l
}

func TestLocalTournamentRegistration(t *testing.T) {
	r, _ := newLocalRoom(t, "Ann", "Bob")

	if got := len(r.o.Participants()); got != 2 {
		t.Fatalf("Participants() = %d, expected 2", got)
	}
	if err := r.handle("guest", protocol.RegisterPlayer{DisplayName: "Cid"}); !errors.Is(err, tournament.ErrNotHost) {
		t.Errorf("register from another device error = %v, expected %v", err, tournament.ErrNotHost)
	}
	if err := r.handle("device", protocol.RegisterPlayer{DisplayName: "ann"}); err == nil {
		t.Error("duplicate display name should be rejected")
	}
	for _, p := range r.o.Participants() {
		if !strings.HasPrefix(string(p.ID), "local-") {
			t.Errorf("participant id %q should be device scoped", p.ID)
		}
	}
}

func TestLocalTournamentReadyByName(t *testing.T) {
	r, _ := newLocalRoom(t, "Ann", "Bob")
	if err := r.handle("device", protocol.StartTournament{}); err != nil {
		t.Fatalf("start: %v", err)
	}

	m := r.o.Current()
	if m == nil {
		t.Fatal("expected a current matchup")
	}
	if err := r.handle("device", protocol.PlayerReady{Player: "nobody"}); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("ready for unknown player error = %v, expected %v", err, ErrUnknownPlayer)
	}
	for _, ref := range []string{string(m.A.ID), "ANN", "bob"} {
		if err := r.handle("device", protocol.PlayerReady{Player: ref}); err != nil {
			t.Fatalf("ready %q: %v", ref, err)
		}
	}

	if r.o.Phase() != tournament.PhaseCountdown {
		t.Fatalf("Phase() = %v, expected countdown", r.o.Phase())
	}
	for i := 0; i < 12; i++ {
		r.tick(100 * time.Millisecond)
	}
	if r.o.Phase() != tournament.PhaseInMatch {
		t.Fatalf("Phase() = %v, expected in_match", r.o.Phase())
	}

	e := r.o.Engine()
	seat1 := e.Occupant(core.Seat1)
	name := m.A.Name
	if string(seat1) != string(m.A.ID) {
		name = m.B.Name
	}
	before := e.State().Paddles[0].Offset
	_ = r.handle("device", protocol.PlayerMove{Player: name, Direction: core.DirUp})
	if e.State().Paddles[0].Offset >= before {
		t.Error("move by name should drive that player's paddle")
	}
}

func TestLocalTournamentIgnoresDisconnect(t *testing.T) {
	r, _ := newLocalRoom(t, "Ann", "Bob")
	_ = r.handle("device", protocol.StartTournament{})
	r.leave("device", nil)
	r.tick(10 * time.Second)
	if r.o.Phase() != tournament.PhaseAwaitingReady {
		t.Errorf("Phase() = %v, expected awaiting_ready", r.o.Phase())
	}
}

func TestTournamentRestartRules(t *testing.T) {
	r, _ := newRemoteRoom(t, "host", "b")

	if err := r.handle("b", protocol.RestartGame{}); !errors.Is(err, tournament.ErrNotHost) {
		t.Errorf("restart by guest error = %v, expected %v", err, tournament.ErrNotHost)
	}
	if err := r.handle("host", protocol.StartTournament{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.handle("host", protocol.RestartGame{}); !errors.Is(err, tournament.ErrWrongPhase) {
		t.Errorf("restart mid tournament error = %v, expected %v", err, tournament.ErrWrongPhase)
	}
}

func TestRemoteTournamentReconnectOnJoin(t *testing.T) {
	r, _ := newRemoteRoom(t, "host", "b")
	_ = r.handle("host", protocol.StartTournament{})

	r.leave("b", []core.Identity{"host"})
	if err := r.handle("b", protocol.PlayerReady{}); !errors.Is(err, tournament.ErrPlayerAbsent) {
		t.Fatalf("ready while absent error = %v, expected %v", err, tournament.ErrPlayerAbsent)
	}

	r.join("b")
	if err := r.handle("b", protocol.PlayerReady{}); err != nil {
		t.Errorf("ready after rejoin: %v", err)
	}
}

func TestRemoteTournamentHostTransfer(t *testing.T) {
	r, _ := newRemoteRoom(t, "host", "b", "c")
	r.leave("host", []core.Identity{"b", "c"})

	if r.o.Host() != "b" {
		t.Fatalf("Host() = %q, expected b", r.o.Host())
	}
	if r.o.Registered("host") {
		t.Error("leaving in the lobby should withdraw the registration")
	}
	if err := r.handle("b", protocol.StartTournament{}); err != nil {
		t.Errorf("new host should be able to start: %v", err)
	}
}

func TestTournamentRoomStampsRoomID(t *testing.T) {
	r, l := newRemoteRoom(t, "host", "b")
	_ = r.handle("host", protocol.StartTournament{})
	r.leave("b", []core.Identity{"host"})
	r.tick(3 * time.Second)

	if len(l.results) != 1 {
		t.Fatalf("saved %d results, expected 1 forfeit", len(l.results))
	}
	rec := l.results[0]
	if rec.RoomID != "remote_tournament-test" || !rec.Forfeit || rec.WinnerID != "host" {
		t.Errorf("record = %+v, expected a forfeit win for host in this room", rec)
	}
}
