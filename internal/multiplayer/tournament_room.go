package multiplayer

import (
	"strings"
	"time"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/protocol"
	"github.com/vovakirdan/pong-arena/internal/tournament"
)

// tournamentRoom adapts an Orchestrator to a room. In the remote flavor every
// member plays as itself. In the local flavor one device registers several
// named players and addresses them by name or id in its commands.
type tournamentRoom[ID ~string] struct {
	roomID RoomID
	o      *tournament.Orchestrator[ID]
	names  map[string]ID
}

func newTournamentRoom[ID ~string](id RoomID, flavor tournament.Flavor, host core.Identity, cfg tournament.Config,
	emit func(protocol.Event), onResult func(protocol.MatchRecord), onOutcome func(tournament.Outcome),
) *tournamentRoom[ID] {
	t := &tournamentRoom[ID]{
		roomID: id,
		o:      tournament.New[ID](flavor, host, cfg, emit),
		names:  make(map[string]ID),
	}
	t.o.SetResultHandler(func(rec protocol.MatchRecord) {
		rec.RoomID = string(id)
		if onResult != nil {
			onResult(rec)
		}
	})
	t.o.SetOutcomeHandler(onOutcome)
	return t
}

func (t *tournamentRoom[ID]) local() bool {
	return t.o.Flavor() == tournament.Local
}

func (t *tournamentRoom[ID]) join(id core.Identity) core.Seat {
	if !t.local() && t.o.Registered(ID(id)) {
		t.o.Reconnect(ID(id))
	}
	return core.NoSeat
}

func (t *tournamentRoom[ID]) leave(id core.Identity, remaining []core.Identity) {
	if !t.local() {
		t.o.Disconnect(ID(id))
	}
	if id == t.o.Host() && len(remaining) > 0 {
		t.o.SetHost(remaining[0])
	}
}

// player resolves the participant a command acts for.
func (t *tournamentRoom[ID]) player(sender core.Identity, ref string) (ID, error) {
	if !t.local() {
		return ID(sender), nil
	}
	if sender != t.o.Host() {
		return "", tournament.ErrNotHost
	}
	ref = strings.TrimSpace(ref)
	if t.o.Registered(ID(ref)) {
		return ID(ref), nil
	}
	if pid, ok := t.names[strings.ToLower(ref)]; ok {
		return pid, nil
	}
	return "", ErrUnknownPlayer
}

func (t *tournamentRoom[ID]) handle(id core.Identity, cmd protocol.Command) error {
	switch c := cmd.(type) {
	case protocol.RegisterPlayer:
		return t.register(id, c.DisplayName)

	case protocol.StartTournament:
		return t.o.Start(id)

	case protocol.PlayerReady:
		pid, err := t.player(id, c.Player)
		if err != nil {
			return err
		}
		return t.o.Ready(pid)

	case protocol.PlayerMove:
		// Moves from anyone outside the live match are dropped.
		if pid, err := t.player(id, c.Player); err == nil {
			t.o.Move(pid, c.Direction)
		}
		return nil

	case protocol.PauseGame:
		return t.o.Pause(id)

	case protocol.ResumeGame:
		return t.o.Resume(id)

	case protocol.RestartGame:
		if id != t.o.Host() {
			return tournament.ErrNotHost
		}
		switch t.o.Phase() {
		case tournament.PhaseLobby, tournament.PhaseFinished, tournament.PhaseCancelled:
			t.o.Reset()
			return nil
		default:
			return tournament.ErrWrongPhase
		}

	default:
		return errUnknownCommand
	}
}

func (t *tournamentRoom[ID]) register(sender core.Identity, name string) error {
	if !t.local() {
		return t.o.Register(ID(sender), name)
	}
	if sender != t.o.Host() {
		return tournament.ErrNotHost
	}
	pid := ID(tournament.NewLocalID())
	if err := t.o.Register(pid, name); err != nil {
		return err
	}
	t.names[strings.ToLower(strings.TrimSpace(name))] = pid
	return nil
}

func (t *tournamentRoom[ID]) tick(dt time.Duration) {
	t.o.Tick(dt)
}

func (t *tournamentRoom[ID]) catchUp() []protocol.Event {
	events := []protocol.Event{protocol.TournamentBracket{Bracket: t.o.View()}}
	if e := t.o.Engine(); e != nil {
		events = append(events, protocol.StateUpdate{Snapshot: e.Snapshot()})
	}
	return events
}

func (t *tournamentRoom[ID]) status() roomStatus {
	players := make([]protocol.Player, 0, len(t.o.Participants()))
	for _, p := range t.o.Participants() {
		players = append(players, protocol.Player{ID: string(p.ID), Name: p.Name})
	}
	return roomStatus{
		mode:    t.o.Flavor().String(),
		host:    t.o.Host(),
		phase:   t.o.Phase().String(),
		players: players,
	}
}
