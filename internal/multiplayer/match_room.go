package multiplayer

import (
	"time"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/match"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// guestID stands in for the unbound seat of a hot-seat match.
const guestID core.Identity = "guest"

// matchRoom runs a single casual or AI match. The first two identities take
// the seats (only one in AI mode); later arrivals spectate.
type matchRoom struct {
	roomID   RoomID
	host     core.Identity
	engine   *match.Engine
	emit     func(protocol.Event)
	onResult func(protocol.MatchRecord)
	reported bool
}

func newMatchRoom(id RoomID, host core.Identity, engine *match.Engine, emit func(protocol.Event), onResult func(protocol.MatchRecord)) *matchRoom {
	return &matchRoom{
		roomID:   id,
		host:     host,
		engine:   engine,
		emit:     emit,
		onResult: onResult,
	}
}

func (m *matchRoom) join(id core.Identity) core.Seat {
	if !m.engine.AddParticipant(id) {
		return core.NoSeat
	}
	return m.engine.SeatOf(id)
}

func (m *matchRoom) leave(id core.Identity, remaining []core.Identity) {
	if id == m.host && len(remaining) > 0 {
		m.host = remaining[0]
	}
	if m.engine.SeatOf(id) == core.NoSeat {
		return
	}
	wasRunning := !m.engine.Paused() && !m.engine.GameOver()
	m.engine.RemoveParticipant(id)
	if wasRunning && m.engine.Paused() {
		m.emit(protocol.MatchPaused{Reason: "player left"})
		m.emitState()
	}
}

func (m *matchRoom) handle(id core.Identity, cmd protocol.Command) error {
	switch c := cmd.(type) {
	case protocol.PlayerMove:
		// Input from spectators or for a seat the sender may not drive is dropped.
		m.engine.HandleSeatInput(id, c.Seat, c.Direction)
		return nil

	case protocol.PauseGame:
		if m.engine.SeatOf(id) == core.NoSeat {
			return ErrSpectator
		}
		if !m.engine.Paused() && !m.engine.GameOver() {
			m.engine.Pause()
			m.emit(protocol.MatchPaused{Reason: "paused by " + string(id)})
		}
		return nil

	case protocol.ResumeGame:
		if m.engine.SeatOf(id) == core.NoSeat {
			return ErrSpectator
		}
		if m.engine.Paused() && !m.engine.GameOver() {
			m.engine.Resume()
			m.emit(protocol.MatchResumed{})
			m.emitState()
		}
		return nil

	case protocol.RestartGame:
		if m.engine.SeatOf(id) == core.NoSeat {
			return ErrSpectator
		}
		m.engine.Reset()
		m.engine.Resume()
		m.reported = false
		m.emit(protocol.MatchResumed{})
		m.emitState()
		return nil

	case protocol.RegisterPlayer, protocol.StartTournament, protocol.PlayerReady:
		return ErrUnsupported

	default:
		return errUnknownCommand
	}
}

func (m *matchRoom) tick(time.Duration) {
	if m.engine.Paused() || m.engine.GameOver() {
		return
	}
	m.engine.Tick()
	m.emitState()
	if m.engine.GameOver() && !m.reported {
		m.reported = true
		m.report()
	}
}

func (m *matchRoom) report() {
	s1, s2 := m.engine.Scores()
	winner := m.engine.Winner()
	if winner == "" {
		winner = guestID
	}
	rec := protocol.MatchRecord{
		RoomID:       string(m.roomID),
		Participant1: m.seatPlayer(core.Seat1),
		Participant2: m.seatPlayer(core.Seat2),
		Score1:       s1,
		Score2:       s2,
		WinnerID:     string(winner),
		EndedAt:      time.Now(),
	}
	m.emit(protocol.MatchResult{Record: rec})
	if m.onResult != nil {
		m.onResult(rec)
	}
}

func (m *matchRoom) seatPlayer(seat core.Seat) protocol.Player {
	id := m.engine.Occupant(seat)
	switch id {
	case "":
		return protocol.Player{ID: string(guestID), Name: "Guest"}
	case match.AIIdentity:
		return protocol.Player{ID: string(id), Name: "CPU"}
	default:
		return protocol.Player{ID: string(id), Name: string(id)}
	}
}

func (m *matchRoom) emitState() {
	m.emit(protocol.StateUpdate{Snapshot: m.engine.Snapshot()})
}

func (m *matchRoom) catchUp() []protocol.Event {
	return []protocol.Event{protocol.StateUpdate{Snapshot: m.engine.Snapshot()}}
}

func (m *matchRoom) status() roomStatus {
	phase := "waiting"
	switch {
	case m.engine.GameOver():
		phase = "finished"
	case !m.engine.Paused():
		phase = "playing"
	case m.engine.Snapshot().Tick > 0:
		phase = "paused"
	}
	var players []protocol.Player
	for _, seat := range []core.Seat{core.Seat1, core.Seat2} {
		if m.engine.Occupant(seat) != "" {
			players = append(players, m.seatPlayer(seat))
		}
	}
	return roomStatus{
		mode:    m.engine.Mode().String(),
		host:    m.host,
		phase:   phase,
		players: players,
	}
}
