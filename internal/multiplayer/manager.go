package multiplayer

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/games/pong"
	"github.com/vovakirdan/pong-arena/internal/match"
	"github.com/vovakirdan/pong-arena/internal/protocol"
	"github.com/vovakirdan/pong-arena/internal/tournament"
)

// Config holds configuration for the manager.
type Config struct {
	TickRate     int // room tick rate (Hz)
	Params       pong.Params
	Tournament   tournament.Config
	Difficulties []match.Difficulty // AI presets selectable by name
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TickRate:     match.DefaultTickRate,
		Params:       pong.DefaultParams(),
		Tournament:   tournament.DefaultConfig(),
		Difficulties: match.Difficulties(),
	}
}

// SessionOptions tunes a new local match.
type SessionOptions struct {
	Mode       string
	Difficulty string
}

// Manager owns every room. An identity is in at most one room at a time and
// a room is destroyed as soon as its last member leaves.
type Manager struct {
	config   Config
	sessions *SessionRegistry
	log      *log.Logger

	resultSaver     MatchResultSaver // optional
	tournamentSaver TournamentSaver  // optional

	running sync.WaitGroup // room goroutines
	saves   sync.WaitGroup // in-flight saver calls

	mu           sync.RWMutex
	closed       bool
	rooms        map[RoomID]*Room
	identityRoom map[core.Identity]RoomID
	members      map[RoomID]map[core.Identity]struct{}
}

// NewManager creates a manager. A nil logger discards output.
func NewManager(cfg Config, sessions *SessionRegistry, logger *log.Logger) *Manager {
	if cfg.TickRate <= 0 {
		cfg.TickRate = match.DefaultTickRate
	}
	if len(cfg.Difficulties) == 0 {
		cfg.Difficulties = match.Difficulties()
	}
	if sessions == nil {
		sessions = NewSessionRegistry()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{
		config:       cfg,
		sessions:     sessions,
		log:          logger,
		rooms:        make(map[RoomID]*Room),
		identityRoom: make(map[core.Identity]RoomID),
		members:      make(map[RoomID]map[core.Identity]struct{}),
	}
}

// SetResultSaver sets the optional match result saver.
func (m *Manager) SetResultSaver(saver MatchResultSaver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resultSaver = saver
}

// SetTournamentSaver sets the optional tournament outcome saver.
func (m *Manager) SetTournamentSaver(saver TournamentSaver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tournamentSaver = saver
}

// Sessions returns the session registry.
func (m *Manager) Sessions() *SessionRegistry {
	return m.sessions
}

// Connect registers a session. The session is disconnected from its room
// once its Done channel closes. A session that takes over an identity still
// seated in a room is attached to that room straight away.
func (m *Manager) Connect(session SessionHandle) {
	m.mu.Lock()
	m.sessions.Register(session)
	if r, ok := m.rooms[m.identityRoom[session.ID()]]; ok {
		m.attachLocked(session.ID(), session, r)
	}
	m.mu.Unlock()

	go func() {
		<-session.Done()
		m.release(session)
	}()
}

// release disconnects a finished session unless a newer session has taken
// over its identity. Registration and takeover both happen under m.mu.
func (m *Manager) release(session SessionHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions.UnregisterIf(session) {
		m.detachLocked(session.ID())
	}
}

// Handle processes one inbound command. Failures are reported to the sender
// as an error event.
func (m *Manager) Handle(id core.Identity, cmd protocol.Command) {
	var err error
	switch c := cmd.(type) {
	case protocol.CreateSession:
		var kind Kind
		if kind, err = ParseKind(c.Kind); err == nil {
			_, err = m.CreateSession(kind, id, SessionOptions{Mode: c.Mode, Difficulty: c.Difficulty})
		}
	case protocol.JoinRoom:
		err = m.JoinRoom(id, RoomID(c.RoomID))
	case protocol.LeaveRoom:
		err = m.Leave(id)
	default:
		err = m.Route(id, cmd)
	}
	if err == nil {
		return
	}
	m.log.Debug("command failed", "identity", id, "command", cmd.CommandType(), "err", err)
	if session, ok := m.sessions.Get(id); ok {
		session.Send(protocol.Error{Command: cmd.CommandType(), Reason: Reason(err)})
	}
}

// CreateSession opens a new room owned by initiator and joins it. Any room
// the initiator was in is left first.
func (m *Manager) CreateSession(kind Kind, initiator core.Identity, opts SessionOptions) (RoomID, error) {
	session, ok := m.sessions.Get(initiator)
	if !ok {
		return "", ErrNotConnected
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrManagerClosed
	}

	id := NewRoomID(kind)
	r := newRoom(id, kind, time.Second/time.Duration(m.config.TickRate), m.log)
	logic, err := m.newLogic(r, kind, initiator, opts)
	if err != nil {
		return "", err
	}
	r.logic = logic

	status := logic.status()

	m.detachLocked(initiator)
	m.rooms[id] = r
	m.members[id] = make(map[core.Identity]struct{})
	m.running.Add(1)
	go func() {
		defer m.running.Done()
		r.run()
	}()

	session.Send(protocol.SessionCreated{RoomID: string(id), Kind: string(kind), Mode: status.mode})
	m.attachLocked(initiator, session, r)
	m.log.Info("room created", "room", id, "kind", kind, "mode", status.mode, "host", initiator)
	return id, nil
}

func (m *Manager) newLogic(r *Room, kind Kind, initiator core.Identity, opts SessionOptions) (roomLogic, error) {
	onResult := m.resultHandler()
	switch kind {
	case KindLocalMatch:
		mode, err := match.ParseMode(opts.Mode)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOption, err)
		}
		if mode == match.ModeTournament {
			return nil, fmt.Errorf("%w: mode %q needs a tournament room", ErrInvalidOption, opts.Mode)
		}
		engineOpts := []match.Option{
			match.WithParams(m.config.Params),
			match.WithTickRate(m.config.TickRate),
		}
		if mode == match.ModeAI {
			d, err := m.difficulty(opts.Difficulty)
			if err != nil {
				return nil, err
			}
			seed := m.config.Params.Seed
			if seed != 0 {
				seed++
			}
			engineOpts = append(engineOpts, match.WithAI(match.NewAI(d, seed)))
		}
		return newMatchRoom(r.id, initiator, match.New(mode, engineOpts...), r.broadcast, onResult), nil

	case KindRemoteTournament, KindLocalTournament:
		cfg := m.config.Tournament
		cfg.Params = m.config.Params
		cfg.TickRate = m.config.TickRate
		onOutcome := m.outcomeHandler(r.id)
		if kind == KindLocalTournament {
			return newTournamentRoom[tournament.LocalID](r.id, tournament.Local, initiator, cfg, r.broadcast, onResult, onOutcome), nil
		}
		return newTournamentRoom[core.Identity](r.id, tournament.Remote, initiator, cfg, r.broadcast, onResult, onOutcome), nil

	default:
		return nil, ErrUnknownKind
	}
}

func (m *Manager) difficulty(name string) (match.Difficulty, error) {
	if strings.TrimSpace(name) == "" {
		name = match.Normal.Name
	}
	for _, d := range m.config.Difficulties {
		if strings.EqualFold(d.Name, strings.TrimSpace(name)) {
			return d, nil
		}
	}
	d, err := match.ParseDifficulty(name)
	if err != nil {
		return match.Difficulty{}, fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}
	return d, nil
}

// resultHandler returns the callback rooms use for finished matches.
// Must be called with the lock held.
func (m *Manager) resultHandler() func(protocol.MatchRecord) {
	saver := m.resultSaver
	if saver == nil {
		return nil
	}
	return func(rec protocol.MatchRecord) {
		// Best effort save, the room never waits on storage
		m.goSave(func() {
			if err := saver.SaveMatchResult(rec); err != nil {
				m.log.Warn("saving match result failed", "room", rec.RoomID, "err", err)
			}
		})
	}
}

// outcomeHandler returns the callback for a concluded tournament.
// Must be called with the lock held.
func (m *Manager) outcomeHandler(id RoomID) func(tournament.Outcome) {
	saver := m.tournamentSaver
	logger := m.log.With("room", string(id))
	return func(out tournament.Outcome) {
		if out.Cancelled {
			logger.Info("tournament cancelled", "reason", out.Reason, "matches", len(out.History))
		} else {
			logger.Info("tournament finished", "champion", out.Champion.Name, "matches", len(out.History))
		}
		if saver == nil {
			return
		}
		res := TournamentResult{
			RoomID:    string(id),
			Flavor:    out.Flavor.String(),
			Players:   out.Players,
			Matches:   len(out.History),
			Cancelled: out.Cancelled,
			Reason:    out.Reason,
			EndedAt:   time.Now(),
		}
		if out.Champion != nil {
			res.ChampionID = out.Champion.ID
			res.ChampionName = out.Champion.Name
		}
		m.goSave(func() {
			if err := saver.SaveTournament(res); err != nil {
				logger.Warn("saving tournament failed", "err", err)
			}
		})
	}
}

// goSave runs fn on its own goroutine. Close waits for it.
func (m *Manager) goSave(fn func()) {
	m.saves.Add(1)
	go func() {
		defer m.saves.Done()
		fn()
	}()
}

// JoinRoom moves an identity into an existing room. Members beyond the
// available seats spectate.
func (m *Manager) JoinRoom(id core.Identity, roomID RoomID) error {
	session, ok := m.sessions.Get(id)
	if !ok {
		return ErrNotConnected
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if cur, in := m.identityRoom[id]; !in || cur != roomID {
		m.detachLocked(id)
	}
	m.attachLocked(id, session, r)
	return nil
}

// Route forwards a game command to the sender's room.
func (m *Manager) Route(id core.Identity, cmd protocol.Command) error {
	m.mu.RLock()
	r, ok := m.rooms[m.identityRoom[id]]
	m.mu.RUnlock()
	if !ok {
		return ErrNoRoom
	}
	if !r.send(roomMsg{op: opCommand, id: id, cmd: cmd}) {
		return ErrRoomNotFound
	}
	return nil
}

// Leave detaches an identity from its room.
func (m *Manager) Leave(id core.Identity) error {
	m.mu.Lock()
	roomID, ok := m.identityRoom[id]
	if !ok {
		m.mu.Unlock()
		return ErrNoRoom
	}
	m.detachLocked(id)
	m.mu.Unlock()

	if session, ok := m.sessions.Get(id); ok {
		session.Send(protocol.RoomLeft{RoomID: string(roomID)})
	}
	return nil
}

// Disconnect detaches an identity from its room and forgets its session.
// Unknown identities are ignored.
func (m *Manager) Disconnect(id core.Identity) {
	m.mu.Lock()
	m.detachLocked(id)
	m.mu.Unlock()
	m.sessions.Unregister(id)
}

func (m *Manager) attachLocked(id core.Identity, session SessionHandle, r *Room) {
	m.identityRoom[id] = r.id
	m.members[r.id][id] = struct{}{}
	r.send(roomMsg{op: opJoin, id: id, session: session})
}

// detachLocked removes id from its room and destroys the room once empty.
func (m *Manager) detachLocked(id core.Identity) {
	roomID, ok := m.identityRoom[id]
	if !ok {
		return
	}
	delete(m.identityRoom, id)
	delete(m.members[roomID], id)

	r, exists := m.rooms[roomID]
	if !exists {
		return
	}
	r.send(roomMsg{op: opLeave, id: id})
	if len(m.members[roomID]) == 0 {
		r.stop()
		delete(m.rooms, roomID)
		delete(m.members, roomID)
		m.log.Info("room destroyed", "room", roomID)
	}
}

// RoomOf returns the room an identity is in.
func (m *Manager) RoomOf(id core.Identity) (RoomID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.identityRoom[id]
	return r, ok
}

// Room returns a room by id.
func (m *Manager) Room(id RoomID) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// Rooms returns a summary of every room, oldest first.
func (m *Manager) Rooms() []RoomInfo {
	m.mu.RLock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r.Info())
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b RoomInfo) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return out
}

// RoomCount returns the number of live rooms.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Close stops every room and waits for the room goroutines and any pending
// saves to finish. Later calls to CreateSession fail.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	for id, r := range m.rooms {
		r.stop()
		delete(m.rooms, id)
		delete(m.members, id)
	}
	clear(m.identityRoom)
	m.mu.Unlock()

	m.running.Wait()
	m.saves.Wait()
}
