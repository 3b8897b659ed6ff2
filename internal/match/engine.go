// Package match wraps one pong.State with seat binding, pause/resume and the
// fixed-rate tick contract. Paddle control is polymorphic over Controller.
package match

import (
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/games/pong"
)

// DefaultTickRate is the physics rate in ticks per second.
const DefaultTickRate = 60

// AIIdentity occupies seat 2 in AI mode.
const AIIdentity core.Identity = "cpu"

// Mode selects the seat-filling policy of an engine.
type Mode int

const (
	ModeCasual Mode = iota
	ModeAI
	ModeTournament
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAI:
		return "ai"
	case ModeTournament:
		return "tournament"
	default:
		return "casual"
	}
}

// ParseMode converts a wire name into a Mode. An empty name selects casual.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "casual", "hotseat", "pvp":
		return ModeCasual, nil
	case "ai", "cpu":
		return ModeAI, nil
	case "tournament":
		return ModeTournament, nil
	default:
		return ModeCasual, fmt.Errorf("unknown mode %q", s)
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithParams sets the physics rule set.
func WithParams(p pong.Params) Option {
	return func(e *Engine) { e.params = p }
}

// WithTickRate sets the number of ticks per second.
func WithTickRate(hz int) Option {
	return func(e *Engine) {
		if hz > 0 {
			e.dt = time.Second / time.Duration(hz)
		}
	}
}

// WithAI sets the controller used for the AI seat in AI mode.
func WithAI(c Controller) Option {
	return func(e *Engine) { e.ai = c }
}

// Engine owns one match. It is not safe for concurrent use; the owning room
// goroutine serialises every call.
type Engine struct {
	mode        Mode
	params      pong.Params
	state       *pong.State
	seats       map[core.Identity]core.Seat
	occupants   [2]core.Identity
	controllers [2]Controller
	ai          Controller
	dt          time.Duration
	tick        uint64
}

// New creates a paused engine. In AI mode seat 2 is bound to AIIdentity and
// driven by an AIOpponent.
func New(mode Mode, opts ...Option) *Engine {
	e := &Engine{
		mode:   mode,
		params: pong.DefaultParams(),
		seats:  make(map[core.Identity]core.Seat, 2),
		dt:     time.Second / DefaultTickRate,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state = pong.New(e.params)

	if mode == ModeAI {
		if e.ai == nil {
			seed := e.params.Seed
			if seed != 0 {
				seed++
			}
			e.ai = NewAI(Normal, seed)
		}
		e.bind(AIIdentity, core.Seat2, e.ai)
	}
	return e
}

// Mode returns the engine's mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// TickInterval returns the fixed step applied by Tick.
func (e *Engine) TickInterval() time.Duration {
	return e.dt
}

func (e *Engine) bind(id core.Identity, seat core.Seat, c Controller) {
	e.seats[id] = seat
	e.occupants[seat.Index()] = id
	e.controllers[seat.Index()] = c
}

// AddParticipant binds id to the first free seat. It returns false when both
// seats are taken. Adding an already bound identity succeeds without change.
func (e *Engine) AddParticipant(id core.Identity) bool {
	if _, ok := e.seats[id]; ok {
		return true
	}
	for _, seat := range []core.Seat{core.Seat1, core.Seat2} {
		if e.occupants[seat.Index()] == "" {
			e.bind(id, seat, HumanInput{})
			return true
		}
	}
	return false
}

// RemoveParticipant unbinds id. A departure with fewer than two players left
// invalidates a match in progress: the state is reset and paused.
func (e *Engine) RemoveParticipant(id core.Identity) {
	seat, ok := e.seats[id]
	if !ok {
		return
	}
	delete(e.seats, id)
	e.occupants[seat.Index()] = ""
	e.controllers[seat.Index()] = nil

	if len(e.seats) < 2 && !e.state.GameOver {
		e.state.Reset()
		e.state.Paused = true
	}
}

// Bound returns the number of bound seats, the AI included.
func (e *Engine) Bound() int {
	return len(e.seats)
}

// SeatOf returns the seat bound to id, or NoSeat.
func (e *Engine) SeatOf(id core.Identity) core.Seat {
	return e.seats[id]
}

// Occupant returns the identity bound to seat, or "".
func (e *Engine) Occupant(seat core.Seat) core.Identity {
	if !seat.Valid() {
		return ""
	}
	return e.occupants[seat.Index()]
}

// HandleInput moves the paddle of the seat bound to id. Input from an unbound
// identity, or while paused or over, is ignored. It reports whether the
// paddle was moved.
func (e *Engine) HandleInput(id core.Identity, dir core.Direction) bool {
	seat, ok := e.seats[id]
	if !ok {
		return false
	}
	return e.move(seat, dir)
}

// HandleSeatInput moves an explicit seat. In casual mode a bound player may
// drive an unoccupied opposite seat, which gives hot-seat play on one device.
func (e *Engine) HandleSeatInput(id core.Identity, seat core.Seat, dir core.Direction) bool {
	if !seat.Valid() {
		return e.HandleInput(id, dir)
	}
	own, ok := e.seats[id]
	if !ok {
		return false
	}
	if seat == own.Opponent() {
		if e.mode != ModeCasual || e.occupants[seat.Index()] != "" {
			return false
		}
	}
	return e.move(seat, dir)
}

func (e *Engine) move(seat core.Seat, dir core.Direction) bool {
	if e.state.Paused || e.state.GameOver || dir == core.DirNone {
		return false
	}
	e.state.MovePaddle(seat, dir)
	return true
}

// Tick polls the seat controllers and advances the simulation by one fixed step.
func (e *Engine) Tick() {
	if e.state.Paused || e.state.GameOver {
		return
	}
	for i, c := range e.controllers {
		if c == nil {
			continue
		}
		seat := core.Seat(i + 1)
		if dir := c.Decide(e.state, seat, e.dt); dir != core.DirNone {
			e.state.MovePaddle(seat, dir)
		}
	}
	e.state.Advance(e.dt)
	e.tick++
}

// Pause stops the simulation.
func (e *Engine) Pause() {
	e.state.Paused = true
}

// Resume restarts the simulation, serving the ball if it is at rest.
func (e *Engine) Resume() {
	if e.state.GameOver {
		return
	}
	e.state.Paused = false
	if e.state.AtRest() {
		e.state.ResetBall()
	}
}

// Paused reports whether the simulation is paused.
func (e *Engine) Paused() bool {
	return e.state.Paused
}

// Reset restarts the match from 0-0 keeping the seat bindings.
func (e *Engine) Reset() {
	e.state.Reset()
}

// GameOver reports whether a seat has reached the win score.
func (e *Engine) GameOver() bool {
	return e.state.GameOver
}

// Winner returns the identity that won, or "" while the match is running.
func (e *Engine) Winner() core.Identity {
	seat := e.state.Winner()
	if seat == core.NoSeat {
		return ""
	}
	return e.occupants[seat.Index()]
}

// Scores returns the score of seat 1 and seat 2.
func (e *Engine) Scores() (int, int) {
	return e.state.Scores[0], e.state.Scores[1]
}

// Snapshot returns a serialisable copy of the match state.
func (e *Engine) Snapshot() pong.Snapshot {
	return e.state.Snapshot(e.tick)
}

// State exposes the simulation for controllers and tests.
func (e *Engine) State() *pong.State {
	return e.state
}
