// Package tournament drives a single-elimination tournament: registration,
// readiness gating, a countdown, one live match at a time, forfeits and
// round transitions. The orchestrator is generic over the participant
// identity so that the remote (connection-keyed) and local (device-scoped)
// flavors share one state machine.
package tournament

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/pong-arena/internal/bracket"
	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/games/pong"
	"github.com/vovakirdan/pong-arena/internal/match"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

var (
	ErrNotHost        = errors.New("only the host can do that")
	ErrWrongPhase     = errors.New("not allowed at this stage of the tournament")
	ErrNotParticipant = errors.New("not a participant of the current match")
	ErrPlayerAbsent   = errors.New("waiting for a disconnected player")
)

// Flavor selects how participants are identified.
type Flavor int

const (
	// Remote participants are transport connections and may disconnect.
	Remote Flavor = iota
	// Local participants share one device and never disconnect individually.
	Local
)

func (f Flavor) String() string {
	if f == Local {
		return "local"
	}
	return "remote"
}

// Phase is the orchestrator state.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseAwaitingReady
	PhaseCountdown
	PhaseInMatch
	PhaseRoundTransition
	PhaseFinished
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseAwaitingReady:
		return "awaiting_ready"
	case PhaseCountdown:
		return "countdown"
	case PhaseInMatch:
		return "in_match"
	case PhaseRoundTransition:
		return "round_transition"
	case PhaseFinished:
		return "finished"
	case PhaseCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// LocalID identifies a participant of a local tournament.
type LocalID string

// NewLocalID returns a fresh device-scoped participant id.
func NewLocalID() LocalID {
	return LocalID("local-" + uuid.NewString())
}

// Config tunes an orchestrator.
type Config struct {
	Countdown    time.Duration
	ForfeitGrace time.Duration
	Params       pong.Params
	TickRate     int
	Seed         int64 // bracket shuffle seed, 0 picks a time-based one
}

// DefaultConfig returns a 3s countdown and a 5s forfeit grace.
func DefaultConfig() Config {
	return Config{
		Countdown:    3 * time.Second,
		ForfeitGrace: 5 * time.Second,
		Params:       pong.DefaultParams(),
		TickRate:     match.DefaultTickRate,
	}
}

// Outcome summarises a concluded tournament.
type Outcome struct {
	Flavor    Flavor
	Champion  *protocol.Player
	History   []protocol.MatchRecord
	Players   int
	Cancelled bool
	Reason    string
}

// Orchestrator owns one bracket and at most one live match engine.
// It is not safe for concurrent use; the owning room serialises every call.
type Orchestrator[ID ~string] struct {
	flavor Flavor
	cfg    Config
	host   core.Identity
	emit   func(protocol.Event)

	onResult  func(protocol.MatchRecord)
	onOutcome func(Outcome)

	bracket    *bracket.Bracket[ID]
	phase      Phase
	ready      map[ID]bool
	absent     map[ID]bool
	eliminated map[ID]bool
	engine     *match.Engine
	history    []protocol.MatchRecord

	countdown      Timer
	lastCountdown  int
	grace          Timer
	disconnectHold bool
}

// New creates an orchestrator in the lobby. host gates starting, pausing and
// resetting. emit receives every event meant for the room.
func New[ID ~string](flavor Flavor, host core.Identity, cfg Config, emit func(protocol.Event)) *Orchestrator[ID] {
	d := DefaultConfig()
	if cfg.Countdown <= 0 {
		cfg.Countdown = d.Countdown
	}
	if cfg.ForfeitGrace <= 0 {
		cfg.ForfeitGrace = d.ForfeitGrace
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = d.TickRate
	}
	if emit == nil {
		emit = func(protocol.Event) {}
	}
	o := &Orchestrator[ID]{
		flavor: flavor,
		cfg:    cfg,
		host:   host,
		emit:   emit,
	}
	o.bracket = o.newBracket()
	o.clear()
	return o
}

func (o *Orchestrator[ID]) newBracket() *bracket.Bracket[ID] {
	seed := o.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return bracket.New[ID](bracket.WithRand(rand.New(rand.NewSource(seed))))
}

func (o *Orchestrator[ID]) clear() {
	o.phase = PhaseLobby
	o.ready = make(map[ID]bool)
	o.absent = make(map[ID]bool)
	o.eliminated = make(map[ID]bool)
	o.engine = nil
	o.history = nil
	o.countdown.Cancel()
	o.grace.Cancel()
	o.lastCountdown = 0
	o.disconnectHold = false
}

// SetResultHandler registers a callback for every finished match.
func (o *Orchestrator[ID]) SetResultHandler(fn func(protocol.MatchRecord)) {
	o.onResult = fn
}

// SetOutcomeHandler registers a callback for the end of the tournament.
func (o *Orchestrator[ID]) SetOutcomeHandler(fn func(Outcome)) {
	o.onOutcome = fn
}

// Flavor returns the orchestrator flavor.
func (o *Orchestrator[ID]) Flavor() Flavor { return o.flavor }

// Phase returns the current phase.
func (o *Orchestrator[ID]) Phase() Phase { return o.phase }

// Host returns the identity allowed to drive the tournament.
func (o *Orchestrator[ID]) Host() core.Identity { return o.host }

// SetHost hands host rights to another identity.
func (o *Orchestrator[ID]) SetHost(id core.Identity) { o.host = id }

// Engine returns the live match engine, or nil outside a match.
func (o *Orchestrator[ID]) Engine() *match.Engine { return o.engine }

// Current returns the current matchup, or nil.
func (o *Orchestrator[ID]) Current() *bracket.Matchup[ID] { return o.bracket.Current() }

// Champion returns the tournament winner, or nil.
func (o *Orchestrator[ID]) Champion() *bracket.Participant[ID] { return o.bracket.Champion() }

// History returns every finished match in order.
func (o *Orchestrator[ID]) History() []protocol.MatchRecord {
	out := make([]protocol.MatchRecord, len(o.history))
	copy(out, o.history)
	return out
}

// Participants returns the registered roster.
func (o *Orchestrator[ID]) Participants() []bracket.Participant[ID] {
	return o.bracket.Participants()
}

// Registered reports whether id has entered the tournament.
func (o *Orchestrator[ID]) Registered(id ID) bool {
	_, ok := o.bracket.Lookup(id)
	return ok
}

// Register enters a participant. Only allowed in the lobby.
func (o *Orchestrator[ID]) Register(id ID, name string) error {
	if o.phase != PhaseLobby {
		return ErrWrongPhase
	}
	if err := o.bracket.Register(id, name); err != nil {
		return err
	}
	o.emitBracket()
	return nil
}

// Start closes registration, builds the bracket and announces the first matchup.
func (o *Orchestrator[ID]) Start(by core.Identity) error {
	if by != o.host {
		return ErrNotHost
	}
	if o.phase != PhaseLobby {
		return ErrWrongPhase
	}
	if err := o.bracket.Build(); err != nil {
		return err
	}
	o.emitBracket()
	o.enterAwaitingReady()
	return nil
}

// Ready marks an occupant of the current matchup as ready. Once both are
// ready the countdown starts.
func (o *Orchestrator[ID]) Ready(id ID) error {
	if o.phase == PhaseCountdown {
		if m := o.bracket.Current(); m != nil && m.Has(id) {
			return nil
		}
		return ErrNotParticipant
	}
	if o.phase != PhaseAwaitingReady {
		return ErrWrongPhase
	}
	m := o.bracket.Current()
	if m == nil || !m.Has(id) {
		return ErrNotParticipant
	}
	if o.absent[id] {
		return ErrPlayerAbsent
	}
	o.ready[id] = true
	o.emitReady(m)

	if o.ready[m.A.ID] && o.ready[m.B.ID] && !o.absent[m.A.ID] && !o.absent[m.B.ID] {
		o.phase = PhaseCountdown
		o.countdown.Arm(o.cfg.Countdown)
		o.lastCountdown = 0
		o.emitCountdown()
	}
	return nil
}

// Move forwards a paddle command to the live match. Commands from anyone
// outside the match, or outside a match phase, are ignored.
func (o *Orchestrator[ID]) Move(id ID, dir core.Direction) bool {
	if o.phase != PhaseInMatch || o.engine == nil {
		return false
	}
	return o.engine.HandleInput(core.Identity(id), dir)
}

// Pause pauses the live match.
func (o *Orchestrator[ID]) Pause(by core.Identity) error {
	if by != o.host {
		return ErrNotHost
	}
	if o.phase != PhaseInMatch {
		return ErrWrongPhase
	}
	if !o.engine.Paused() {
		o.engine.Pause()
		o.emit(protocol.MatchPaused{Reason: "paused by host"})
	}
	return nil
}

// Resume resumes the live match. Refused while a participant is missing.
func (o *Orchestrator[ID]) Resume(by core.Identity) error {
	if by != o.host {
		return ErrNotHost
	}
	if o.phase != PhaseInMatch {
		return ErrWrongPhase
	}
	if o.grace.Armed() {
		return ErrPlayerAbsent
	}
	if o.engine.Paused() {
		o.engine.Resume()
		o.disconnectHold = false
		o.emit(protocol.MatchResumed{})
	}
	return nil
}

// Disconnect handles a participant leaving. Local tournaments ignore it.
// In the lobby the registration is withdrawn. During the current matchup the
// countdown is cancelled, the match paused and a forfeit grace period armed.
// If both occupants are gone the matchup is cancelled.
func (o *Orchestrator[ID]) Disconnect(id ID) {
	if o.flavor == Local {
		return
	}
	switch o.phase {
	case PhaseLobby:
		if o.bracket.Unregister(id) {
			o.emitBracket()
		}
		return
	case PhaseFinished, PhaseCancelled:
		return
	}
	if !o.Registered(id) || o.absent[id] {
		return
	}
	o.absent[id] = true
	delete(o.ready, id)

	m := o.bracket.Current()
	if m == nil || !m.Has(id) {
		o.checkContenders()
		return
	}

	if o.phase == PhaseCountdown {
		o.countdown.Cancel()
		o.phase = PhaseAwaitingReady
		o.emitReady(m)
	}
	if o.phase == PhaseInMatch && !o.engine.Paused() {
		o.engine.Pause()
		o.disconnectHold = true
		o.emit(protocol.MatchPaused{Reason: "player disconnected"})
	}
	o.holdOrCancel(m)
}

// Reconnect restores a participant that dropped during its grace period.
func (o *Orchestrator[ID]) Reconnect(id ID) {
	if o.flavor == Local || !o.absent[id] {
		return
	}
	delete(o.absent, id)

	m := o.bracket.Current()
	if m == nil || !m.Has(id) {
		return
	}
	if o.absent[m.A.ID] || o.absent[m.B.ID] {
		return
	}
	o.grace.Cancel()
	switch o.phase {
	case PhaseInMatch:
		if o.disconnectHold {
			o.disconnectHold = false
			o.engine.Resume()
			o.emit(protocol.MatchResumed{})
		}
	case PhaseAwaitingReady:
		o.emitAnnouncement(m)
	}
}

// holdOrCancel arms the forfeit grace for a matchup missing one occupant,
// or cancels it outright when both are missing.
func (o *Orchestrator[ID]) holdOrCancel(m *bracket.Matchup[ID]) {
	a, b := o.absent[m.A.ID], o.absent[m.B.ID]
	switch {
	case a && b:
		o.grace.Cancel()
		o.cancelMatchup("both players disconnected")
	case a || b:
		if !o.grace.Armed() {
			o.grace.Arm(o.cfg.ForfeitGrace)
		}
	}
}

// Reset returns to the lobby keeping every connected registration.
// Safe to call in any phase.
func (o *Orchestrator[ID]) Reset() {
	players := o.bracket.Participants()
	absent := o.absent
	o.bracket = o.newBracket()
	o.clear()
	for _, p := range players {
		if absent[p.ID] {
			continue
		}
		_ = o.bracket.Register(p.ID, p.Name)
	}
	o.emitBracket()
}

// Tick advances the timers and the live match by dt.
func (o *Orchestrator[ID]) Tick(dt time.Duration) {
	if o.grace.Advance(dt) {
		o.forfeit()
		return
	}

	switch o.phase {
	case PhaseCountdown:
		if o.countdown.Advance(dt) {
			o.startMatch()
			return
		}
		o.emitCountdown()
	case PhaseInMatch:
		o.engine.Tick()
		o.emit(protocol.StateUpdate{Snapshot: o.engine.Snapshot()})
		if o.engine.GameOver() {
			o.finishMatch()
		}
	}
}

func (o *Orchestrator[ID]) enterAwaitingReady() {
	o.phase = PhaseAwaitingReady
	o.ready = make(map[ID]bool)
	m := o.bracket.Current()
	if m == nil {
		o.roundTransition()
		return
	}
	o.emitAnnouncement(m)
	if o.flavor == Remote {
		o.holdOrCancel(m)
	}
}

func (o *Orchestrator[ID]) startMatch() {
	m := o.bracket.Current()
	if m == nil {
		return
	}
	o.engine = match.New(match.ModeTournament,
		match.WithParams(o.cfg.Params),
		match.WithTickRate(o.cfg.TickRate),
	)
	o.engine.AddParticipant(core.Identity(m.A.ID))
	o.engine.AddParticipant(core.Identity(m.B.ID))
	o.engine.Resume()
	o.phase = PhaseInMatch
	o.disconnectHold = false

	round, _ := o.bracket.Position()
	o.emit(protocol.MatchStarted{Round: round, Player1: player(*m.A), Player2: player(*m.B)})
	o.emit(protocol.StateUpdate{Snapshot: o.engine.Snapshot()})
}

func (o *Orchestrator[ID]) finishMatch() {
	m := o.bracket.Current()
	round, _ := o.bracket.Position()
	s1, s2 := o.engine.Scores()
	winner := ID(o.engine.Winner())
	o.engine = nil

	o.complete(m, round, winner, bracket.Score{A: s1, B: s2}, false)
}

// forfeit awards the current matchup to the occupant still connected.
func (o *Orchestrator[ID]) forfeit() {
	m := o.bracket.Current()
	if m == nil {
		return
	}
	winner, loser := *m.A, *m.B
	if o.absent[m.A.ID] {
		winner, loser = *m.B, *m.A
	}
	if o.absent[winner.ID] {
		o.cancelMatchup("both players disconnected")
		return
	}

	var score bracket.Score
	if o.engine != nil {
		score.A, score.B = o.engine.Scores()
		o.engine = nil
	}
	round, _ := o.bracket.Position()
	o.emit(protocol.MatchForfeit{
		Winner: player(winner),
		Loser:  player(loser),
		Reason: loser.Name + " disconnected",
	})
	o.complete(m, round, winner.ID, score, true)
}

func (o *Orchestrator[ID]) complete(m *bracket.Matchup[ID], round int, winner ID, score bracket.Score, forfeit bool) {
	if _, err := o.bracket.RecordWinner(winner, score); err != nil {
		o.cancel("internal error: " + err.Error())
		return
	}
	loser := m.Opponent(winner)
	if loser != nil {
		o.eliminated[loser.ID] = true
	}

	rec := protocol.MatchRecord{
		Round:        round,
		Participant1: player(*m.A),
		Participant2: player(*m.B),
		Score1:       score.A,
		Score2:       score.B,
		WinnerID:     string(winner),
		IsTournament: true,
		Forfeit:      forfeit,
		EndedAt:      time.Now(),
	}
	o.history = append(o.history, rec)
	o.emit(protocol.MatchResult{Record: rec})
	if o.onResult != nil {
		o.onResult(rec)
	}

	o.grace.Cancel()
	o.phase = PhaseRoundTransition
	o.roundTransition()
}

func (o *Orchestrator[ID]) cancelMatchup(reason string) {
	m := o.bracket.Current()
	if m == nil {
		return
	}
	o.engine = nil
	o.eliminated[m.A.ID] = true
	o.eliminated[m.B.ID] = true
	if _, err := o.bracket.VoidCurrent(); err != nil {
		o.cancel("internal error: " + err.Error())
		return
	}
	o.emit(protocol.MatchCancelled{Reason: reason})
	o.phase = PhaseRoundTransition
	if o.checkContenders() {
		return
	}
	o.roundTransition()
}

// checkContenders cancels the tournament once no connected participant can
// still win it. It reports whether it did so.
func (o *Orchestrator[ID]) checkContenders() bool {
	if o.phase == PhaseFinished || o.phase == PhaseCancelled || o.bracket.Finished() {
		return false
	}
	for _, p := range o.bracket.Participants() {
		if !o.eliminated[p.ID] && !o.absent[p.ID] {
			return false
		}
	}
	o.cancel("no connected players remain")
	return true
}

func (o *Orchestrator[ID]) roundTransition() {
	o.emitBracket()
	if !o.bracket.Finished() {
		o.enterAwaitingReady()
		return
	}
	champ := o.bracket.Champion()
	if champ == nil {
		o.cancel("no players remain")
		return
	}
	o.phase = PhaseFinished
	c := player(*champ)
	o.emit(protocol.TournamentOver{Champion: &c, History: o.History()})
	if o.onOutcome != nil {
		o.onOutcome(Outcome{
			Flavor:   o.flavor,
			Champion: &c,
			History:  o.History(),
			Players:  len(o.bracket.Participants()),
		})
	}
}

func (o *Orchestrator[ID]) cancel(reason string) {
	o.countdown.Cancel()
	o.grace.Cancel()
	o.engine = nil
	o.phase = PhaseCancelled
	o.emit(protocol.TournamentCancelled{Reason: reason})
	o.emitBracket()
	if o.onOutcome != nil {
		o.onOutcome(Outcome{
			Flavor:    o.flavor,
			History:   o.History(),
			Players:   len(o.bracket.Participants()),
			Cancelled: true,
			Reason:    reason,
		})
	}
}

func (o *Orchestrator[ID]) emitAnnouncement(m *bracket.Matchup[ID]) {
	round, _ := o.bracket.Position()
	o.emit(protocol.MatchAnnouncement{Round: round, Player1: player(*m.A), Player2: player(*m.B)})
}

func (o *Orchestrator[ID]) emitReady(m *bracket.Matchup[ID]) {
	var ready []protocol.Player
	for _, p := range []*bracket.Participant[ID]{m.A, m.B} {
		if o.ready[p.ID] {
			ready = append(ready, player(*p))
		}
	}
	o.emit(protocol.ReadyUpdate{Ready: ready})
}

func (o *Orchestrator[ID]) emitCountdown() {
	secs := int(math.Ceil(o.countdown.Remaining().Seconds()))
	if secs == o.lastCountdown {
		return
	}
	o.lastCountdown = secs
	o.emit(protocol.CountdownUpdate{Seconds: secs})
}

func (o *Orchestrator[ID]) emitBracket() {
	o.emit(protocol.TournamentBracket{Bracket: o.View()})
}
