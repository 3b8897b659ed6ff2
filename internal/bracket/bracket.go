// Package bracket implements a single-elimination tournament bracket that is
// generic over the participant identity type.
//
// Winners of a round are pushed onto a stack as their matches complete. The
// next round is paired by popping two winners at a time (last finished first),
// and a single leftover winner receives a bye. This ordering decides the shape
// of the bracket and must be preserved.
package bracket

import (
	"errors"
	"math/rand"
	"strings"
	"time"
)

var (
	ErrDuplicateAlias      = errors.New("display name already taken")
	ErrDuplicateIdentity   = errors.New("player already registered")
	ErrEmptyName           = errors.New("display name is required")
	ErrAlreadyStarted      = errors.New("tournament already started")
	ErrInsufficientPlayers = errors.New("at least two players are required")
	ErrNoCurrentMatchup    = errors.New("no current matchup")
	ErrNotInMatchup        = errors.New("player is not part of the current matchup")
)

// Participant is a registered player.
type Participant[ID comparable] struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Score is the final score of a matchup, slot A first.
type Score struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Matchup is one pairing. A nil slot is a placeholder not yet filled.
type Matchup[ID comparable] struct {
	A          *Participant[ID] `json:"a,omitempty"`
	B          *Participant[ID] `json:"b,omitempty"`
	Winner     *Participant[ID] `json:"winner,omitempty"`
	Score      Score            `json:"score"`
	IsBye      bool             `json:"is_bye"`
	IsComplete bool             `json:"is_complete"`
	IsCurrent  bool             `json:"is_current"`
}

// Has reports whether id occupies either slot.
func (m *Matchup[ID]) Has(id ID) bool {
	return (m.A != nil && m.A.ID == id) || (m.B != nil && m.B.ID == id)
}

// Opponent returns the occupant of the other slot.
func (m *Matchup[ID]) Opponent(id ID) *Participant[ID] {
	switch {
	case m.A != nil && m.A.ID == id:
		return m.B
	case m.B != nil && m.B.ID == id:
		return m.A
	default:
		return nil
	}
}

func (m *Matchup[ID]) clone() *Matchup[ID] {
	c := *m
	c.A = cloneParticipant(m.A)
	c.B = cloneParticipant(m.B)
	c.Winner = cloneParticipant(m.Winner)
	return &c
}

func cloneParticipant[ID comparable](p *Participant[ID]) *Participant[ID] {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Result summarises a played matchup.
type Result[ID comparable] struct {
	Round  int             `json:"round"`
	A      Participant[ID] `json:"a"`
	B      Participant[ID] `json:"b"`
	Score  Score           `json:"score"`
	Winner Participant[ID] `json:"winner"`
}

// Option configures a Bracket.
type Option func(*options)

type options struct {
	rng     *rand.Rand
	shuffle bool
}

// WithRand sets the source used to shuffle the roster.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rng = r }
}

// WithoutShuffle keeps registration order when building round 0.
func WithoutShuffle() Option {
	return func(o *options) { o.shuffle = false }
}

// Bracket is a single-elimination tournament. It is not safe for concurrent use.
type Bracket[ID comparable] struct {
	opts         options
	participants []Participant[ID]
	rounds       [][]*Matchup[ID]
	winners      []Participant[ID]
	history      []Result[ID]

	round, index int
	started      bool
	finished     bool
	champion     *Participant[ID]
}

// New creates an empty bracket accepting registrations.
func New[ID comparable](opts ...Option) *Bracket[ID] {
	o := options{shuffle: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Bracket[ID]{opts: o, round: -1, index: -1}
}

// Register adds a participant. Display names are unique case-insensitively.
// On error the bracket is unchanged.
func (b *Bracket[ID]) Register(id ID, name string) error {
	if b.started {
		return ErrAlreadyStarted
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	for _, p := range b.participants {
		if p.ID == id {
			return ErrDuplicateIdentity
		}
		if strings.EqualFold(p.Name, name) {
			return ErrDuplicateAlias
		}
	}
	b.participants = append(b.participants, Participant[ID]{ID: id, Name: name})
	return nil
}

// Unregister removes a participant before the bracket is built.
// It reports whether anything was removed.
func (b *Bracket[ID]) Unregister(id ID) bool {
	if b.started {
		return false
	}
	for i, p := range b.participants {
		if p.ID == id {
			b.participants = append(b.participants[:i], b.participants[i+1:]...)
			return true
		}
	}
	return false
}

// Participants returns the roster in registration order.
func (b *Bracket[ID]) Participants() []Participant[ID] {
	out := make([]Participant[ID], len(b.participants))
	copy(out, b.participants)
	return out
}

// Lookup returns the participant registered under id.
func (b *Bracket[ID]) Lookup(id ID) (Participant[ID], bool) {
	for _, p := range b.participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant[ID]{}, false
}

// Started reports whether Build has succeeded.
func (b *Bracket[ID]) Started() bool {
	return b.started
}

// Build shuffles the roster and creates round 0, plus empty placeholder
// rounds so the total round count is known upfront.
func (b *Bracket[ID]) Build() error {
	if b.started {
		return ErrAlreadyStarted
	}
	if len(b.participants) < 2 {
		return ErrInsufficientPlayers
	}

	order := b.Participants()
	if b.opts.shuffle {
		b.opts.rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	var first []*Matchup[ID]
	for i := 0; i+1 < len(order); i += 2 {
		a, c := order[i], order[i+1]
		first = append(first, &Matchup[ID]{A: &a, B: &c})
	}
	b.started = true
	b.rounds = [][]*Matchup[ID]{first}
	if len(order)%2 == 1 {
		b.addBye(0, order[len(order)-1])
	}
	b.reshape(0)
	b.round = 0
	b.index = -1
	b.advance()
	return nil
}

// addBye appends a pre-completed bye to round r and carries its occupant
// straight into the next round's accumulator.
func (b *Bracket[ID]) addBye(r int, p Participant[ID]) {
	a, w := p, p
	b.rounds[r] = append(b.rounds[r], &Matchup[ID]{A: &a, Winner: &w, IsBye: true, IsComplete: true})
	b.winners = append(b.winners, p)
}

// reshape replaces every round after last with empty placeholders sized by
// halving, rounding up.
func (b *Bracket[ID]) reshape(last int) {
	n := len(b.rounds[last])
	b.rounds = b.rounds[:last+1]
	for n > 1 {
		n = (n + 1) / 2
		round := make([]*Matchup[ID], n)
		for i := range round {
			round[i] = &Matchup[ID]{}
		}
		b.rounds = append(b.rounds, round)
	}
	// Show bye winners in their provisional next-round slot.
	for i, m := range b.rounds[last] {
		if m.IsBye {
			b.place(last, i, *m.Winner)
		}
	}
}

// place puts a winner into the first empty slot of the provisional
// next-round matchup at floor(index/2).
func (b *Bracket[ID]) place(r, i int, p Participant[ID]) {
	if r+1 >= len(b.rounds) {
		return
	}
	next := b.rounds[r+1]
	if i/2 >= len(next) {
		return
	}
	m := next[i/2]
	c := p
	switch {
	case m.A == nil:
		m.A = &c
	case m.B == nil:
		m.B = &c
	}
}

// RecordWinner completes the current matchup with id as winner and moves the
// bracket forward. It returns the new current matchup, or nil when the
// tournament is over.
func (b *Bracket[ID]) RecordWinner(id ID, score Score) (*Matchup[ID], error) {
	m := b.current()
	if m == nil {
		return nil, ErrNoCurrentMatchup
	}
	if !m.Has(id) {
		return nil, ErrNotInMatchup
	}

	winner := *m.A
	if m.B != nil && m.B.ID == id {
		winner = *m.B
	}
	w := winner
	m.Winner = &w
	m.Score = score
	m.IsComplete = true
	m.IsCurrent = false

	res := Result[ID]{Round: b.round, A: *m.A, Score: score, Winner: winner}
	if m.B != nil {
		res.B = *m.B
	}
	b.history = append(b.history, res)
	b.winners = append(b.winners, winner)
	b.place(b.round, b.index, winner)

	b.advance()
	return b.Current(), nil
}

// VoidCurrent completes the current matchup without a winner, used when both
// occupants are gone. Nobody advances from it.
func (b *Bracket[ID]) VoidCurrent() (*Matchup[ID], error) {
	m := b.current()
	if m == nil {
		return nil, ErrNoCurrentMatchup
	}
	m.IsComplete = true
	m.IsCurrent = false
	b.advance()
	return b.Current(), nil
}

// advance selects the next unplayed matchup, generating new rounds from the
// winner stack as rounds complete.
func (b *Bracket[ID]) advance() {
	for !b.finished {
		for i, m := range b.rounds[b.round] {
			if !m.IsComplete {
				b.index = i
				m.IsCurrent = true
				return
			}
		}

		winners := b.winners
		b.winners = nil
		switch len(winners) {
		case 0:
			b.finish(nil)
			return
		case 1:
			b.finish(&winners[0])
			return
		}

		next := b.round + 1
		b.rounds = append(b.rounds[:next], nil)
		for len(winners) >= 2 {
			second := winners[len(winners)-1]
			first := winners[len(winners)-2]
			winners = winners[:len(winners)-2]
			b.rounds[next] = append(b.rounds[next], &Matchup[ID]{A: &first, B: &second})
		}
		if len(winners) == 1 {
			b.addBye(next, winners[0])
		}
		b.round = next
		b.reshape(next)
	}
}

func (b *Bracket[ID]) finish(champion *Participant[ID]) {
	b.finished = true
	b.champion = champion
	b.index = -1
	b.rounds = b.rounds[:b.round+1]
}

func (b *Bracket[ID]) current() *Matchup[ID] {
	if !b.started || b.finished || b.index < 0 {
		return nil
	}
	return b.rounds[b.round][b.index]
}

// Current returns a copy of the current matchup, or nil.
func (b *Bracket[ID]) Current() *Matchup[ID] {
	m := b.current()
	if m == nil {
		return nil
	}
	return m.clone()
}

// Position returns the round and index of the current matchup, or -1, -1.
func (b *Bracket[ID]) Position() (int, int) {
	if b.current() == nil {
		return -1, -1
	}
	return b.round, b.index
}

// Finished reports whether the bracket has concluded.
func (b *Bracket[ID]) Finished() bool {
	return b.finished
}

// Champion returns the winner of the tournament, or nil. A bracket can finish
// without a champion when the deciding matchups were voided.
func (b *Bracket[ID]) Champion() *Participant[ID] {
	return cloneParticipant(b.champion)
}

// History returns completed matchups in the order they were recorded.
// Byes and voided matchups are not included.
func (b *Bracket[ID]) History() []Result[ID] {
	out := make([]Result[ID], len(b.history))
	copy(out, b.history)
	return out
}

// RoundCount returns the number of rounds, placeholders included.
func (b *Bracket[ID]) RoundCount() int {
	return len(b.rounds)
}

// Rounds returns a deep copy of every round.
func (b *Bracket[ID]) Rounds() [][]Matchup[ID] {
	out := make([][]Matchup[ID], len(b.rounds))
	for r, round := range b.rounds {
		out[r] = make([]Matchup[ID], len(round))
		for i, m := range round {
			out[r][i] = *m.clone()
		}
	}
	return out
}
