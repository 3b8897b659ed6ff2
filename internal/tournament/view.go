package tournament

import (
	"github.com/vovakirdan/pong-arena/internal/bracket"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

func player[ID ~string](p bracket.Participant[ID]) protocol.Player {
	return protocol.Player{ID: string(p.ID), Name: p.Name}
}

func playerPtr[ID ~string](p *bracket.Participant[ID]) *protocol.Player {
	if p == nil {
		return nil
	}
	v := player(*p)
	return &v
}

// View renders the tournament for the tournament_bracket event.
func (o *Orchestrator[ID]) View() protocol.BracketView {
	v := protocol.BracketView{
		Phase:    o.phase.String(),
		Host:     string(o.host),
		Finished: o.bracket.Finished(),
		Champion: playerPtr(o.bracket.Champion()),
	}
	v.Round, v.Index = o.bracket.Position()

	for _, p := range o.bracket.Participants() {
		v.Participants = append(v.Participants, player(p))
	}
	for _, round := range o.bracket.Rounds() {
		views := make([]protocol.MatchupView, 0, len(round))
		for _, m := range round {
			views = append(views, protocol.MatchupView{
				A:          playerPtr(m.A),
				B:          playerPtr(m.B),
				Winner:     playerPtr(m.Winner),
				ScoreA:     m.Score.A,
				ScoreB:     m.Score.B,
				IsBye:      m.IsBye,
				IsComplete: m.IsComplete,
				IsCurrent:  m.IsCurrent,
			})
		}
		v.Rounds = append(v.Rounds, views)
	}
	return v
}
