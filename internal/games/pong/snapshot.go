package pong

import "github.com/vovakirdan/pong-arena/internal/core"

// Snapshot contains the complete state of a match for network transmission.
// It is a value copy; mutating it never affects the live State.
type Snapshot struct {
	Tick       uint64    `json:"tick"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	Ball       Ball      `json:"ball"`
	Paddles    [2]Paddle `json:"paddles"`
	Scores     [2]int    `json:"scores"`
	Paused     bool      `json:"paused"`
	GameOver   bool      `json:"game_over"`
	LastScorer core.Seat `json:"last_scorer"`
	Winner     core.Seat `json:"winner"`
	WinScore   int       `json:"win_score"`
}

// Snapshot returns the current state. tick is supplied by the owning engine.
func (s *State) Snapshot(tick uint64) Snapshot {
	return Snapshot{
		Tick:       tick,
		Width:      FieldWidth,
		Height:     FieldHeight,
		Ball:       s.Ball,
		Paddles:    s.Paddles,
		Scores:     s.Scores,
		Paused:     s.Paused,
		GameOver:   s.GameOver,
		LastScorer: s.LastScorer,
		Winner:     s.Winner(),
		WinScore:   s.params.WinScore,
	}
}
