package match

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/games/pong"
)

// Controller decides a paddle move for one seat each tick.
type Controller interface {
	Decide(s *pong.State, seat core.Seat, dt time.Duration) core.Direction
}

// HumanInput is the controller of a seat driven by player commands.
// Moves arrive through Engine.HandleInput, so it never decides anything itself.
type HumanInput struct{}

// Decide implements Controller.
func (HumanInput) Decide(*pong.State, core.Seat, time.Duration) core.Direction {
	return core.DirNone
}

// Difficulty tunes how well the AI plays.
type Difficulty struct {
	Name          string
	ThinkInterval time.Duration // how often the target is recomputed
	ErrorMargin   float64       // max random error added to the predicted Y, in pixels
	DeadZone      float64       // no move while the paddle centre is this close to the target
}

// Difficulty presets.
var (
	Easy   = Difficulty{Name: "easy", ThinkInterval: 1500 * time.Millisecond, ErrorMargin: 90, DeadZone: 10}
	Normal = Difficulty{Name: "normal", ThinkInterval: time.Second, ErrorMargin: 45, DeadZone: 10}
	Hard   = Difficulty{Name: "hard", ThinkInterval: 500 * time.Millisecond, ErrorMargin: 15, DeadZone: 10}
)

// Difficulties lists the presets by name.
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Normal, Hard}
}

// ParseDifficulty looks up a preset by name. An empty name selects Normal.
func ParseDifficulty(name string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "normal", "medium":
		return Normal, nil
	case "easy":
		return Easy, nil
	case "hard":
		return Hard, nil
	default:
		return Difficulty{}, fmt.Errorf("unknown difficulty %q", name)
	}
}

// AIOpponent predicts where the ball will cross its paddle and steers toward
// that point. The prediction is refreshed once per think interval using an
// elapsed-time counter advanced by the engine tick.
type AIOpponent struct {
	diff    Difficulty
	rng     *rand.Rand
	elapsed time.Duration
	target  float64
	primed  bool
}

// NewAI creates an AI controller. A zero seed picks a time-based one.
func NewAI(d Difficulty, seed int64) *AIOpponent {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if d.ThinkInterval <= 0 {
		d.ThinkInterval = Normal.ThinkInterval
	}
	if d.DeadZone <= 0 {
		d.DeadZone = Normal.DeadZone
	}
	return &AIOpponent{
		diff:   d,
		rng:    rand.New(rand.NewSource(seed)),
		target: pong.FieldHeight / 2,
	}
}

// Difficulty returns the AI's tuning.
func (a *AIOpponent) Difficulty() Difficulty {
	return a.diff
}

// Target returns the Y coordinate the AI is currently steering toward.
func (a *AIOpponent) Target() float64 {
	return a.target
}

// Decide implements Controller.
func (a *AIOpponent) Decide(s *pong.State, seat core.Seat, dt time.Duration) core.Direction {
	a.elapsed += dt
	if !a.primed || a.elapsed >= a.diff.ThinkInterval {
		a.think(s, seat)
		a.elapsed = 0
		a.primed = true
	}

	diff := a.target - s.Paddles[seat.Index()].Center()
	if math.Abs(diff) <= a.diff.DeadZone {
		return core.DirNone
	}
	if diff < 0 {
		return core.DirUp
	}
	return core.DirDown
}

func (a *AIOpponent) think(s *pong.State, seat core.Seat) {
	y, incoming := s.PredictY(seat)
	if !incoming {
		a.target = pong.FieldHeight / 2
		return
	}
	if m := a.diff.ErrorMargin; m > 0 {
		y += (a.rng.Float64()*2 - 1) * m
	}
	a.target = core.ClampF(y, 0, pong.FieldHeight)
}
