// Package pong implements the authoritative Pong simulation: one ball, two
// paddles, a fixed 900x600 field and first-to-five scoring.
// Seat 1 plays the left paddle, seat 2 the right paddle.
package pong

import (
	"math"
	"math/rand"
	"time"

	"github.com/vovakirdan/pong-arena/internal/core"
)

// Field dimensions in pixels.
const (
	FieldWidth  = 900.0
	FieldHeight = 600.0
)

// Default game settings
const (
	DefaultPaddleWidth  = 10.0
	DefaultPaddleHeight = 100.0
	DefaultPaddleSpeed  = 20.0
	DefaultPaddleMargin = 10.0
	DefaultBallRadius   = 10.0
	DefaultInitialSpeed = 5.0
	DefaultMaxSpeed     = 15.0
	DefaultSpeedUp      = 1.05
	DefaultWinScore     = 5
	DefaultHitTolerance = 5.0
)

// Serve and bounce angle limits.
const (
	maxServeAngle  = math.Pi / 6
	maxBounceAngle = math.Pi / 4
)

// Params holds the tunable physics constants of one match.
type Params struct {
	PaddleWidth  float64
	PaddleHeight float64
	PaddleSpeed  float64 // pixels per move command
	PaddleMargin float64 // gap between the wall and the paddle's outer edge
	BallRadius   float64
	InitialSpeed float64 // pixels per 1/60s
	MaxSpeed     float64
	SpeedUp      float64 // multiplier applied on every paddle hit
	WinScore     int
	HitTolerance float64 // extra pixels above and below a paddle that still count as a hit
	Seed         int64   // 0 picks a time-based seed
}

// DefaultParams returns the standard rule set.
func DefaultParams() Params {
	return Params{
		PaddleWidth:  DefaultPaddleWidth,
		PaddleHeight: DefaultPaddleHeight,
		PaddleSpeed:  DefaultPaddleSpeed,
		PaddleMargin: DefaultPaddleMargin,
		BallRadius:   DefaultBallRadius,
		InitialSpeed: DefaultInitialSpeed,
		MaxSpeed:     DefaultMaxSpeed,
		SpeedUp:      DefaultSpeedUp,
		WinScore:     DefaultWinScore,
		HitTolerance: DefaultHitTolerance,
	}
}

// withDefaults fills zero fields so a partially specified Params is usable.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.PaddleWidth <= 0 {
		p.PaddleWidth = d.PaddleWidth
	}
	if p.PaddleHeight <= 0 || p.PaddleHeight > FieldHeight {
		p.PaddleHeight = d.PaddleHeight
	}
	if p.PaddleSpeed <= 0 {
		p.PaddleSpeed = d.PaddleSpeed
	}
	if p.PaddleMargin < 0 {
		p.PaddleMargin = d.PaddleMargin
	}
	if p.BallRadius <= 0 {
		p.BallRadius = d.BallRadius
	}
	if p.InitialSpeed <= 0 {
		p.InitialSpeed = d.InitialSpeed
	}
	if p.MaxSpeed < p.InitialSpeed {
		p.MaxSpeed = math.Max(d.MaxSpeed, p.InitialSpeed)
	}
	if p.SpeedUp < 1 {
		p.SpeedUp = d.SpeedUp
	}
	if p.WinScore <= 0 {
		p.WinScore = d.WinScore
	}
	if p.HitTolerance < 0 {
		p.HitTolerance = d.HitTolerance
	}
	return p
}

// Ball is the ball's position, velocity and scalar speed.
type Ball struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Radius float64 `json:"radius"`
	Speed  float64 `json:"speed"`
}

// Center returns the Y coordinate of the middle of the paddle.
func (p Paddle) Center() float64 {
	return p.Offset + p.Height/2
}

// Paddle is one seat's paddle. Offset is the Y coordinate of its top edge.
type Paddle struct {
	Offset float64 `json:"offset"`
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	Speed  float64 `json:"speed"`
}

// State is the complete simulation state of one match.
// A State is not safe for concurrent use; its owner serialises access.
type State struct {
	Ball       Ball
	Paddles    [2]Paddle
	Scores     [2]int
	Paused     bool
	GameOver   bool
	LastScorer core.Seat

	params Params
	rng    *rand.Rand
}

// New creates a paused state with the ball at rest in the centre.
// The first Serve (or Resume by the owning engine) puts it in motion.
func New(p Params) *State {
	p = p.withDefaults()
	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &State{
		params: p,
		rng:    rand.New(rand.NewSource(seed)),
	}
	for i := range s.Paddles {
		s.Paddles[i] = Paddle{
			Height: p.PaddleHeight,
			Width:  p.PaddleWidth,
			Speed:  p.PaddleSpeed,
		}
	}
	s.centerPaddles()
	s.Ball = Ball{
		X:      FieldWidth / 2,
		Y:      FieldHeight / 2,
		Radius: p.BallRadius,
		Speed:  p.InitialSpeed,
	}
	s.Paused = true
	return s
}

// Params returns the rule set the state was created with.
func (s *State) Params() Params {
	return s.params
}

// Reset zeroes the scores, recentres the paddles and re-serves the ball.
// The paused flag is left as it was.
func (s *State) Reset() {
	s.Scores = [2]int{}
	s.GameOver = false
	s.LastScorer = core.NoSeat
	s.centerPaddles()
	s.ResetBall()
}

func (s *State) centerPaddles() {
	for i := range s.Paddles {
		s.Paddles[i].Offset = (FieldHeight - s.Paddles[i].Height) / 2
	}
}

// ResetBall recentres the ball at the initial speed and serves it.
// After seat 1 scores the ball travels right (towards seat 2); after seat 2
// scores it travels left. With no scorer yet it travels right.
func (s *State) ResetBall() {
	dir := 1.0
	if s.LastScorer == core.Seat2 {
		dir = -1
	}
	angle := (s.rng.Float64()*2 - 1) * maxServeAngle

	s.Ball.X = FieldWidth / 2
	s.Ball.Y = FieldHeight / 2
	s.Ball.Speed = s.params.InitialSpeed
	s.Ball.VX = s.Ball.Speed * dir * math.Cos(angle)
	s.Ball.VY = s.Ball.Speed * math.Sin(angle)
}

// AtRest reports whether the ball has no velocity.
func (s *State) AtRest() bool {
	return s.Ball.VX == 0 && s.Ball.VY == 0
}

// Advance steps the simulation by dt. Velocities are expressed per 1/60s,
// so a 16.67ms step applies them unscaled.
//
// Order within a step: integrate, walls, scoring, paddles.
func (s *State) Advance(dt time.Duration) {
	if s.Paused || s.GameOver || dt <= 0 {
		return
	}
	scale := dt.Seconds() * 60
	b := &s.Ball
	b.X += b.VX * scale
	b.Y += b.VY * scale

	if b.Y-b.Radius < 0 {
		b.Y = b.Radius
		b.VY = -b.VY
	} else if b.Y+b.Radius > FieldHeight {
		b.Y = FieldHeight - b.Radius
		b.VY = -b.VY
	}

	switch {
	case b.X-b.Radius < 0:
		s.score(core.Seat2)
		return
	case b.X+b.Radius > FieldWidth:
		s.score(core.Seat1)
		return
	}

	s.collide(core.Seat1)
	s.collide(core.Seat2)
}

func (s *State) score(seat core.Seat) {
	s.Scores[seat.Index()]++
	s.LastScorer = seat
	if s.Scores[seat.Index()] >= s.params.WinScore {
		s.GameOver = true
		return
	}
	s.ResetBall()
}

// PaddleFace returns the X coordinate of the face the ball bounces off.
func (s *State) PaddleFace(seat core.Seat) float64 {
	p := s.Paddles[seat.Index()]
	if seat == core.Seat1 {
		return s.params.PaddleMargin + p.Width
	}
	return FieldWidth - s.params.PaddleMargin - p.Width
}

// collide resolves a hit against one paddle. The ball must be travelling
// towards the paddle, overlap its horizontal extent and lie within the
// paddle's vertical extent widened by the hit tolerance.
func (s *State) collide(seat core.Seat) {
	b := &s.Ball
	p := s.Paddles[seat.Index()]
	face := s.PaddleFace(seat)

	switch seat {
	case core.Seat1:
		if b.VX >= 0 || b.X-b.Radius > face || b.X+b.Radius < face-p.Width {
			return
		}
	case core.Seat2:
		if b.VX <= 0 || b.X+b.Radius < face || b.X-b.Radius > face+p.Width {
			return
		}
	default:
		return
	}
	dir := -core.Sign(b.VX)

	tol := s.params.HitTolerance
	if b.Y < p.Offset-tol || b.Y > p.Offset+p.Height+tol {
		return
	}

	normalized := core.ClampF((p.Center()-b.Y)/(p.Height/2), -1, 1)
	angle := normalized * maxBounceAngle

	b.Speed = math.Min(b.Speed*s.params.SpeedUp, s.params.MaxSpeed)
	b.VX = dir * b.Speed * math.Cos(angle)
	b.VY = -b.Speed * math.Sin(angle)
	b.X = face + dir*b.Radius
}

// MovePaddle moves a paddle one step. No-op while paused or after game over.
func (s *State) MovePaddle(seat core.Seat, dir core.Direction) {
	if s.Paused || s.GameOver || !seat.Valid() {
		return
	}
	p := &s.Paddles[seat.Index()]
	switch dir {
	case core.DirUp:
		p.Offset -= p.Speed
	case core.DirDown:
		p.Offset += p.Speed
	default:
		return
	}
	p.Offset = core.ClampF(p.Offset, 0, FieldHeight-p.Height)
}

// Winner returns the seat that reached the win score, or NoSeat.
func (s *State) Winner() core.Seat {
	if !s.GameOver {
		return core.NoSeat
	}
	if s.Scores[0] >= s.params.WinScore {
		return core.Seat1
	}
	if s.Scores[1] >= s.params.WinScore {
		return core.Seat2
	}
	return core.NoSeat
}

// PredictY estimates where the ball will cross the given seat's paddle face,
// folding the straight-line path off the top and bottom walls.
// The second result is false when the ball is moving away from the seat.
func (s *State) PredictY(seat core.Seat) (float64, bool) {
	b := s.Ball
	face := s.PaddleFace(seat)
	switch {
	case seat == core.Seat1 && b.VX < 0:
		face += b.Radius
	case seat == core.Seat2 && b.VX > 0:
		face -= b.Radius
	default:
		return FieldHeight / 2, false
	}
	steps := (face - b.X) / b.VX
	y := b.Y + b.VY*steps
	return core.Reflect(y, b.Radius, FieldHeight-b.Radius), true
}
