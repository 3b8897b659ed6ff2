package pong

import (
	"math"
	"testing"
	"time"

	"github.com/vovakirdan/pong-arena/internal/core"
)

const frame = time.Second / 60

func newRunning(p Params) *State {
	s := New(p)
	s.Paused = false
	s.ResetBall()
	return s
}

func seeded(seed int64) Params {
	p := DefaultParams()
	p.Seed = seed
	return p
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewStartsPausedAtRest(t *testing.T) {
	s := New(seeded(1))
	if !s.Paused {
		t.Error("New() should start paused")
	}
	if !s.AtRest() {
		t.Errorf("New() ball velocity = (%v, %v), expected at rest", s.Ball.VX, s.Ball.VY)
	}
	for i, p := range s.Paddles {
		if p.Offset != (FieldHeight-p.Height)/2 {
			t.Errorf("paddle %d offset = %v, expected centred", i+1, p.Offset)
		}
	}
}

func TestServeDirection(t *testing.T) {
	tests := []struct {
		name    string
		scorer  core.Seat
		wantDir float64
	}{
		{"no scorer serves right", core.NoSeat, 1},
		{"seat1 scored serves right", core.Seat1, 1},
		{"seat2 scored serves left", core.Seat2, -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for seed := int64(1); seed <= 20; seed++ {
				s := New(seeded(seed))
				s.LastScorer = tc.scorer
				s.ResetBall()

				if core.Sign(s.Ball.VX) != tc.wantDir {
					t.Fatalf("seed %d: VX = %v, expected sign %v", seed, s.Ball.VX, tc.wantDir)
				}
				if !almostEqual(math.Hypot(s.Ball.VX, s.Ball.VY), DefaultInitialSpeed) {
					t.Errorf("seed %d: serve magnitude = %v, expected %v", seed, math.Hypot(s.Ball.VX, s.Ball.VY), DefaultInitialSpeed)
				}
				if s.Ball.Speed != DefaultInitialSpeed {
					t.Errorf("seed %d: Speed = %v, expected %v", seed, s.Ball.Speed, DefaultInitialSpeed)
				}
				angle := math.Abs(math.Atan2(s.Ball.VY, math.Abs(s.Ball.VX)))
				if angle > math.Pi/6+1e-9 {
					t.Errorf("seed %d: serve angle = %v, expected within pi/6", seed, angle)
				}
			}
		})
	}
}

func TestServeDeterminism(t *testing.T) {
	a := newRunning(seeded(99))
	b := newRunning(seeded(99))
	for i := 0; i < 5; i++ {
		if a.Ball != b.Ball {
			t.Fatalf("serve %d differs: %+v vs %+v", i, a.Ball, b.Ball)
		}
		a.ResetBall()
		b.ResetBall()
	}
}

func TestPaddleBounceFromRest(t *testing.T) {
	p := seeded(7)
	p.InitialSpeed = 4
	s := newRunning(p)
	s.Ball.X = FieldWidth / 2
	s.Ball.Y = FieldHeight / 2
	s.Ball.VX = -4
	s.Ball.VY = 0
	s.Ball.Speed = 4

	for i := 0; i < 200 && s.Ball.VX < 0; i++ {
		s.Advance(frame)
	}

	if s.Ball.VX <= 0 {
		t.Fatalf("VX = %v after reaching the paddle, expected positive", s.Ball.VX)
	}
	if !almostEqual(s.Ball.Speed, 4*DefaultSpeedUp) {
		t.Errorf("Speed = %v, expected %v", s.Ball.Speed, 4*DefaultSpeedUp)
	}
	if !almostEqual(s.Ball.VX, 4*DefaultSpeedUp) {
		t.Errorf("centred hit VX = %v, expected %v", s.Ball.VX, 4*DefaultSpeedUp)
	}
	if s.Scores != [2]int{} {
		t.Errorf("Scores = %v, expected no score", s.Scores)
	}
}

func TestSpeedMonotonicAndCapped(t *testing.T) {
	s := newRunning(seeded(3))
	center := s.Paddles[0].Center()
	prev := s.Ball.Speed

	for hit := 0; hit < 40; hit++ {
		s.Ball.X = 100
		s.Ball.Y = center
		s.Ball.VX = -s.Ball.Speed
		s.Ball.VY = 0
		for i := 0; i < 100 && s.Ball.VX < 0; i++ {
			s.Advance(frame)
		}
		if s.Ball.VX <= 0 {
			t.Fatalf("hit %d: ball did not bounce", hit)
		}
		if s.Ball.Speed < prev {
			t.Fatalf("hit %d: Speed decreased from %v to %v", hit, prev, s.Ball.Speed)
		}
		if s.Ball.Speed > DefaultMaxSpeed {
			t.Fatalf("hit %d: Speed = %v exceeds max %v", hit, s.Ball.Speed, DefaultMaxSpeed)
		}
		if !almostEqual(math.Hypot(s.Ball.VX, s.Ball.VY), s.Ball.Speed) {
			t.Fatalf("hit %d: |v| = %v, expected %v", hit, math.Hypot(s.Ball.VX, s.Ball.VY), s.Ball.Speed)
		}
		prev = s.Ball.Speed
	}
	if s.Ball.Speed != DefaultMaxSpeed {
		t.Errorf("Speed after 40 hits = %v, expected cap %v", s.Ball.Speed, DefaultMaxSpeed)
	}

	// A score resets the speed.
	s.Ball.X = 15
	s.Ball.Y = 580
	s.Ball.VX = -s.Ball.Speed
	s.Ball.VY = 0
	s.Advance(frame)
	if s.Scores[1] != 1 {
		t.Fatalf("Scores = %v, expected seat2 to score", s.Scores)
	}
	if s.Ball.Speed != DefaultInitialSpeed {
		t.Errorf("Speed after score = %v, expected %v", s.Ball.Speed, DefaultInitialSpeed)
	}
}

func TestEdgeHitAngles(t *testing.T) {
	s := newRunning(seeded(5))
	top := s.Paddles[1].Offset

	s.Ball.X = FieldWidth - 100
	s.Ball.Y = top - 3 // inside the tolerance band above the paddle
	s.Ball.VX = s.Ball.Speed
	s.Ball.VY = 0
	for i := 0; i < 100 && s.Ball.VX > 0; i++ {
		s.Advance(frame)
	}
	if s.Ball.VX >= 0 {
		t.Fatalf("VX = %v, expected the right paddle to return the ball", s.Ball.VX)
	}
	if s.Ball.VY >= 0 {
		t.Errorf("VY = %v, expected an upward bounce off the paddle's top edge", s.Ball.VY)
	}
	if s.Ball.X+s.Ball.Radius > s.PaddleFace(core.Seat2) {
		t.Errorf("ball X = %v overlaps the paddle face %v", s.Ball.X, s.PaddleFace(core.Seat2))
	}
}

func TestMissOutsideToleranceScores(t *testing.T) {
	s := newRunning(seeded(5))
	s.Paddles[0].Offset = 0
	s.Ball.X = 60
	s.Ball.Y = s.Paddles[0].Height + DefaultHitTolerance + 20
	s.Ball.VX = -5
	s.Ball.VY = 0

	for i := 0; i < 100 && s.Scores[1] == 0; i++ {
		s.Advance(frame)
	}
	if s.Scores[1] != 1 {
		t.Fatalf("Scores = %v, expected seat2 to score", s.Scores)
	}
	if s.LastScorer != core.Seat2 {
		t.Errorf("LastScorer = %v, expected seat2", s.LastScorer)
	}
	if s.Ball.VX >= 0 {
		t.Errorf("serve VX = %v, expected a serve towards seat1", s.Ball.VX)
	}
}

func TestWallBounce(t *testing.T) {
	s := newRunning(seeded(1))
	s.Ball.X = FieldWidth / 2
	s.Ball.Y = 12
	s.Ball.VX = 3
	s.Ball.VY = -4

	s.Advance(frame)

	if s.Ball.Y != s.Ball.Radius {
		t.Errorf("Y = %v, expected clamped to %v", s.Ball.Y, s.Ball.Radius)
	}
	if s.Ball.VY != 4 {
		t.Errorf("VY = %v, expected 4", s.Ball.VY)
	}

	s.Ball.Y = FieldHeight - 12
	s.Ball.VY = 4
	s.Advance(frame)
	if s.Ball.Y != FieldHeight-s.Ball.Radius {
		t.Errorf("Y = %v, expected clamped to %v", s.Ball.Y, FieldHeight-s.Ball.Radius)
	}
	if s.Ball.VY != -4 {
		t.Errorf("VY = %v, expected -4", s.Ball.VY)
	}
}

func TestWallThenGoalInOneStep(t *testing.T) {
	s := newRunning(seeded(1))
	s.Ball.X = 12
	s.Ball.Y = 12
	s.Ball.VX = -5
	s.Ball.VY = -5

	s.Advance(frame)

	if s.Scores != [2]int{0, 1} {
		t.Fatalf("Scores = %v, expected [0 1]", s.Scores)
	}
	if s.LastScorer != core.Seat2 {
		t.Errorf("LastScorer = %v, expected seat2", s.LastScorer)
	}
	if s.Ball.X != FieldWidth/2 || s.Ball.Y != FieldHeight/2 {
		t.Errorf("ball = (%v, %v), expected re-served at the centre", s.Ball.X, s.Ball.Y)
	}
	if s.Ball.Speed != s.Params().InitialSpeed {
		t.Errorf("Speed = %v, expected %v", s.Ball.Speed, s.Params().InitialSpeed)
	}
	if s.Ball.VX >= 0 {
		t.Errorf("serve VX = %v, expected a serve towards seat1", s.Ball.VX)
	}
}

func TestPaddleClamp(t *testing.T) {
	s := newRunning(seeded(1))
	moves := []core.Direction{}
	for i := 0; i < 40; i++ {
		moves = append(moves, core.DirUp)
	}
	for i := 0; i < 80; i++ {
		moves = append(moves, core.DirDown)
	}
	for i := 0; i < 13; i++ {
		moves = append(moves, core.DirUp, core.DirUp, core.DirDown)
	}

	for _, seat := range []core.Seat{core.Seat1, core.Seat2} {
		for i, d := range moves {
			s.MovePaddle(seat, d)
			p := s.Paddles[seat.Index()]
			if p.Offset < 0 || p.Offset > FieldHeight-p.Height {
				t.Fatalf("%v move %d: Offset = %v out of [0, %v]", seat, i, p.Offset, FieldHeight-p.Height)
			}
		}
	}
}

func TestMovePaddleIgnoredWhilePaused(t *testing.T) {
	s := New(seeded(1))
	before := s.Paddles[0].Offset
	s.MovePaddle(core.Seat1, core.DirUp)
	if s.Paddles[0].Offset != before {
		t.Errorf("Offset = %v, expected %v while paused", s.Paddles[0].Offset, before)
	}
	s.Advance(frame)
	if s.Ball.X != FieldWidth/2 {
		t.Errorf("ball moved while paused")
	}
}

func TestGameOverFreezesState(t *testing.T) {
	s := newRunning(seeded(1))
	s.Scores[0] = DefaultWinScore - 1
	s.Paddles[1].Offset = 0
	s.Ball.X = FieldWidth - 15
	s.Ball.Y = 500
	s.Ball.VX = 6
	s.Ball.VY = 0

	s.Advance(frame)
	if !s.GameOver {
		t.Fatal("expected game over after the winning point")
	}
	if s.Winner() != core.Seat1 {
		t.Errorf("Winner() = %v, expected seat1", s.Winner())
	}

	frozen := s.Snapshot(0)
	for i := 0; i < 10; i++ {
		s.Advance(frame)
		s.MovePaddle(core.Seat1, core.DirDown)
		s.MovePaddle(core.Seat2, core.DirDown)
	}
	if got := s.Snapshot(0); got != frozen {
		t.Errorf("state changed after game over:\n got %+v\nwant %+v", got, frozen)
	}
}

func TestReset(t *testing.T) {
	s := newRunning(seeded(1))
	s.Scores = [2]int{3, 5}
	s.GameOver = true
	s.LastScorer = core.Seat2
	s.Paddles[0].Offset = 0

	s.Reset()

	if s.Scores != [2]int{} || s.GameOver || s.LastScorer != core.NoSeat {
		t.Errorf("Reset() left scores=%v gameOver=%v lastScorer=%v", s.Scores, s.GameOver, s.LastScorer)
	}
	if s.Paddles[0].Offset != (FieldHeight-s.Paddles[0].Height)/2 {
		t.Errorf("Reset() paddle offset = %v, expected centred", s.Paddles[0].Offset)
	}
	if s.AtRest() {
		t.Error("Reset() should re-serve the ball")
	}
}

func TestPredictY(t *testing.T) {
	s := newRunning(seeded(1))
	s.Ball.X = FieldWidth / 2
	s.Ball.Y = FieldHeight / 2
	s.Ball.VX = 5
	s.Ball.VY = 0

	y, ok := s.PredictY(core.Seat2)
	if !ok || y != FieldHeight/2 {
		t.Errorf("PredictY(seat2) = %v, %v, expected %v, true", y, ok, FieldHeight/2)
	}
	if _, ok := s.PredictY(core.Seat1); ok {
		t.Error("PredictY(seat1) should report the ball moving away")
	}

	// 45 degree shot that folds off the bottom wall.
	s.Ball.VY = 5
	face := s.PaddleFace(core.Seat2) - s.Ball.Radius
	y, _ = s.PredictY(core.Seat2)
	raw := s.Ball.Y + (face - s.Ball.X)
	want := core.Reflect(raw, s.Ball.Radius, FieldHeight-s.Ball.Radius)
	if !almostEqual(y, want) {
		t.Errorf("PredictY(seat2) = %v, expected %v", y, want)
	}
	if y < s.Ball.Radius || y > FieldHeight-s.Ball.Radius {
		t.Errorf("PredictY(seat2) = %v outside the playable band", y)
	}
}
