package match

import (
	"testing"
	"time"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/games/pong"
)

func testParams() pong.Params {
	p := pong.DefaultParams()
	p.Seed = 42
	return p
}

func TestAddParticipantSeatOrder(t *testing.T) {
	e := New(ModeCasual, WithParams(testParams()))

	if !e.AddParticipant("alice") {
		t.Fatal("AddParticipant(alice) = false, expected true")
	}
	if !e.AddParticipant("bob") {
		t.Fatal("AddParticipant(bob) = false, expected true")
	}
	if e.AddParticipant("carol") {
		t.Error("AddParticipant(carol) = true, expected false with both seats bound")
	}
	if !e.AddParticipant("alice") {
		t.Error("re-adding a bound identity should succeed")
	}

	if got := e.SeatOf("alice"); got != core.Seat1 {
		t.Errorf("SeatOf(alice) = %v, expected seat1", got)
	}
	if got := e.SeatOf("bob"); got != core.Seat2 {
		t.Errorf("SeatOf(bob) = %v, expected seat2", got)
	}
	if got := e.SeatOf("carol"); got != core.NoSeat {
		t.Errorf("SeatOf(carol) = %v, expected none", got)
	}

	e.RemoveParticipant("alice")
	if !e.AddParticipant("carol") {
		t.Fatal("AddParticipant(carol) should take the freed seat")
	}
	if got := e.SeatOf("carol"); got != core.Seat1 {
		t.Errorf("SeatOf(carol) = %v, expected seat1", got)
	}
}

func TestAIModeFillsSeatTwo(t *testing.T) {
	e := New(ModeAI, WithParams(testParams()))

	if got := e.Occupant(core.Seat2); got != AIIdentity {
		t.Fatalf("Occupant(seat2) = %q, expected %q", got, AIIdentity)
	}
	if !e.AddParticipant("alice") {
		t.Fatal("AddParticipant(alice) = false")
	}
	if got := e.SeatOf("alice"); got != core.Seat1 {
		t.Errorf("SeatOf(alice) = %v, expected seat1", got)
	}
	if e.AddParticipant("bob") {
		t.Error("AddParticipant(bob) = true, expected AI mode to have no free seat")
	}
}

func TestRemoveParticipantResetsMatch(t *testing.T) {
	e := New(ModeCasual, WithParams(testParams()))
	e.AddParticipant("alice")
	e.AddParticipant("bob")
	e.Resume()
	e.State().Scores = [2]int{3, 2}

	e.RemoveParticipant("bob")

	if a, b := e.Scores(); a != 0 || b != 0 {
		t.Errorf("Scores() = %d-%d, expected 0-0 after a departure", a, b)
	}
	if !e.Paused() {
		t.Error("match should wait paused for a new opponent")
	}
	if e.Bound() != 1 {
		t.Errorf("Bound() = %d, expected 1", e.Bound())
	}
}

func TestRemoveParticipantKeepsFinishedMatch(t *testing.T) {
	e := New(ModeCasual, WithParams(testParams()))
	e.AddParticipant("alice")
	e.AddParticipant("bob")
	e.State().Scores = [2]int{5, 1}
	e.State().GameOver = true

	e.RemoveParticipant("bob")

	if a, b := e.Scores(); a != 5 || b != 1 {
		t.Errorf("Scores() = %d-%d, expected the final 5-1 to survive", a, b)
	}
}

func TestHandleInput(t *testing.T) {
	e := New(ModeCasual, WithParams(testParams()))
	e.AddParticipant("alice")
	e.AddParticipant("bob")
	start := e.State().Paddles[0].Offset

	if e.HandleInput("alice", core.DirUp) {
		t.Error("input should be ignored while paused")
	}

	e.Resume()
	if e.HandleInput("mallory", core.DirUp) {
		t.Error("input from an unbound identity should be ignored")
	}
	if !e.HandleInput("alice", core.DirUp) {
		t.Fatal("HandleInput(alice) = false, expected the paddle to move")
	}
	if got := e.State().Paddles[0].Offset; got != start-pong.DefaultPaddleSpeed {
		t.Errorf("seat1 offset = %v, expected %v", got, start-pong.DefaultPaddleSpeed)
	}
	if got := e.State().Paddles[1].Offset; got != start {
		t.Errorf("seat2 offset = %v, expected unchanged %v", got, start)
	}
}

func TestHotSeatInput(t *testing.T) {
	e := New(ModeCasual, WithParams(testParams()))
	e.AddParticipant("alice")
	e.Resume()
	start := e.State().Paddles[1].Offset

	if !e.HandleSeatInput("alice", core.Seat2, core.DirDown) {
		t.Fatal("HandleSeatInput(alice, seat2) = false, expected hot-seat move")
	}
	if got := e.State().Paddles[1].Offset; got != start+pong.DefaultPaddleSpeed {
		t.Errorf("seat2 offset = %v, expected %v", got, start+pong.DefaultPaddleSpeed)
	}

	e.AddParticipant("bob")
	if e.HandleSeatInput("alice", core.Seat2, core.DirDown) {
		t.Error("alice should not drive a seat bound to bob")
	}

	ai := New(ModeAI, WithParams(testParams()))
	ai.AddParticipant("alice")
	ai.Resume()
	if ai.HandleSeatInput("alice", core.Seat2, core.DirUp) {
		t.Error("alice should not drive the AI seat")
	}
}

func TestResumeServesBallAtRest(t *testing.T) {
	e := New(ModeCasual, WithParams(testParams()))
	if !e.State().AtRest() {
		t.Fatal("new engine should start with the ball at rest")
	}
	e.Resume()
	if e.Paused() {
		t.Error("Resume() left the engine paused")
	}
	if e.State().AtRest() {
		t.Error("Resume() should serve a ball at rest")
	}

	e.Pause()
	vx := e.State().Ball.VX
	e.Resume()
	if e.State().Ball.VX != vx {
		t.Errorf("Resume() of a moving ball changed VX from %v to %v", vx, e.State().Ball.VX)
	}
}

func TestTickAdvancesOnlyWhenRunning(t *testing.T) {
	e := New(ModeCasual, WithParams(testParams()), WithTickRate(60))
	e.AddParticipant("alice")
	e.AddParticipant("bob")

	e.Tick()
	if e.Snapshot().Tick != 0 {
		t.Errorf("Tick() while paused advanced to %d", e.Snapshot().Tick)
	}

	e.Resume()
	x := e.State().Ball.X
	e.Tick()
	if e.Snapshot().Tick != 1 {
		t.Errorf("Snapshot().Tick = %d, expected 1", e.Snapshot().Tick)
	}
	if e.State().Ball.X == x {
		t.Error("Tick() did not move the ball")
	}
	if e.TickInterval() != time.Second/60 {
		t.Errorf("TickInterval() = %v, expected %v", e.TickInterval(), time.Second/60)
	}
}

func TestWinner(t *testing.T) {
	e := New(ModeTournament, WithParams(testParams()))
	e.AddParticipant("alice")
	e.AddParticipant("bob")
	e.Resume()

	if e.Winner() != "" {
		t.Errorf("Winner() = %q before game over", e.Winner())
	}

	s := e.State()
	s.Scores[1] = pong.DefaultWinScore - 1
	s.Paddles[0].Offset = 0
	s.Ball.X = 15
	s.Ball.Y = 500
	s.Ball.VX = -6
	s.Ball.VY = 0
	e.Tick()

	if !e.GameOver() {
		t.Fatal("GameOver() = false after the winning point")
	}
	if e.Winner() != "bob" {
		t.Errorf("Winner() = %q, expected bob", e.Winner())
	}
}

func TestEnginesAreIndependent(t *testing.T) {
	a := New(ModeCasual, WithParams(testParams()))
	b := New(ModeCasual, WithParams(testParams()))
	a.AddParticipant("alice")
	b.AddParticipant("bob")
	a.Resume()
	b.Resume()

	before := b.Snapshot()
	for i := 0; i < 10; i++ {
		a.HandleInput("alice", core.DirDown)
		a.HandleInput("bob", core.DirDown)
		a.Tick()
	}
	if got := b.Snapshot(); got != before {
		t.Errorf("engine b changed while only engine a was driven")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in       string
		expected Mode
		wantErr  bool
	}{
		{"", ModeCasual, false},
		{"ai", ModeAI, false},
		{"Tournament", ModeTournament, false},
		{"battle", ModeCasual, true},
	}
	for _, tc := range tests {
		got, err := ParseMode(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.expected {
			t.Errorf("ParseMode(%q) = %v, expected %v", tc.in, got, tc.expected)
		}
	}
}
