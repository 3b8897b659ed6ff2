package tournament

import (
	"testing"
	"time"
)

func TestTimerFiresOnce(t *testing.T) {
	var tm Timer
	tm.Arm(100 * time.Millisecond)

	fired := 0
	for i := 0; i < 20; i++ {
		if tm.Advance(16 * time.Millisecond) {
			fired++
		}
	}
	if fired != 1 {
		t.Errorf("timer fired %d times, expected 1", fired)
	}
	if tm.Armed() {
		t.Error("fired timer should be idle")
	}
}

func TestTimerCancelIdempotent(t *testing.T) {
	var tm Timer
	tm.Cancel()
	tm.Arm(time.Second)
	tm.Cancel()
	tm.Cancel()

	if tm.Advance(2 * time.Second) {
		t.Error("cancelled timer fired")
	}
	if tm.Remaining() != 0 {
		t.Errorf("Remaining() = %v, expected 0", tm.Remaining())
	}

	tm.Arm(10 * time.Millisecond)
	if !tm.Advance(10 * time.Millisecond) {
		t.Fatal("timer did not fire at its deadline")
	}
	tm.Cancel()
	if tm.Advance(time.Second) {
		t.Error("cancel after fire should not re-arm the timer")
	}
}

func TestTimerRearm(t *testing.T) {
	var tm Timer
	tm.Arm(50 * time.Millisecond)
	tm.Advance(40 * time.Millisecond)
	tm.Arm(50 * time.Millisecond)
	if tm.Advance(40 * time.Millisecond) {
		t.Error("re-armed timer fired early")
	}
	if got := tm.Remaining(); got != 10*time.Millisecond {
		t.Errorf("Remaining() = %v, expected 10ms", got)
	}
}
