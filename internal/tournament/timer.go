package tournament

import "time"

// Timer is a one-shot countdown advanced explicitly by the owner's tick.
// It never runs on its own goroutine.
type Timer struct {
	remaining time.Duration
	armed     bool
}

// Arm starts (or restarts) the timer.
func (t *Timer) Arm(d time.Duration) {
	t.remaining = d
	t.armed = true
}

// Cancel stops the timer. Cancelling an idle or fired timer is a no-op.
func (t *Timer) Cancel() {
	t.armed = false
	t.remaining = 0
}

// Armed reports whether the timer is counting.
func (t *Timer) Armed() bool {
	return t.armed
}

// Remaining returns the time left, or zero when idle.
func (t *Timer) Remaining() time.Duration {
	if !t.armed {
		return 0
	}
	return t.remaining
}

// Advance moves the timer forward by dt. It returns true exactly once, on
// the call that runs the timer out.
func (t *Timer) Advance(dt time.Duration) bool {
	if !t.armed {
		return false
	}
	t.remaining -= dt
	if t.remaining > 0 {
		return false
	}
	t.armed = false
	t.remaining = 0
	return true
}
