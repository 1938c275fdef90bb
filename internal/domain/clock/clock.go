// Package clock implements the bout countdown timer.
//
// The Clock itself has no notion of wall time: it only moves when Tick is
// called. A Driver turns a periodic TickSource into Tick calls, so hosts run
// it against a real ticker while tests call Tick directly.
package clock

import "fmt"

const secondsPerMinute = 60

// Clock is a countdown timer in whole seconds.
type Clock struct {
	configured int
	remaining  int
	running    bool
}

// New returns a stopped clock loaded with seconds.
func New(seconds int) *Clock {
	seconds = clamp(seconds)
	return &Clock{configured: seconds, remaining: seconds}
}

// Configure changes the default duration used by Start-after-expiry and Reset.
// Remaining time is left alone.
func (c *Clock) Configure(seconds int) {
	c.configured = clamp(seconds)
}

// Start begins counting down. When the clock has run out it is reloaded from
// the configured duration first. Returns false when nothing started, i.e. the
// clock was already running or the configured duration is zero.
func (c *Clock) Start() bool {
	if c.running {
		return false
	}
	if c.remaining <= 0 {
		c.remaining = c.configured
	}
	if c.remaining <= 0 {
		return false
	}
	c.running = true
	return true
}

// Pause stops the countdown. Pausing a stopped clock is a no-op.
func (c *Clock) Pause() {
	c.running = false
}

// Reset stops the clock and restores the configured duration.
func (c *Clock) Reset() {
	c.running = false
	c.remaining = c.configured
}

// ResetTo stops the clock and makes seconds both the remaining time and the
// new configured default.
func (c *Clock) ResetTo(seconds int) {
	c.configured = clamp(seconds)
	c.Reset()
}

// Tick consumes one second while running. It reports true on the tick that
// runs the clock out; the clock is stopped at that point.
func (c *Clock) Tick() bool {
	if !c.running {
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining <= 0 {
		c.remaining = 0
		c.running = false
		return true
	}
	return false
}

// Remaining returns the seconds left.
func (c *Clock) Remaining() int { return c.remaining }

// Configured returns the current default duration.
func (c *Clock) Configured() int { return c.configured }

// Running reports whether the countdown is active.
func (c *Clock) Running() bool { return c.running }

// Display renders the remaining time as MM:SS.
func (c *Clock) Display() string { return Format(c.remaining) }

// Format renders seconds as zero padded MM:SS; negative input shows 00:00.
func Format(seconds int) string {
	seconds = clamp(seconds)
	return fmt.Sprintf("%02d:%02d", seconds/secondsPerMinute, seconds%secondsPerMinute)
}

func clamp(seconds int) int {
	if seconds < 0 {
		return 0
	}
	return seconds
}
