package workflow

import "time"

// Disabled is the initial counter value of a countdown that never expires.
const Disabled = -1

// Countdown is a re-armable one-tick-per-second counter.
// The expiry callback fires exactly once per Arm.
type Countdown struct {
	initial  int
	counter  int
	lastTick time.Time
	interval time.Duration
	fired    bool
	onExpire func() error
}

// NewCountdown creates a countdown of initial seconds.
// An initial value of Disabled (-1) creates a countdown that never expires.
func NewCountdown(initial int, onExpire func() error) *Countdown {
	if initial < Disabled {
		initial = Disabled
	}
	return &Countdown{
		initial:  initial,
		counter:  initial,
		interval: time.Second,
		onExpire: onExpire,
	}
}

// Arm resets the counter to its configured length.
func (c *Countdown) Arm(now time.Time) {
	c.counter = c.initial
	c.lastTick = now
	c.fired = false
}

// Set arms the countdown with a different length for this cycle only.
func (c *Countdown) Set(seconds int, now time.Time) {
	if seconds < 0 {
		seconds = 0
	}
	c.counter = seconds
	c.lastTick = now
	c.fired = false
}

// Tick decrements the counter once if at least one second passed since the
// previous decrement. The callback runs when the counter reaches 0 and its
// error is returned.
func (c *Countdown) Tick(now time.Time) error {
	if !c.Enabled() || c.fired {
		return nil
	}
	if c.counter > 0 {
		if now.Sub(c.lastTick) < c.interval {
			return nil
		}
		c.lastTick = now
		c.counter--
		if c.counter > 0 {
			return nil
		}
	}
	c.fired = true
	if c.onExpire == nil {
		return nil
	}
	return c.onExpire()
}

// Enabled reports whether the countdown can expire at all.
func (c *Countdown) Enabled() bool {
	return c.initial > Disabled
}

// Value returns the live counter.
func (c *Countdown) Value() int {
	return c.counter
}

// Initial returns the configured length.
func (c *Countdown) Initial() int {
	return c.initial
}

// Expired reports whether the callback already fired in this cycle.
func (c *Countdown) Expired() bool {
	return c.fired
}
