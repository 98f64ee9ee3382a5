package core

import "time"

type Clock struct {
	start   time.Time
	running bool
	elapsed float64
}

func NewClock() *Clock {
	return &Clock{}
}

// Update refreshes the elapsed time. Has no effect on non-started clocks.
func (c *Clock) Update() {
	if c.running {
		c.elapsed = time.Since(c.start).Seconds()
	}
}

// Start resets the elapsed time and starts counting.
func (c *Clock) Start() {
	c.start = time.Now()
	c.running = true
	c.elapsed = 0
}

// Stop freezes the clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.running = false
}

// Elapsed returns the seconds since Start as of the last Update.
func (c *Clock) Elapsed() float64 {
	return c.elapsed
}
