package core

import "time"

// Clock measures total and per-frame time in seconds.
type Clock struct {
	startTime time.Time
	lastTick  time.Time
	elapsed   float64
	delta     float64
	running   bool
	now       func() time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Updates the provided clock. Should be called once per frame, before reading Delta or Elapsed.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if !c.running {
		return
	}
	t := c.now()
	c.elapsed = t.Sub(c.startTime).Seconds()
	c.delta = t.Sub(c.lastTick).Seconds()
	if c.delta < 0 {
		c.delta = 0
	}
	c.lastTick = t
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = c.now()
	c.lastTick = c.startTime
	c.elapsed = 0
	c.delta = 0
	c.running = true
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.running = false
}

// Elapsed is the total running time in seconds.
func (c *Clock) Elapsed() float64 {
	return c.elapsed
}

// Delta is the time between the last two updates in seconds.
func (c *Clock) Delta() float64 {
	return c.delta
}
