// internal/sched/tickclock.go

package sched

import "fmt"

// TickClock is the simulation's virtual clock. It only moves forward and
// only when the dispatcher advances it; nothing in here touches wall time.
type TickClock struct {
	now   int64
	steps int64 // number of advances, i.e. loop iterations
}

// NewTickClock creates a clock at tick 0.
func NewTickClock() *TickClock {
	return &TickClock{}
}

// Now returns the current virtual tick.
func (c *TickClock) Now() int64 { return c.now }

// Steps returns how many times the clock has been advanced.
func (c *TickClock) Steps() int64 { return c.steps }

// Advance moves the clock forward by d ticks.
func (c *TickClock) Advance(d int64) error {
	if d <= 0 {
		return fmt.Errorf("clock at %d: advance by non-positive %d", c.now, d)
	}
	c.now += d
	c.steps++
	return nil
}
