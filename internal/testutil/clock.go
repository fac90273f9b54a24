// Package testutil holds deterministic sequence sources for tests and the
// scenario harness.
package testutil

import "sync/atomic"

// DeterministicClock numbers harness steps and generated ids. The first
// Next returns 1. Unlike nodes.Counter it can be rewound, so one clock can
// serve repeated runs of the same scenario.
type DeterministicClock struct {
	seq atomic.Int64
}

// NewDeterministicClock returns a clock at 0.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next advances the clock and returns the new value.
func (c *DeterministicClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out, or 0.
func (c *DeterministicClock) Current() int64 {
	return c.seq.Load()
}

// Reset rewinds the clock to 0.
func (c *DeterministicClock) Reset() {
	c.seq.Store(0)
}
