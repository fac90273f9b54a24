package nodes

import "sync/atomic"

// Counter is a monotonic logical clock used to number spawn keys.
//
// Counter is safe for concurrent use, although a Spawner only calls it
// from the goroutine that owns its tree.
type Counter struct {
	seq atomic.Int64
}

// NewCounterAt creates a counter whose next value is start+1.
func NewCounterAt(start int64) *Counter {
	c := &Counter{}
	c.seq.Store(start)
	return c
}

// Next returns the next value and advances the counter.
func (c *Counter) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Counter) Current() int64 {
	return c.seq.Load()
}
