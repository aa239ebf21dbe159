package edicttest

import "sync"

// Clock hands out a monotonically increasing sequence number for ordering
// trace events within a run. Safe for concurrent use.
type Clock struct {
	mu  sync.Mutex
	seq int64
}

// NewClock returns a Clock whose first Next call yields 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next increments the sequence and returns the new value.
func (c *Clock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	return c.seq
}

// Current returns the last value handed out without advancing.
func (c *Clock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.seq
}

// Reset rewinds the sequence to zero.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq = 0
}
