// Package testutil provides deterministic time and id sources for tests.
package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Epoch is the default start of a Clock.
var Epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// Clock is a thread-safe wall clock that advances by a fixed step on every
// read. The same sequence of calls always yields the same timestamps.
type Clock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	n     int64
}

// NewClock creates a clock starting at Epoch and stepping one second.
//
// The first call to Now() returns Epoch.
func NewClock() *Clock {
	return NewClockAt(Epoch, time.Second)
}

// NewClockAt creates a clock starting at start and stepping by step.
func NewClockAt(start time.Time, step time.Duration) *Clock {
	return &Clock{start: start.UTC(), step: step}
}

// Now returns the current time, then advances the clock by one step.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Peek returns the time the next Now() will return, without advancing.
func (c *Clock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start.Add(time.Duration(c.n) * c.step)
}

// Advance moves the clock forward by d without consuming a step.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = c.start.Add(d)
}

// Reset rewinds the clock to its start.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}

// SequentialIDs returns an id generator yielding prefix-1, prefix-2, ...
//
// Safe for concurrent use.
func SequentialIDs(prefix string) func() string {
	if prefix == "" {
		prefix = "run"
	}
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}
