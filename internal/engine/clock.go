package engine

import (
	"sync/atomic"
	"time"
)

// Clock is the monotonic logical clock that stamps history entries.
//
// Each Process owns one. The init entry carries seq 0 and every committed
// dispatch takes the next value, so seq always equals the number of events
// applied so far. Ordering decisions use seq, never the wall-clock timestamp
// recorded alongside it.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// NowFunc supplies wall-clock timestamps for history entries.
// Tests substitute testutil.StepClock for reproducible exports.
type NowFunc func() time.Time
