package testfixtures

import (
	"sync"
	"time"
)

// Clock is a settable time source for scheduler runs.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock set to start, or to ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the clock's current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc returns Now as an injectable function. A nil clock falls back to time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// NextMonth moves the clock to the same wall-clock time on the first day of
// the following month, the way a daily trigger crosses into a new month.
func (c *Clock) NextMonth() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.current
	c.current = time.Date(cur.Year(), cur.Month()+1, 1, cur.Hour(), cur.Minute(), cur.Second(), 0, cur.Location())
	return c.current
}
