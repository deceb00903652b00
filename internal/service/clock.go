package service

import (
	"sync"
	"time"
)

// postingClock hands out strictly increasing UTC timestamps so ledger rows
// posted by this process never share a posted_at value.
type postingClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func newPostingClock(now func() time.Time) *postingClock {
	if now == nil {
		now = time.Now
	}
	return &postingClock{now: now}
}

func (c *postingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
