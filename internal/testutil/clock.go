package testutil

import "time"

// Clock is a manually advanced clock. Sleeping advances it instantly.
type Clock struct {
	Current time.Time
	Paused  time.Duration
}

func NewClock() *Clock {
	return &Clock{Current: time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	return c.Current
}

func (c *Clock) Advance(d time.Duration) {
	c.Current = c.Current.Add(d)
}

func (c *Clock) Sleep(d time.Duration) {
	c.Paused += d
	c.Advance(d)
}
