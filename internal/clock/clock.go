package clock

import "time"

// Clock abstracts wall-clock access so time-dependent code can be tested
// with a pinned clock.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the host wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Time
}
