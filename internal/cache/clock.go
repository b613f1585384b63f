package cache

import "time"

// Clock supplies the current time for entry-age checks. Everything in
// this package that compares timestamps goes through a Clock so tests
// can step time instead of sleeping.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// TestClock holds time still until told otherwise.
type TestClock struct {
	CurrentTime time.Time
}

// Now returns the held time.
func (t *TestClock) Now() time.Time {
	return t.CurrentTime
}

// Advance moves the held time forward, expiring entries older than the
// TTLs checked against it.
func (t *TestClock) Advance(d time.Duration) {
	t.CurrentTime = t.CurrentTime.Add(d)
}
