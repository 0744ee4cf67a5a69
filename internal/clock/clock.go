// Package clock abstracts the source of the current time so that services and
// background jobs can be tested against a fixed instant. All timestamps in the
// application are UTC; the database stores naive UTC datetimes.
package clock

import "time"

// Clock supplies the current UTC instant.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

// Now returns the current time in UTC.
func (Real) Now() time.Time { return time.Now().UTC() }

// Fixed is a Clock pinned to a single instant, for tests.
type Fixed struct {
	Instant time.Time
}

// Now returns the pinned instant.
func (f Fixed) Now() time.Time { return f.Instant }
