package session

import "time"

// Clock provides the current time. Expiry checks and processed-code
// retention read time only through a Clock.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
