package clock

import "time"

// Clocker is the single source of current time for code that computes
// OTP expiries and cooldown windows.
type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the real system clock.
type TimeClocker struct{}

// New returns the production clock.
func New() *TimeClocker {
	return &TimeClocker{}
}

func (*TimeClocker) Now() time.Time {
	return time.Now()
}
