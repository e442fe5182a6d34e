package clock

import "time"

// Clocker is the time source used wherever the current moment matters for
// correctness (code windows, token expiry, created-at stamps).
type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the system clock.
type TimeClocker struct{}

func New() *TimeClocker {
	return &TimeClocker{}
}

func (*TimeClocker) Now() time.Time {
	return time.Now()
}
