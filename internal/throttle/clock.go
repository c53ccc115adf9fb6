package throttle

import "time"

// Clock abstracts time progression so governor behavior stays testable.
type Clock interface {
	Now() time.Time
	After(waitDuration time.Duration) <-chan time.Time
}

// SystemClock implements Clock with the runtime clock.
type SystemClock struct{}

// NewSystemClock returns a Clock backed by the runtime clock.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current wall-clock time.
func (clock *SystemClock) Now() time.Time {
	return time.Now()
}

// After waits for the duration to elapse on a runtime timer.
func (clock *SystemClock) After(waitDuration time.Duration) <-chan time.Time {
	return time.After(waitDuration)
}
