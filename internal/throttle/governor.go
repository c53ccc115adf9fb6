package throttle

import (
	"context"
	"sync"
	"time"
)

// RateGovernor spaces remote operations by chaining every wait after the
// completion of the previously scheduled one. Concurrent callers reserve
// completion slots atomically, so a governor shared across goroutines
// serializes their remote calls with at least the requested delay between
// consecutive completions.
type RateGovernor struct {
	clock             Clock
	reservationMutex  sync.Mutex
	nextAvailableTime time.Time
}

// NewRateGovernor constructs a governor. A nil clock falls back to the
// runtime clock.
func NewRateGovernor(clock Clock) *RateGovernor {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &RateGovernor{clock: clock}
}

// Wait blocks until the caller's reserved completion slot arrives or the
// context is cancelled. The slot is consumed either way.
func (governor *RateGovernor) Wait(executionContext context.Context, requestedDelay time.Duration) error {
	if requestedDelay < 0 {
		requestedDelay = 0
	}

	governor.reservationMutex.Lock()
	currentTime := governor.clock.Now()
	scheduleStart := governor.nextAvailableTime
	if currentTime.After(scheduleStart) {
		scheduleStart = currentTime
	}
	completionTime := scheduleStart.Add(requestedDelay)
	governor.nextAvailableTime = completionTime
	governor.reservationMutex.Unlock()

	waitDuration := completionTime.Sub(currentTime)
	if waitDuration <= 0 {
		return executionContext.Err()
	}

	select {
	case <-governor.clock.After(waitDuration):
		return nil
	case <-executionContext.Done():
		return executionContext.Err()
	}
}
