package core

import (
	"errors"
	"time"
)

// ErrTimedOut is returned by a Timeout once its deadline has passed.
var ErrTimedOut = errors.New("core: timed out")

// Timeout returns nil while time remains and ErrTimedOut afterwards.
type Timeout func() error

// FutureDeadline returns the uptime d from now on clock. Durations shorter
// than one tick round up to one tick.
func FutureDeadline(clock SteadyClock, d time.Duration) uint64 {
	var ticks uint64 = 1
	if d > 0 {
		// split to avoid overflowing d*freq for long durations
		freq := uint64(clock.Frequency())
		secs := uint64(d / time.Second)
		rem := uint64(d % time.Second)
		ticks = secs*freq + rem*freq/uint64(time.Second)
		if ticks < 1 {
			ticks = 1
		}
	}
	return clock.Uptime() + ticks
}

// NewTimeout returns a Timeout expiring d from now. Timeouts created from the
// same clock are independent.
func NewTimeout(clock SteadyClock, d time.Duration) Timeout {
	deadline := FutureDeadline(clock, d)
	return func() error {
		if clock.Uptime() >= deadline {
			return ErrTimedOut
		}
		return nil
	}
}

// NeverTimeout returns a Timeout that never expires.
func NeverTimeout() Timeout {
	return func() error { return nil }
}

// TimeoutGenerator binds a clock so callers can mint timeouts from durations.
func TimeoutGenerator(clock SteadyClock) func(d time.Duration) Timeout {
	return func(d time.Duration) Timeout {
		return NewTimeout(clock, d)
	}
}

// Delay busy-waits on clock for d (at least one tick).
func Delay(clock SteadyClock, d time.Duration) {
	deadline := FutureDeadline(clock, d)
	for clock.Uptime() < deadline {
	}
}

// WorkState is the progress of a worker polled by TryUntil.
type WorkState uint8

const (
	WorkInProgress WorkState = iota
	WorkFailed
	WorkFinished
)

func (s WorkState) String() string {
	switch s {
	case WorkInProgress:
		return "in progress"
	case WorkFailed:
		return "failed"
	case WorkFinished:
		return "finished"
	default:
		return "unknown work state"
	}
}

// Terminated reports whether the state is final.
func (s WorkState) Terminated() bool {
	return s == WorkFinished || s == WorkFailed
}

// TryUntil calls worker until it reaches a terminal state or timeout fires.
// Worker and timeout errors are returned as-is.
func TryUntil(worker func() (WorkState, error), timeout Timeout) (WorkState, error) {
	for {
		state, err := worker()
		if err != nil {
			return state, err
		}
		if state.Terminated() {
			return state, nil
		}
		if err := timeout(); err != nil {
			return state, err
		}
	}
}
