package core

import "sync/atomic"

// systemTicks is written by the platform timer (interrupt or polling loop)
// and read from dispatch paths, so it is accessed atomically on every target.
var systemTicks atomic.Uint32

// getSystemTicks returns the current system ticks
func getSystemTicks() uint32 {
	return systemTicks.Load()
}

// setSystemTicks sets the system ticks
func setSystemTicks(ticks uint32) {
	systemTicks.Store(ticks)
}
