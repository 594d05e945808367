//go:build rp2040 || rp2350

package main

import (
	"canhal/core"
	"runtime/volatile"
	"unsafe"
)

// RP2040/RP2350 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08 // Raw timer high word
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word

	hardwareTimerFreq = 1000000 // 1MHz microsecond counter
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// hardwareClock is the RP2040 64-bit microsecond timer as a SteadyClock.
type hardwareClock struct{}

func (hardwareClock) Frequency() uint32 { return hardwareTimerFreq }
func (hardwareClock) Uptime() uint64    { return GetHardwareUptime() }

// Clock is the board clock used for timeouts and scheduling periods.
var Clock core.SteadyClock = hardwareClock{}

// InitClock seeds the core tick counter from the hardware timer
func InitClock() {
	UpdateSystemTime()
	core.TimerInit()
}

// GetHardwareTime reads the RP2040 hardware timer
// Returns the low 32 bits of the microsecond counter
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// GetHardwareUptime reads the full 64-bit RP2040 hardware timer
func GetHardwareUptime() uint64 {
	// Must read high first, then low, then high again to detect rollover
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// UpdateSystemTime updates the core timer with hardware time
// Called from main loop
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime())
}

// ticksFromMS converts milliseconds to core ticks, which follow the
// hardware timer on this board.
func ticksFromMS(ms uint32) uint32 {
	return ms * (hardwareTimerFreq / 1000)
}
