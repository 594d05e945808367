package core

// Timer frequencies for common MCUs
const (
	TimerFreq = 12000000 // 12MHz default timer frequency
)

var (
	uptimeCounter OverflowCounter
	bootTime      uint64 // Uptime at TimerInit
)

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// GetUptime returns 64-bit uptime in timer ticks. The 32-bit tick counter is
// extended by counting its wrap-arounds, so GetUptime must be called at least
// once per wrap period (about 358 s at 12 MHz).
func GetUptime() uint64 {
	return uptimeCounter.Update(GetTime())
}

// UptimeSinceBoot returns ticks elapsed since TimerInit.
func UptimeSinceBoot() uint64 {
	return GetUptime() - bootTime
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// TimerInit initializes the system timer
func TimerInit() {
	uptimeCounter.Reset()
	bootTime = GetUptime()
}

// ProcessTimers processes scheduled timers
func ProcessTimers() {
	currentTime = GetTime()
	TimerDispatch()
}

// SteadyClock is a monotonic tick source with a fixed frequency.
type SteadyClock interface {
	// Frequency returns ticks per second.
	Frequency() uint32

	// Uptime returns ticks since the clock started.
	Uptime() uint64
}

type systemClock struct{}

func (systemClock) Frequency() uint32 { return TimerFreq }
func (systemClock) Uptime() uint64    { return GetUptime() }

// SystemClock is the SteadyClock backed by the package tick counter.
var SystemClock SteadyClock = systemClock{}
