package core

// TimerEvent is the payload of a scheduled Timer.
type TimerEvent struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
}

// Timer is caller-owned timer storage, linked into the scheduler's static
// list while pending.
type Timer = Item[TimerEvent]

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

var (
	timerList   List[TimerEvent]
	currentTime uint32
)

// Critical runs fn with interrupts masked. Use it to serialize list or router
// mutation against an interrupt handler that dispatches on the same state.
func Critical(fn func()) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	fn()
}

// timerBefore compares tick counts across 32-bit wrap-around.
func timerBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// ScheduleTimer adds a timer to the schedule. A pending timer is moved to its
// new wake time.
func ScheduleTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if timerBefore(t.Value.WakeTime, currentTime) {
		RecordEvent(EvtTimerPast, t.Value.WakeTime, currentTime)
	}
	insertTimer(t)
}

// CancelTimer removes a pending timer; cancelling an idle timer is a no-op.
func CancelTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	timerList.Remove(t)
}

// PendingTimers returns the number of scheduled timers.
func PendingTimers() int {
	return timerList.Len()
}

// insertTimer links t in sorted order by WakeTime; equal wake times keep
// scheduling order.
func insertTimer(t *Timer) {
	t.Unlink()
	for it := timerList.Front(); it != nil; it = it.Next() {
		if timerBefore(t.Value.WakeTime, it.Value.WakeTime) {
			timerList.InsertBefore(t, it)
			return
		}
	}
	timerList.PushBack(t)
}

// TimerDispatch processes due timers
func TimerDispatch() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for {
		t := timerList.Front()
		if t == nil || timerBefore(currentTime, t.Value.WakeTime) {
			return
		}
		timerList.Remove(t)
		RecordEvent(EvtTimerFire, t.Value.WakeTime, 0)

		if t.Value.Handler(t) == SF_RESCHEDULE {
			insertTimer(t)
		}
	}
}
