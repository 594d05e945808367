package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a router or scheduler event for post-mortem analysis
type Event struct {
	EventType uint8  // Event type code
	Clock     uint32 // System clock at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtRouteAdd    = 1 // route linked; v1=match id, v2=route count
	EvtRouteRemove = 2 // route unlinked; v1=match id, v2=route count
	EvtDrop        = 3 // frame matched no route; v1=frame id
	EvtFallback    = 4 // frame handed to the fallback handler; v1=frame id
	EvtRelocate    = 5 // router moved; v1=route count
	EvtRouterClose = 6 // router closed; v1=routes unlinked
	EvtTimerFire   = 7 // scheduler timer fired; v1=wake time
	EvtTimerPast   = 8 // timer scheduled in the past; v1=wake time
)

const (
	EventRingSize   = 32 // Keep last 32 events for post-mortem
	AsyncDebugDepth = 16 // Queued messages before DebugAsync drops
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Event capture ring buffer (non-blocking, for post-mortem)
	eventRing     [EventRingSize]Event
	eventRingHead uint8
	eventsEnabled bool = true

	// Async debug output channel
	debugChan chan string
	debugDone chan struct{}
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// SetEventsEnabled turns event capture on or off.
func SetEventsEnabled(enabled bool) {
	eventsEnabled = enabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	if debugChan != nil {
		return
	}
	debugChan = make(chan string, AsyncDebugDepth)
	debugDone = make(chan struct{})
	go debugOutputWorker(debugChan, debugDone)
}

// StopAsyncDebug flushes queued messages and stops the worker.
func StopAsyncDebug() {
	if debugChan == nil {
		return
	}
	close(debugChan)
	<-debugDone
	debugChan, debugDone = nil, nil
}

func debugOutputWorker(msgs <-chan string, done chan<- struct{}) {
	defer close(done)
	for msg := range msgs {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync for non-blocking)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for the worker started by
// InitAsyncDebug and never blocks: it reports false when the message was
// dropped because the queue is full. Without a worker it writes directly.
func DebugAsync(msg string) bool {
	if !debugEnabled {
		return false
	}
	if debugChan == nil {
		DebugPrintln(msg)
		return true
	}
	select {
	case debugChan <- msg:
		return true
	default:
		return false
	}
}

// RecordEvent captures an event in the ring buffer. Safe to call from
// interrupt context: no allocation, constant time.
func RecordEvent(eventType uint8, value1, value2 uint32) {
	if !eventsEnabled {
		return
	}
	idx := eventRingHead
	eventRing[idx] = Event{
		EventType: eventType,
		Clock:     GetTime(),
		Value1:    value1,
		Value2:    value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// Events copies the captured events, oldest first, into dst and returns the
// number written.
func Events(dst []Event) int {
	n := 0
	start := eventRingHead
	for i := uint8(0); i < EventRingSize && n < len(dst); i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.EventType == 0 {
			continue
		}
		dst[n] = evt
		n++
	}
	return n
}

func eventName(eventType uint8) string {
	switch eventType {
	case EvtRouteAdd:
		return "ROUTE_ADD"
	case EvtRouteRemove:
		return "ROUTE_REMOVE"
	case EvtDrop:
		return "DROP"
	case EvtFallback:
		return "FALLBACK"
	case EvtRelocate:
		return "RELOCATE"
	case EvtRouterClose:
		return "ROUTER_CLOSE"
	case EvtTimerFire:
		return "TIMER_FIRE"
	case EvtTimerPast:
		return "TIMER_PAST!"
	default:
		return "UNKNOWN"
	}
}

// DumpEventRing outputs the event ring buffer (call on shutdown/error)
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENT] === Event Ring Dump ===")
	var events [EventRingSize]Event
	n := Events(events[:])
	for _, evt := range events[:n] {
		debugPrintln("[EVENT] " + eventName(evt.EventType) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + htoa(evt.Value1, 8) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENT] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
}
