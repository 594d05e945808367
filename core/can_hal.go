package core

import "errors"

// CANSettings configures a CAN peripheral. Bit timing segments are left to
// the driver.
type CANSettings struct {
	BaudRate uint32 // bits per second, e.g. 500000
}

// DefaultCANSettings is 500 kbit/s, the most common rate on vehicle and
// industrial buses.
var DefaultCANSettings = CANSettings{BaudRate: 500000}

// CANHandler consumes received frames. Handlers run in the driver's receive
// context (an interrupt, a polling loop, or a driver goroutine on hosts) and
// must not block.
type CANHandler interface {
	HandleCAN(frame CANFrame)
}

// CANHandlerFunc adapts a plain function to CANHandler.
type CANHandlerFunc func(frame CANFrame)

// HandleCAN calls f(frame).
func (f CANHandlerFunc) HandleCAN(frame CANFrame) {
	f(frame)
}

// CANDriver is the abstract CAN peripheral interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type CANDriver interface {
	// Configure applies bus settings. Returns error if the rate is
	// unsupported by the peripheral.
	Configure(settings CANSettings) error

	// Send queues a frame for transmission.
	Send(frame CANFrame) error

	// OnReceive replaces the receive handler. A nil handler detaches the
	// previous one; received frames are then dropped.
	OnReceive(handler CANHandler)
}

// ErrNoCANDriver is returned when no driver was registered.
var ErrNoCANDriver = errors.New("core: CAN driver not configured")

// Global singleton used by core code.
var canDriver CANDriver

// SetCANDriver is called by target-specific code to register its driver.
func SetCANDriver(d CANDriver) {
	canDriver = d
}

// GetCAN returns the configured driver or ErrNoCANDriver.
func GetCAN() (CANDriver, error) {
	if canDriver == nil {
		return nil, ErrNoCANDriver
	}
	return canDriver, nil
}

// MustCAN returns the configured driver or panics if missing.
func MustCAN() CANDriver {
	if canDriver == nil {
		panic("CAN driver not configured")
	}
	return canDriver
}
