//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/mcp2515"

	"canhal/core"
)

// Board wiring
const (
	nodeID = 0x10

	canSPIBus  = 2 // spi0c: SCK=GP18, MOSI=GP19, MISO=GP16
	canSPIFreq = 10000000
	canCSPin   = machine.GPIO17
	canCrystal = mcp2515.Clock8MHz

	canStartTimeout = 500 * time.Millisecond

	sensorI2CBus  = 0
	sensorI2CFreq = 400000
)

var (
	router    *core.CANRouter
	canDriver *MCP2515Driver

	loopErrors uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s))
		machine.Serial.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()

	InitClock()

	spi, err := configureSPIBus(canSPIBus, canSPIFreq)
	if err != nil {
		halt("spi: " + err.Error())
	}
	canDriver = NewMCP2515Driver(spi, canCSPin, canCrystal)
	core.SetCANDriver(canDriver)
	if err := startCAN(); err != nil {
		halt("can: " + err.Error())
	}
	router = core.NewCANRouter(canDriver)

	i2c, err := configureI2CBus(sensorI2CBus, sensorI2CFreq)
	if err != nil {
		halt("i2c: " + err.Error())
	}
	node := NewAccelNode(nodeID, i2c, canDriver, resetBoard)
	node.Register(router)

	core.DebugPrintln("can node ready")

	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					loopErrors++
				}
			}()

			UpdateSystemTime()
			canDriver.Poll()
			core.ProcessTimers()
		}()

		// Yield to other goroutines
		time.Sleep(10 * time.Microsecond)
	}
}

// startCAN retries controller setup while the MCP2515 leaves reset.
func startCAN() error {
	var lastErr error
	_, err := core.TryUntil(func() (core.WorkState, error) {
		lastErr = canDriver.Configure(core.DefaultCANSettings)
		if lastErr != nil {
			core.Delay(Clock, 10*time.Millisecond)
			return core.WorkInProgress, nil
		}
		return core.WorkFinished, nil
	}, core.NewTimeout(Clock, canStartTimeout))
	if err != nil && lastErr != nil {
		return lastErr
	}
	return err
}

// resetBoard triggers a watchdog reset.
func resetBoard() {
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1}); err != nil {
		return
	}
	if err := machine.Watchdog.Start(); err != nil {
		return
	}
	// Wait for reset (should happen in ~1ms)
	for {
		time.Sleep(1 * time.Millisecond)
	}
}

// halt reports a fatal setup error forever.
func halt(msg string) {
	for {
		core.DebugPrintln(msg)
		time.Sleep(time.Second)
	}
}
