//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"

	"tinygo.org/x/drivers/mcp2515"

	"canhal/core"
)

var (
	errCANBitrate  = errors.New("mcp2515: unsupported bitrate")
	errCANExtended = errors.New("mcp2515: extended transmit unsupported")
	errCANRemote   = errors.New("mcp2515: remote frames unsupported")
)

// mcp2515Rates maps bus bitrates to the driver's speed codes.
var mcp2515Rates = [...]struct {
	baud  uint32
	speed byte
}{
	{10000, mcp2515.CAN10kBps},
	{20000, mcp2515.CAN20kBps},
	{50000, mcp2515.CAN50kBps},
	{100000, mcp2515.CAN100kBps},
	{125000, mcp2515.CAN125kBps},
	{250000, mcp2515.CAN250kBps},
	{500000, mcp2515.CAN500kBps},
	{1000000, mcp2515.CAN1000kBps},
}

// MCP2515Driver implements core.CANDriver on an MCP2515 SPI controller.
// Received frames are pulled by Poll from the main loop.
type MCP2515Driver struct {
	dev     *mcp2515.Device
	crystal byte
	handler core.CANHandler

	received uint32
	rxErrors uint32
}

// NewMCP2515Driver creates a driver for a controller on spi with chip select
// cs. crystal is mcp2515.Clock8MHz or mcp2515.Clock16MHz.
func NewMCP2515Driver(spi *machine.SPI, cs machine.Pin, crystal byte) *MCP2515Driver {
	dev := mcp2515.New(spi, cs)
	dev.Configure()
	return &MCP2515Driver{dev: dev, crystal: crystal}
}

func (d *MCP2515Driver) Configure(settings core.CANSettings) error {
	for _, r := range mcp2515Rates {
		if r.baud == settings.BaudRate {
			return d.dev.Begin(r.speed, d.crystal)
		}
	}
	return errCANBitrate
}

// Send transmits a standard data frame. The driver has no extended or remote
// transmit path.
func (d *MCP2515Driver) Send(frame core.CANFrame) error {
	if err := frame.Validate(); err != nil {
		return err
	}
	if frame.Extended {
		return errCANExtended
	}
	if frame.RTR {
		return errCANRemote
	}
	return d.dev.Tx(frame.ID, frame.Len, frame.Payload())
}

func (d *MCP2515Driver) OnReceive(handler core.CANHandler) {
	core.Critical(func() {
		d.handler = handler
	})
}

// Poll drains the controller's receive buffers into the handler.
func (d *MCP2515Driver) Poll() {
	for d.dev.Received() {
		msg, err := d.dev.Rx()
		if err != nil {
			d.rxErrors++
			return
		}
		// NewCANFrame marks identifiers above 0x7FF as extended
		frame, err := core.NewCANFrame(msg.ID, msg.Data[:min(int(msg.Dlc), len(msg.Data))])
		if err != nil {
			d.rxErrors++
			continue
		}
		d.received++
		if d.handler != nil {
			d.handler.HandleCAN(frame)
		}
	}
}
