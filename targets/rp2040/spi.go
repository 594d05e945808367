//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"
)

// RP2040/RP2350 SPI Bus Configurations
// Each bus specifies which SPI controller and GPIO pins to use

type spiBusConfig struct {
	spi  *machine.SPI // SPI controller (SPI0 or SPI1)
	sck  machine.Pin  // Clock pin
	mosi machine.Pin  // Master Out Slave In
	miso machine.Pin  // Master In Slave Out
	name string       // Human-readable name
}

var rp2040SPIBuses = [...]spiBusConfig{
	// SPI0 configurations
	{spi: machine.SPI0, sck: machine.GPIO2, mosi: machine.GPIO3, miso: machine.GPIO0, name: "spi0a"},
	{spi: machine.SPI0, sck: machine.GPIO6, mosi: machine.GPIO7, miso: machine.GPIO4, name: "spi0b"},
	{spi: machine.SPI0, sck: machine.GPIO18, mosi: machine.GPIO19, miso: machine.GPIO16, name: "spi0c"},

	// SPI1 configurations
	{spi: machine.SPI1, sck: machine.GPIO10, mosi: machine.GPIO11, miso: machine.GPIO8, name: "spi1a"},
	{spi: machine.SPI1, sck: machine.GPIO14, mosi: machine.GPIO15, miso: machine.GPIO12, name: "spi1b"},
}

var errSPIBus = errors.New("invalid SPI bus ID")

// configureSPIBus sets up a hardware SPI bus in mode 0, the mode the MCP2515
// requires.
func configureSPIBus(id uint8, frequency uint32) (*machine.SPI, error) {
	if int(id) >= len(rp2040SPIBuses) {
		return nil, errSPIBus
	}
	bus := rp2040SPIBuses[id]

	err := bus.spi.Configure(machine.SPIConfig{
		Frequency: frequency,
		SCK:       bus.sck,
		SDO:       bus.mosi, // SDO = Serial Data Out (MOSI)
		SDI:       bus.miso, // SDI = Serial Data In (MISO)
		Mode:      0,
	})
	if err != nil {
		return nil, err
	}
	return bus.spi, nil
}
