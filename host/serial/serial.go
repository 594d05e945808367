// Package serial opens the serial ports SLCAN adapters enumerate as.
package serial

import (
	"io"
	"time"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - In-memory pipes (for testing adapters)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string `yaml:"device"`

	// Baud rate of the UART link to the adapter; USB CDC adapters ignore it
	Baud int `yaml:"baud"`

	// Read timeout (0 = blocking). Reader goroutines use it to notice Close.
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// DefaultConfig returns the configuration most SLCAN adapters ship with
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}
