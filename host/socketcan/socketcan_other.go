//go:build !linux

package socketcan

import (
	"log/slog"

	"canhal/core"
)

// Conn is unavailable outside Linux.
type Conn struct{}

// Dial always fails with ErrUnsupported.
func Dial(ifname string, logger *slog.Logger) (*Conn, error) {
	return nil, ErrUnsupported
}

func (c *Conn) Configure(core.CANSettings) error { return ErrUnsupported }
func (c *Conn) Send(core.CANFrame) error          { return ErrUnsupported }
func (c *Conn) OnReceive(core.CANHandler)         {}
func (c *Conn) Close() error                      { return nil }
