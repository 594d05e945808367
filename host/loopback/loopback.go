// Package loopback provides an in-memory CAN bus for tests and simulation.
package loopback

import (
	"errors"
	"sync"

	"canhal/core"
)

// ErrClosed is returned by operations on a closed port.
var ErrClosed = errors.New("loopback: port closed")

// Bus connects ports; a frame sent on one port is received by every other
// open port configured for the same bitrate.
type Bus struct {
	mu    sync.Mutex
	ports []*Port
	sent  uint64
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Open attaches a new port to the bus at the default bitrate.
func (b *Bus) Open() *Port {
	p := &Port{bus: b, settings: core.DefaultCANSettings}
	b.mu.Lock()
	b.ports = append(b.ports, p)
	b.mu.Unlock()
	return p
}

// Sent returns the number of frames put on the bus.
func (b *Bus) Sent() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent
}

func (b *Bus) detach(p *Port) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, q := range b.ports {
		if q == p {
			b.ports = append(b.ports[:i], b.ports[i+1:]...)
			return
		}
	}
}

// Port is one node's attachment to a Bus. It implements core.CANDriver.
type Port struct {
	bus *Bus

	mu       sync.Mutex
	handler  core.CANHandler
	settings core.CANSettings
	closed   bool
}

// Configure sets the port's bitrate. Ports at different rates do not see
// each other's frames.
func (p *Port) Configure(settings core.CANSettings) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if settings.BaudRate == 0 {
		return errors.New("loopback: bitrate must be positive")
	}
	p.settings = settings
	return nil
}

// Send delivers frame synchronously to the receive handlers of the other
// ports before returning.
func (p *Port) Send(frame core.CANFrame) error {
	if err := frame.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	closed, rate := p.closed, p.settings.BaudRate
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}

	b := p.bus
	b.mu.Lock()
	b.sent++
	peers := make([]*Port, 0, len(b.ports))
	for _, q := range b.ports {
		if q != p {
			peers = append(peers, q)
		}
	}
	b.mu.Unlock()

	for _, q := range peers {
		q.mu.Lock()
		h := q.handler
		match := q.settings.BaudRate == rate
		q.mu.Unlock()
		if h != nil && match {
			h.HandleCAN(frame)
		}
	}
	return nil
}

// OnReceive replaces the receive handler; nil drops received frames.
func (p *Port) OnReceive(handler core.CANHandler) {
	p.mu.Lock()
	p.handler = handler
	p.mu.Unlock()
}

// Close detaches the port from the bus.
func (p *Port) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.handler = nil
	p.mu.Unlock()

	p.bus.detach(p)
	return nil
}
