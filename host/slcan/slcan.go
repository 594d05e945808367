// Package slcan drives serial CAN adapters speaking the Lawicel ASCII
// protocol (CANable, USBtin, CANUSB and compatibles).
package slcan

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"canhal/core"
	"canhal/host/serial"
	"canhal/protocol"
)

var (
	// ErrClosed is returned by operations on a closed adapter.
	ErrClosed = errors.New("slcan: adapter closed")

	// ErrListenOnly is returned by Send while the channel is open in
	// listen-only mode.
	ErrListenOnly = errors.New("slcan: channel is listen-only")
)

// Options select how Configure opens the channel.
type Options struct {
	ListenOnly bool // open with L: receive only, no acknowledgements on the bus
	Timestamps bool // ask the adapter to append frame timestamps
}

// Adapter implements core.CANDriver over an SLCAN serial port. Received
// frames are delivered from a reader goroutine started by the first
// Configure.
type Adapter struct {
	port serial.Port
	log  *slog.Logger

	mu         sync.Mutex // guards handler, opts, listenOnly, out, stats, running
	handler    core.CANHandler
	opts       Options
	listenOnly bool // channel currently open with L
	out        []byte
	stats      protocol.SLCANStats
	running    bool

	closed  atomic.Bool
	readErr atomic.Pointer[error]
	wg      sync.WaitGroup
}

// New wraps an already open port. A nil logger uses slog.Default().
func New(port serial.Port, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		port: port,
		log:  logger.With("driver", "slcan"),
		out:  make([]byte, 0, protocol.SLCANMaxLine),
	}
}

// Open opens the serial device described by cfg and wraps it.
func Open(cfg *serial.Config, logger *slog.Logger) (*Adapter, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("slcan: %w", err)
	}
	return New(port, logger), nil
}

// SetOptions changes the channel options; they apply on the next Configure.
func (a *Adapter) SetOptions(opts Options) {
	a.mu.Lock()
	a.opts = opts
	a.mu.Unlock()
}

// Configure closes the channel, selects the bitrate and reopens it. The
// reader goroutine starts on the first call.
func (a *Adapter) Configure(settings core.CANSettings) error {
	if a.closed.Load() {
		return ErrClosed
	}
	bitrate, err := protocol.SLCANBitrate(settings.BaudRate)
	if err != nil {
		return fmt.Errorf("slcan: %d bit/s: %w", settings.BaudRate, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		if err := a.port.Flush(); err != nil {
			return fmt.Errorf("slcan: flush: %w", err)
		}
	}
	cmds := []string{protocol.SLCANClose, bitrate}
	if a.opts.Timestamps {
		cmds = append(cmds, protocol.SLCANTimestamps(true))
	}
	if a.opts.ListenOnly {
		cmds = append(cmds, protocol.SLCANListenOnly)
	} else {
		cmds = append(cmds, protocol.SLCANOpen)
	}
	for _, cmd := range cmds {
		if _, err := io.WriteString(a.port, cmd); err != nil {
			return fmt.Errorf("slcan: write %q: %w", cmd[:len(cmd)-1], err)
		}
	}
	a.listenOnly = a.opts.ListenOnly
	a.log.Info("channel open", "bitrate", settings.BaudRate, "listen_only", a.opts.ListenOnly)

	if !a.running {
		a.running = true
		a.wg.Add(1)
		go a.readLoop()
	}
	return nil
}

// Send encodes frame and writes it to the adapter.
func (a *Adapter) Send(frame core.CANFrame) error {
	if a.closed.Load() {
		return ErrClosed
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.listenOnly {
		return ErrListenOnly
	}
	line, err := protocol.AppendSLCAN(a.out[:0], frame)
	if err != nil {
		return fmt.Errorf("slcan: send %v: %w", frame, err)
	}
	a.out = line
	if _, err := a.port.Write(line); err != nil {
		return fmt.Errorf("slcan: send %v: %w", frame, err)
	}
	return nil
}

// OnReceive replaces the receive handler; nil drops received frames.
func (a *Adapter) OnReceive(handler core.CANHandler) {
	a.mu.Lock()
	a.handler = handler
	a.mu.Unlock()
}

// Stats returns decoder counters of the reader goroutine.
func (a *Adapter) Stats() protocol.SLCANStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Err returns the error that stopped the reader, if any.
func (a *Adapter) Err() error {
	if p := a.readErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Close closes the CAN channel and the port and waits for the reader.
func (a *Adapter) Close() error {
	if a.closed.Swap(true) {
		return nil
	}

	a.mu.Lock()
	_, werr := io.WriteString(a.port, protocol.SLCANClose)
	a.mu.Unlock()

	err := a.port.Close()
	a.wg.Wait()
	if err != nil {
		return fmt.Errorf("slcan: close: %w", err)
	}
	if werr != nil {
		a.log.Debug("close command not sent", "err", werr)
	}
	return nil
}

func (a *Adapter) readLoop() {
	defer a.wg.Done()

	in := protocol.NewFifoBuffer(4 * protocol.SLCANMaxLine)
	var decoder protocol.SLCANDecoder
	var buf [64]byte

	for {
		n, err := a.port.Read(buf[:])
		if n > 0 {
			in.Write(buf[:n])
			a.drain(in, &decoder)
		}
		if err != nil {
			if a.closed.Load() {
				return
			}
			// tarm/serial reports a read timeout as EOF
			if errors.Is(err, io.EOF) {
				continue
			}
			a.log.Error("read failed", "err", err)
			err = fmt.Errorf("slcan: read: %w", err)
			a.readErr.Store(&err)
			return
		}
	}
}

// drain delivers every complete frame buffered in in.
func (a *Adapter) drain(in *protocol.FifoBuffer, decoder *protocol.SLCANDecoder) {
	for {
		frame, ok := decoder.Decode(in)

		cur := decoder.Stats()

		a.mu.Lock()
		handler := a.handler
		prev := a.stats
		a.stats = cur
		a.mu.Unlock()

		if cur.Malformed != prev.Malformed || cur.Bells != prev.Bells {
			a.log.Warn("adapter error", "malformed", cur.Malformed, "bells", cur.Bells)
		}
		if !ok {
			return
		}
		if handler != nil {
			handler.HandleCAN(frame)
		}
	}
}
