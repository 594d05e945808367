//go:build linux

package socketcan

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"canhal/core"
)

// pollInterval bounds how long the reader blocks before checking for Close.
const pollInterval = 200 * time.Millisecond

// Conn is a raw CAN socket bound to one interface. It implements
// core.CANDriver.
type Conn struct {
	fd     int
	ifname string
	log    *slog.Logger

	mu      sync.Mutex
	handler core.CANHandler

	closed atomic.Bool
	wg     sync.WaitGroup
}

// Dial opens a raw CAN socket on ifname and starts its reader goroutine.
func Dial(ifname string, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ifi, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, fmt.Errorf("socketcan: interface %s: %w", ifname, err)
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("socketcan: socket: %w", err)
	}
	tv := unix.NsecToTimeval(pollInterval.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("socketcan: set receive timeout: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: ifi.Index}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("socketcan: bind %s: %w", ifname, err)
	}

	c := &Conn{
		fd:     fd,
		ifname: ifname,
		log:    logger.With("driver", "socketcan", "interface", ifname),
	}
	c.wg.Add(1)
	go c.readLoop()
	return c, nil
}

// Configure checks the settings. The bitrate of a SocketCAN interface is set
// with netlink (ip link set can0 type can bitrate N) before it comes up, so
// it is only logged here.
func (c *Conn) Configure(settings core.CANSettings) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if settings.BaudRate == 0 {
		return errors.New("socketcan: bitrate must be positive")
	}
	c.log.Debug("bitrate is managed by the interface", "requested", settings.BaudRate)
	return nil
}

// Send writes one frame to the socket.
func (c *Conn) Send(frame core.CANFrame) error {
	if c.closed.Load() {
		return ErrClosed
	}
	var buf [core.CANFrameSize]byte
	if err := frame.PutBinary(buf[:]); err != nil {
		return fmt.Errorf("socketcan: send %v: %w", frame, err)
	}
	if _, err := unix.Write(c.fd, buf[:]); err != nil {
		return fmt.Errorf("socketcan: send %v: %w", frame, err)
	}
	return nil
}

// OnReceive replaces the receive handler; nil drops received frames.
func (c *Conn) OnReceive(handler core.CANHandler) {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()
}

// Close stops the reader and closes the socket.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.wg.Wait()
	if err := unix.Close(c.fd); err != nil {
		return fmt.Errorf("socketcan: close: %w", err)
	}
	return nil
}

func (c *Conn) readLoop() {
	defer c.wg.Done()

	var buf [core.CANFrameSize]byte
	for !c.closed.Load() {
		n, err := unix.Read(c.fd, buf[:])
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			c.log.Error("read failed", "err", err)
			return
		}

		frame, ok, err := decodeFrame(buf[:n])
		if err != nil {
			c.log.Warn("dropping frame", "err", err)
			continue
		}
		if !ok {
			c.log.Debug("bus error frame")
			continue
		}

		c.mu.Lock()
		h := c.handler
		c.mu.Unlock()
		if h != nil {
			h.HandleCAN(frame)
		}
	}
}
