// Package socketcan drives Linux SocketCAN interfaces (can0, vcan0, ...)
// through raw CAN sockets.
package socketcan

import (
	"encoding/binary"
	"errors"

	"canhal/core"
)

var (
	// ErrClosed is returned by operations on a closed connection.
	ErrClosed = errors.New("socketcan: connection closed")

	// ErrUnsupported is returned by Dial outside Linux.
	ErrUnsupported = errors.New("socketcan: only available on linux")
)

// canErrFlag marks error frames in struct can_frame.
const canErrFlag = 0x20000000

// decodeFrame converts a struct can_frame read from the socket. Error
// frames are reported with ok false.
func decodeFrame(raw []byte) (frame core.CANFrame, ok bool, err error) {
	if len(raw) < core.CANFrameSize {
		return frame, false, core.ErrShortFrame
	}
	if binary.LittleEndian.Uint32(raw[0:4])&canErrFlag != 0 {
		return frame, false, nil
	}
	if err := frame.UnmarshalBinary(raw); err != nil {
		return frame, false, err
	}
	return frame, true, nil
}
