package core

import (
	"encoding/binary"
	"errors"
)

// CANFrame is a classical CAN (2.0A/2.0B) frame as delivered by a
// peripheral driver.
type CANFrame struct {
	ID       uint32 // 11-bit (std) or 29-bit (ext)
	Extended bool   // true for 29-bit identifier
	RTR      bool   // remote transmission request
	Len      uint8  // 0..8
	Data     [8]byte
}

// Identifier limits.
const (
	CANMaxStandardID = 0x7FF
	CANMaxExtendedID = 0x1FFFFFFF
	CANMaxDataLen    = 8
)

// Linux struct can_frame flag bits.
const (
	canEffFlag = 0x80000000
	canRtrFlag = 0x40000000
)

// CANFrameSize is the size of the Linux SocketCAN struct can_frame layout.
const CANFrameSize = 16

var (
	ErrInvalidID  = errors.New("core: invalid CAN identifier")
	ErrInvalidLen = errors.New("core: invalid CAN data length")
	ErrShortFrame = errors.New("core: short CAN frame buffer")
)

// NewCANFrame builds a data frame, choosing the extended format when id does
// not fit in 11 bits.
func NewCANFrame(id uint32, data []byte) (CANFrame, error) {
	var f CANFrame
	if len(data) > CANMaxDataLen {
		return f, ErrInvalidLen
	}
	f.ID = id
	f.Extended = id > CANMaxStandardID
	f.Len = uint8(len(data))
	copy(f.Data[:], data)
	if err := f.Validate(); err != nil {
		return CANFrame{}, err
	}
	return f, nil
}

// MustCANFrame is NewCANFrame that panics on invalid input.
func MustCANFrame(id uint32, data []byte) CANFrame {
	f, err := NewCANFrame(id, data)
	if err != nil {
		panic(err)
	}
	return f
}

// Validate returns an error if the frame cannot exist on the bus.
func (f CANFrame) Validate() error {
	if f.Len > CANMaxDataLen {
		return ErrInvalidLen
	}
	if f.Extended {
		if f.ID > CANMaxExtendedID {
			return ErrInvalidID
		}
	} else if f.ID > CANMaxStandardID {
		return ErrInvalidID
	}
	return nil
}

// Payload returns the valid data bytes.
func (f *CANFrame) Payload() []byte {
	n := f.Len
	if n > CANMaxDataLen {
		n = CANMaxDataLen
	}
	return f.Data[:n]
}

// Equal compares identifier, format flags and the valid payload bytes only.
func (f CANFrame) Equal(other CANFrame) bool {
	if f.ID != other.ID || f.Extended != other.Extended || f.RTR != other.RTR || f.Len != other.Len {
		return false
	}
	for i := uint8(0); i < f.Len && i < CANMaxDataLen; i++ {
		if f.Data[i] != other.Data[i] {
			return false
		}
	}
	return true
}

// String renders the frame as "123 [2] DE AD", "1ABCDEFF [0] RTR".
func (f CANFrame) String() string {
	var buf [8 + 5 + 3*CANMaxDataLen + 4]byte
	n := 0
	if f.Extended {
		n += putHex(buf[n:], f.ID, 8)
	} else {
		n += putHex(buf[n:], f.ID, 3)
	}
	buf[n] = ' '
	buf[n+1] = '['
	buf[n+2] = '0' + f.Len%10
	buf[n+3] = ']'
	n += 4
	if f.RTR {
		n += copy(buf[n:], " RTR")
		return string(buf[:n])
	}
	for _, b := range f.Payload() {
		buf[n] = ' '
		n++
		n += putHex(buf[n:], uint32(b), 2)
	}
	return string(buf[:n])
}

// MarshalBinary encodes the frame in the Linux SocketCAN struct can_frame
// layout (16 bytes, little-endian):
//
//	0..3  can_id (with EFF/RTR flags)
//	4     can_dlc
//	5..7  padding
//	8..15 data
func (f CANFrame) MarshalBinary() ([]byte, error) {
	buf := make([]byte, CANFrameSize)
	if err := f.PutBinary(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// PutBinary is MarshalBinary into a caller-provided buffer of at least
// CANFrameSize bytes.
func (f CANFrame) PutBinary(buf []byte) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if len(buf) < CANFrameSize {
		return ErrShortFrame
	}
	id := f.ID
	if f.Extended {
		id |= canEffFlag
	}
	if f.RTR {
		id |= canRtrFlag
	}
	binary.LittleEndian.PutUint32(buf[0:4], id)
	buf[4] = f.Len
	buf[5], buf[6], buf[7] = 0, 0, 0
	copy(buf[8:16], f.Data[:])
	return nil
}

// UnmarshalBinary decodes the struct can_frame layout.
func (f *CANFrame) UnmarshalBinary(data []byte) error {
	if len(data) < CANFrameSize {
		return ErrShortFrame
	}
	id := binary.LittleEndian.Uint32(data[0:4])
	f.Extended = id&canEffFlag != 0
	f.RTR = id&canRtrFlag != 0
	if f.Extended {
		f.ID = id & CANMaxExtendedID
	} else {
		f.ID = id & CANMaxStandardID
	}
	f.Len = data[4]
	copy(f.Data[:], data[8:16])
	return f.Validate()
}
