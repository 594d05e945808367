package protocol

import (
	"errors"

	"canhal/core"
)

var (
	// ErrSLCANFrame reports a frame line that does not parse.
	ErrSLCANFrame = errors.New("protocol: malformed SLCAN frame")

	// ErrSLCANBitrate reports a bitrate without an Sn setup command.
	ErrSLCANBitrate = errors.New("protocol: unsupported SLCAN bitrate")

	// ErrOutputFull reports that an encoded line did not fit the output.
	ErrOutputFull = errors.New("protocol: output buffer full")
)

// SLCAN channel commands
const (
	SLCANOpen       = "O\r"
	SLCANListenOnly = "L\r"
	SLCANClose      = "C\r"
)

// slcanBitrates maps the standard Sn setup codes to bits per second.
var slcanBitrates = [...]uint32{
	10000, 20000, 50000, 100000, 125000, 250000, 500000, 800000, 1000000,
}

// SLCANBitrate returns the Sn command selecting baud.
func SLCANBitrate(baud uint32) (string, error) {
	for i, rate := range slcanBitrates {
		if rate == baud {
			return "S" + string(rune('0'+i)) + "\r", nil
		}
	}
	return "", ErrSLCANBitrate
}

// SLCANTimestamps returns the command switching adapter timestamps on or
// off. Decoded frames tolerate either setting.
func SLCANTimestamps(on bool) string {
	if on {
		return "Z1\r"
	}
	return "Z0\r"
}

const hexUpper = "0123456789ABCDEF"

// AppendSLCAN appends frame as a terminated SLCAN line to dst.
func AppendSLCAN(dst []byte, frame core.CANFrame) ([]byte, error) {
	if err := frame.Validate(); err != nil {
		return dst, err
	}

	kind, digits := byte('t'), 3
	if frame.Extended {
		kind, digits = 'T', 8
	}
	if frame.RTR {
		kind -= 't' - 'r'
	}

	dst = append(dst, kind)
	for shift := (digits - 1) * 4; shift >= 0; shift -= 4 {
		dst = append(dst, hexUpper[(frame.ID>>uint(shift))&0xF])
	}
	dst = append(dst, '0'+frame.Len)
	if !frame.RTR {
		for _, b := range frame.Data[:frame.Len] {
			dst = append(dst, hexUpper[b>>4], hexUpper[b&0xF])
		}
	}
	return append(dst, slcanCR), nil
}

// EncodeSLCAN writes frame as one SLCAN line to out. Nothing is written when
// the frame is invalid; a partially written line returns ErrOutputFull.
func EncodeSLCAN(out OutputBuffer, frame core.CANFrame) error {
	var line [SLCANMaxLine]byte
	b, err := AppendSLCAN(line[:0], frame)
	if err != nil {
		return err
	}
	if out.Output(b) != len(b) {
		return ErrOutputFull
	}
	return nil
}

// ParseSLCAN decodes one frame line without its carriage return. A trailing
// four-digit timestamp is accepted and ignored.
func ParseSLCAN(line []byte) (core.CANFrame, error) {
	var frame core.CANFrame
	if len(line) == 0 {
		return frame, ErrSLCANFrame
	}

	digits := 3
	switch line[0] {
	case 't':
	case 'r':
		frame.RTR = true
	case 'T':
		frame.Extended = true
		digits = 8
	case 'R':
		frame.Extended = true
		frame.RTR = true
		digits = 8
	default:
		return frame, ErrSLCANFrame
	}

	pos := 1
	if len(line) < pos+digits+1 {
		return frame, ErrSLCANFrame
	}
	id, ok := parseHex(line[pos : pos+digits])
	if !ok {
		return frame, ErrSLCANFrame
	}
	frame.ID = id
	pos += digits

	n := line[pos]
	if n < '0' || n > '8' {
		return frame, ErrSLCANFrame
	}
	frame.Len = n - '0'
	pos++

	if !frame.RTR {
		end := pos + 2*int(frame.Len)
		if len(line) < end {
			return frame, ErrSLCANFrame
		}
		for i := range int(frame.Len) {
			v, ok := parseHex(line[pos+2*i : pos+2*i+2])
			if !ok {
				return frame, ErrSLCANFrame
			}
			frame.Data[i] = byte(v)
		}
		pos = end
	}

	switch len(line) - pos {
	case 0:
	case 4:
		if _, ok := parseHex(line[pos:]); !ok {
			return frame, ErrSLCANFrame
		}
	default:
		return frame, ErrSLCANFrame
	}

	if frame.Validate() != nil {
		return frame, ErrSLCANFrame
	}
	return frame, nil
}

func parseHex(b []byte) (uint32, bool) {
	var v uint32
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9':
			c -= '0'
		case c >= 'A' && c <= 'F':
			c -= 'A' - 10
		case c >= 'a' && c <= 'f':
			c -= 'a' - 10
		default:
			return 0, false
		}
		v = v<<4 | uint32(c)
	}
	return v, true
}

// SLCANStats counts what the decoder consumed.
type SLCANStats struct {
	Frames    uint32 // frame lines decoded
	Malformed uint32 // frame lines dropped as unparseable
	Acks      uint32 // bare CR and z/Z transmit acknowledgements
	Bells     uint32 // error replies
	Other     uint32 // other replies (version, status, ...)
}

// SLCANDecoder extracts frames from an adapter's byte stream. It keeps no
// partial-line state; incomplete lines stay in the input buffer until the
// rest arrives.
type SLCANDecoder struct {
	stats SLCANStats
}

// Stats returns the decoder counters.
func (d *SLCANDecoder) Stats() SLCANStats {
	return d.stats
}

// Decode consumes input up to and including the next frame line and returns
// the frame. It returns false once in holds no complete frame line. Replies
// and malformed lines are consumed and counted.
func (d *SLCANDecoder) Decode(in InputBuffer) (core.CANFrame, bool) {
	for {
		data := in.Data()
		if len(data) == 0 {
			return core.CANFrame{}, false
		}

		switch data[0] {
		case slcanCR:
			d.stats.Acks++
			in.Pop(1)
			continue
		case slcanBell:
			d.stats.Bells++
			in.Pop(1)
			continue
		}

		end := -1
		for i, b := range data {
			if b == slcanCR {
				end = i
				break
			}
		}
		if end < 0 {
			if len(data) >= SLCANMaxLine {
				// no terminator within a line length: resynchronize
				d.stats.Malformed++
				in.Pop(len(data))
			}
			return core.CANFrame{}, false
		}

		line := data[:end]
		switch line[0] {
		case 't', 'T', 'r', 'R':
			frame, err := ParseSLCAN(line)
			in.Pop(end + 1)
			if err != nil {
				d.stats.Malformed++
				continue
			}
			d.stats.Frames++
			return frame, true
		case 'z', 'Z':
			d.stats.Acks++
		default:
			d.stats.Other++
		}
		in.Pop(end + 1)
	}
}
