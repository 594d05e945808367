package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"canhal/core"
)

// parseFrame reads the cansend notation: 123#DEADBEEF for standard frames,
// 1ABCDEFF#01 for extended ones (eight id digits) and 123#R for remote
// requests, optionally followed by a length digit (123#R2).
func parseFrame(s string) (core.CANFrame, error) {
	var f core.CANFrame

	idPart, dataPart, ok := strings.Cut(strings.TrimSpace(s), "#")
	if !ok {
		return f, fmt.Errorf("frame %q: missing '#'", s)
	}
	switch len(idPart) {
	case 3:
	case 8:
		f.Extended = true
	default:
		return f, fmt.Errorf("frame %q: identifier must have 3 or 8 hex digits", s)
	}
	id, err := strconv.ParseUint(idPart, 16, 32)
	if err != nil {
		return f, fmt.Errorf("frame %q: identifier: %w", s, err)
	}
	f.ID = uint32(id)

	if rest, isRemote := strings.CutPrefix(strings.ToUpper(dataPart), "R"); isRemote {
		f.RTR = true
		if rest != "" {
			n, err := strconv.ParseUint(rest, 10, 8)
			if err != nil {
				return f, fmt.Errorf("frame %q: remote length: %w", s, err)
			}
			f.Len = uint8(n)
		}
	} else {
		data, err := hex.DecodeString(strings.ReplaceAll(dataPart, ".", ""))
		if err != nil {
			return f, fmt.Errorf("frame %q: data: %w", s, err)
		}
		if len(data) > core.CANMaxDataLen {
			return f, fmt.Errorf("frame %q: %w", s, core.ErrInvalidLen)
		}
		f.Len = uint8(copy(f.Data[:], data))
	}

	if err := f.Validate(); err != nil {
		return f, fmt.Errorf("frame %q: %w", s, err)
	}
	return f, nil
}
