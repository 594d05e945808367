// Package protocol implements the byte buffers and the SLCAN (Lawicel ASCII)
// framing spoken between hosts and serial CAN adapters.
package protocol

// Version of the canhal wire layer.
const Version = "0.1.0"

// Buffer and line limits
const (
	MessageMax = 512 // Scratch output size, fits a burst of encoded frames

	// Longest SLCAN frame line: kind, 8 id digits, length, 16 data digits,
	// 4 timestamp digits and the carriage return.
	SLCANMaxLine = 1 + 8 + 1 + 16 + 4 + 1
)

// SLCAN line terminators and replies
const (
	slcanCR   = '\r'
	slcanBell = '\a' // adapter error reply
)
