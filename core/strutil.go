package core

// utoa converts an unsigned integer to a string without using fmt package
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

const hexDigits = "0123456789ABCDEF"

// putHex writes the low digits*4 bits of v as upper-case hex into buf and
// returns the number of bytes written.
func putHex(buf []byte, v uint32, digits int) int {
	for i := digits - 1; i >= 0; i-- {
		buf[i] = hexDigits[v&0xF]
		v >>= 4
	}
	return digits
}

// htoa formats v as 0x-prefixed upper-case hex with the given digit count.
func htoa(v uint32, digits int) string {
	var buf [10]byte
	buf[0] = '0'
	buf[1] = 'x'
	n := putHex(buf[2:], v, digits)
	return string(buf[:2+n])
}

// idtoa formats a CAN identifier: three hex digits for standard IDs, eight
// for extended ones.
func idtoa(id uint32) string {
	if id > CANMaxStandardID {
		return htoa(id, 8)
	}
	return htoa(id, 3)
}
