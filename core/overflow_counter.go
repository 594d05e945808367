package core

// OverflowCounter extends a free-running counter of up to 32 bits to 64 bits
// by counting how often it wraps. The zero value extends a 32-bit counter.
type OverflowCounter struct {
	bits      uint8
	previous  uint32
	overflows uint32
}

// NewOverflowCounter returns a counter for a bits-wide source. bits must be
// in 2..32.
func NewOverflowCounter(bits uint8) OverflowCounter {
	if bits < 2 || bits > 32 {
		panic("core: overflow counter width must be 2..32 bits")
	}
	return OverflowCounter{bits: bits}
}

func (c *OverflowCounter) width() uint8 {
	if c.bits == 0 {
		return 32
	}
	return c.bits
}

// Update records a new count and returns the combined 64-bit count. count
// must only decrease when the source wrapped. Bits above the width are
// ignored.
func (c *OverflowCounter) Update(count uint32) uint64 {
	w := c.width()
	count &= uint32((uint64(1) << w) - 1)
	if c.previous > count {
		c.overflows++
	}
	c.previous = count
	return uint64(c.overflows)<<w | uint64(count)
}

// Reset clears the overflow count.
func (c *OverflowCounter) Reset() {
	c.previous = 0
	c.overflows = 0
}
