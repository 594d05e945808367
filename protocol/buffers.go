package protocol

// InputBuffer is a window onto received adapter bytes. Consumers parse from
// Data and Pop what they used; unconsumed bytes stay for the next call.
type InputBuffer interface {
	Data() []byte
	Available() int
	Pop(n int)
}

// OutputBuffer accepts encoded adapter bytes.
type OutputBuffer interface {
	// Output appends data and returns the number of bytes accepted. Fewer
	// than len(data) means the buffer is full.
	Output(data []byte) int

	// Free returns the remaining capacity.
	Free() int
}

// SliceInputBuffer implements InputBuffer over a byte slice
type SliceInputBuffer struct {
	data []byte
}

func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{data: data}
}

func (s *SliceInputBuffer) Data() []byte   { return s.data }
func (s *SliceInputBuffer) Available() int { return len(s.data) }

func (s *SliceInputBuffer) Pop(n int) {
	s.data = s.data[min(n, len(s.data)):]
}

// ScratchOutput collects up to MessageMax bytes of output without
// allocating.
type ScratchOutput struct {
	buf [MessageMax]byte
	n   int
}

func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) int {
	n := copy(s.buf[s.n:], data)
	s.n += n
	return n
}

func (s *ScratchOutput) Free() int { return len(s.buf) - s.n }

// Len returns the number of bytes collected.
func (s *ScratchOutput) Len() int { return s.n }

// Result returns the collected bytes; valid until the next Output or Reset.
func (s *ScratchOutput) Result() []byte { return s.buf[:s.n] }

func (s *ScratchOutput) Reset() { s.n = 0 }

// FifoBuffer is a ring buffer between a reader goroutine or interrupt and
// the decoder. Storage is allocated once; Write, Read, Data and Pop never
// allocate.
type FifoBuffer struct {
	buf  []byte
	lin  []byte // linearized copy of wrapped contents for Data
	head int    // index of the oldest byte
	n    int    // bytes stored
}

// NewFifoBuffer creates a FIFO holding up to capacity bytes
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{
		buf: make([]byte, capacity),
		lin: make([]byte, capacity),
	}
}

// Write appends as much of data as fits and returns the count stored.
func (f *FifoBuffer) Write(data []byte) int {
	data = data[:min(len(data), f.Free())]
	tail := (f.head + f.n) % len(f.buf)
	first := copy(f.buf[tail:], data)
	copy(f.buf, data[first:])
	f.n += len(data)
	return len(data)
}

// Read moves up to len(data) bytes out of the FIFO.
func (f *FifoBuffer) Read(data []byte) int {
	n := copy(data, f.Data())
	f.Pop(n)
	return n
}

func (f *FifoBuffer) Available() int { return f.n }
func (f *FifoBuffer) Free() int      { return len(f.buf) - f.n }
func (f *FifoBuffer) IsEmpty() bool  { return f.n == 0 }

// Data returns the stored bytes as one slice. Wrapped contents are copied
// into the linear buffer; the slice is valid until the next Write.
func (f *FifoBuffer) Data() []byte {
	end := f.head + f.n
	if end <= len(f.buf) {
		return f.buf[f.head:end]
	}
	first := copy(f.lin, f.buf[f.head:])
	copy(f.lin[first:], f.buf[:end-len(f.buf)])
	return f.lin[:f.n]
}

// Pop discards up to n bytes from the front.
func (f *FifoBuffer) Pop(n int) {
	n = min(n, f.n)
	f.head = (f.head + n) % len(f.buf)
	f.n -= n
	if f.n == 0 {
		f.head = 0
	}
}

func (f *FifoBuffer) Reset() {
	f.head = 0
	f.n = 0
}
