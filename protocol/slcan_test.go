package protocol

import (
	"errors"
	"testing"

	"canhal/core"
)

func TestEncodeSLCAN(t *testing.T) {
	cases := []struct {
		name  string
		frame core.CANFrame
		want  string
	}{
		{"standard", core.MustCANFrame(0x123, []byte{0xDE, 0xAD}), "t1232DEAD\r"},
		{"standard empty", core.MustCANFrame(0x7FF, nil), "t7FF0\r"},
		{"extended", core.MustCANFrame(0x18FEF100, []byte{1, 2, 3}), "T18FEF1003010203\r"},
		{"standard rtr", core.CANFrame{ID: 0x100, RTR: true, Len: 2}, "r1002\r"},
		{"extended rtr", core.CANFrame{ID: 0x1ABCDEFF, Extended: true, RTR: true}, "R1ABCDEFF0\r"},
	}

	for _, tc := range cases {
		out := NewScratchOutput()
		if err := EncodeSLCAN(out, tc.frame); err != nil {
			t.Fatalf("%s: EncodeSLCAN() error = %v", tc.name, err)
		}
		if got := string(out.Result()); got != tc.want {
			t.Errorf("%s: encoded %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestEncodeSLCANRejects(t *testing.T) {
	out := NewScratchOutput()
	if err := EncodeSLCAN(out, core.CANFrame{ID: 0x800}); !errors.Is(err, core.ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID, got %v", err)
	}
	if out.Len() != 0 {
		t.Error("invalid frame must not write output")
	}

	out.Output(make([]byte, MessageMax-4))
	if err := EncodeSLCAN(out, core.MustCANFrame(0x1, []byte{1})); !errors.Is(err, ErrOutputFull) {
		t.Errorf("Expected ErrOutputFull, got %v", err)
	}
}

func TestParseSLCANRoundTrip(t *testing.T) {
	frames := []core.CANFrame{
		core.MustCANFrame(0x000, nil),
		core.MustCANFrame(0x7E8, []byte{0x02, 0x01, 0x0C, 0, 0, 0, 0, 0}),
		core.MustCANFrame(0x1FFFFFFF, []byte{0xFF}),
		{ID: 0x555, RTR: true, Len: 8},
	}
	for _, f := range frames {
		line, err := AppendSLCAN(nil, f)
		if err != nil {
			t.Fatalf("AppendSLCAN(%v) error = %v", f, err)
		}
		got, err := ParseSLCAN(line[:len(line)-1])
		if err != nil {
			t.Fatalf("ParseSLCAN(%q) error = %v", line, err)
		}
		if !got.Equal(f) {
			t.Errorf("round trip of %v gave %v", f, got)
		}
	}
}

func TestParseSLCANTimestampAndCase(t *testing.T) {
	f, err := ParseSLCAN([]byte("t12320a0b1F2C"))
	if err != nil {
		t.Fatalf("ParseSLCAN error = %v", err)
	}
	if f.ID != 0x123 || f.Len != 2 || f.Data[0] != 0x0A || f.Data[1] != 0x0B {
		t.Errorf("unexpected frame %v", f)
	}
}

func TestParseSLCANMalformed(t *testing.T) {
	lines := []string{
		"",
		"x1230",
		"t12",
		"t1239",
		"t1232DE",
		"t1232DEAG",
		"t1232DEAD12",
		"t8000",
		"T200000000",
		"tG230",
	}
	for _, line := range lines {
		if _, err := ParseSLCAN([]byte(line)); !errors.Is(err, ErrSLCANFrame) {
			t.Errorf("ParseSLCAN(%q): expected ErrSLCANFrame, got %v", line, err)
		}
	}
}

func TestSLCANDecoderStream(t *testing.T) {
	stream := "\r\at1001AA\rz\rV1013\rtZZZ0\rT000002000\r"
	in := NewSliceInputBuffer([]byte(stream))
	var d SLCANDecoder

	f, ok := d.Decode(in)
	if !ok || f.ID != 0x100 || f.Data[0] != 0xAA {
		t.Fatalf("first frame: ok=%v frame=%v", ok, f)
	}
	f, ok = d.Decode(in)
	if !ok || f.ID != 0x200 || !f.Extended {
		t.Fatalf("second frame: ok=%v frame=%v", ok, f)
	}
	if _, ok := d.Decode(in); ok {
		t.Error("stream should be exhausted")
	}

	want := SLCANStats{Frames: 2, Malformed: 1, Acks: 2, Bells: 1, Other: 1}
	if got := d.Stats(); got != want {
		t.Errorf("stats = %+v, want %+v", got, want)
	}
}

func TestSLCANDecoderPartialLine(t *testing.T) {
	fifo := NewFifoBuffer(64)
	var d SLCANDecoder

	fifo.Write([]byte("t7E82"))
	if _, ok := d.Decode(fifo); ok {
		t.Fatal("partial line must not decode")
	}
	if fifo.Available() != 5 {
		t.Errorf("partial line should stay buffered, have %d bytes", fifo.Available())
	}

	fifo.Write([]byte("0102\r"))
	f, ok := d.Decode(fifo)
	if !ok || f.ID != 0x7E8 || f.Len != 2 || f.Data[1] != 0x02 {
		t.Fatalf("completed line: ok=%v frame=%v", ok, f)
	}
	if !fifo.IsEmpty() {
		t.Error("decoded line should be consumed")
	}
}

func TestSLCANDecoderResync(t *testing.T) {
	fifo := NewFifoBuffer(64)
	var d SLCANDecoder

	garbage := make([]byte, SLCANMaxLine)
	for i := range garbage {
		garbage[i] = 'x'
	}
	fifo.Write(garbage)
	if _, ok := d.Decode(fifo); ok {
		t.Fatal("garbage must not decode")
	}
	if !fifo.IsEmpty() || d.Stats().Malformed != 1 {
		t.Errorf("unterminated run should be dropped, have %d bytes, %d malformed",
			fifo.Available(), d.Stats().Malformed)
	}

	fifo.Write([]byte("t0011F\r"))
	if f, ok := d.Decode(fifo); !ok || f.ID != 0x001 || f.Data[0] != 0x1F {
		t.Errorf("decoder did not resynchronize: ok=%v frame=%v", ok, f)
	}
}

func TestSLCANBitrate(t *testing.T) {
	cmd, err := SLCANBitrate(500000)
	if err != nil || cmd != "S6\r" {
		t.Errorf("500k: got %q err=%v", cmd, err)
	}
	cmd, err = SLCANBitrate(10000)
	if err != nil || cmd != "S0\r" {
		t.Errorf("10k: got %q err=%v", cmd, err)
	}
	if _, err := SLCANBitrate(33333); !errors.Is(err, ErrSLCANBitrate) {
		t.Errorf("Expected ErrSLCANBitrate, got %v", err)
	}
}

func TestSLCANTimestamps(t *testing.T) {
	if got := SLCANTimestamps(true); got != "Z1\r" {
		t.Errorf("on: got %q", got)
	}
	if got := SLCANTimestamps(false); got != "Z0\r" {
		t.Errorf("off: got %q", got)
	}
}
