package socketcan

import (
	"errors"
	"testing"

	"canhal/core"
)

func TestDecodeFrame(t *testing.T) {
	want := core.MustCANFrame(0x18DAF110, []byte{0x03, 0x22, 0xF1, 0x90})
	raw, err := want.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	got, ok, err := decodeFrame(raw)
	if err != nil || !ok {
		t.Fatalf("decodeFrame: ok=%v err=%v", ok, err)
	}
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDecodeErrorFrame(t *testing.T) {
	raw := make([]byte, core.CANFrameSize)
	raw[3] = 0x20 // CAN_ERR_FLAG
	raw[4] = 8

	if _, ok, err := decodeFrame(raw); ok || err != nil {
		t.Errorf("error frame should be skipped silently, ok=%v err=%v", ok, err)
	}
	if _, _, err := decodeFrame(raw[:8]); !errors.Is(err, core.ErrShortFrame) {
		t.Errorf("Expected ErrShortFrame, got %v", err)
	}
}
