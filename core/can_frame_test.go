package core

import "testing"

func TestCANFrameValidateMarshalString(t *testing.T) {
	cases := []struct {
		name    string
		frame   CANFrame
		wantStr string
	}{
		{
			name:    "standard frame with data",
			frame:   MustCANFrame(0x123, []byte{0xDE, 0xAD}),
			wantStr: "123 [2] DE AD",
		},
		{
			name:    "extended RTR, zero length",
			frame:   CANFrame{ID: 0x1ABCDEFF, Extended: true, RTR: true},
			wantStr: "1ABCDEFF [0] RTR",
		},
		{
			name:    "full payload",
			frame:   MustCANFrame(0x7FF, []byte{0, 1, 2, 3, 4, 5, 6, 7}),
			wantStr: "7FF [8] 00 01 02 03 04 05 06 07",
		},
	}

	for _, tc := range cases {
		if err := tc.frame.Validate(); err != nil {
			t.Fatalf("%s: Validate() error = %v", tc.name, err)
		}
		b, err := tc.frame.MarshalBinary()
		if err != nil {
			t.Fatalf("%s: MarshalBinary() error = %v", tc.name, err)
		}
		if len(b) != CANFrameSize {
			t.Fatalf("%s: expected %d bytes, got %d", tc.name, CANFrameSize, len(b))
		}
		var g CANFrame
		if err := g.UnmarshalBinary(b); err != nil {
			t.Fatalf("%s: UnmarshalBinary() error = %v", tc.name, err)
		}
		if g != tc.frame {
			t.Fatalf("%s: roundtrip mismatch: got %+v want %+v", tc.name, g, tc.frame)
		}
		if got := g.String(); got != tc.wantStr {
			t.Errorf("%s: String() = %q, want %q", tc.name, got, tc.wantStr)
		}
	}
}

func TestCANFrameInvalid(t *testing.T) {
	if err := (CANFrame{ID: 0x800}).Validate(); err != ErrInvalidID {
		t.Errorf("expected ErrInvalidID for standard 0x800, got %v", err)
	}
	if err := (CANFrame{ID: 0x20000000, Extended: true}).Validate(); err != ErrInvalidID {
		t.Errorf("expected ErrInvalidID for extended 0x20000000, got %v", err)
	}
	if err := (CANFrame{ID: 1, Len: 9}).Validate(); err != ErrInvalidLen {
		t.Errorf("expected ErrInvalidLen, got %v", err)
	}
	if _, err := NewCANFrame(0x1, make([]byte, 9)); err != ErrInvalidLen {
		t.Errorf("NewCANFrame with 9 bytes: expected ErrInvalidLen, got %v", err)
	}
	var f CANFrame
	if err := f.UnmarshalBinary(make([]byte, 8)); err != ErrShortFrame {
		t.Errorf("expected ErrShortFrame, got %v", err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("MustCANFrame should panic for len>8")
		}
	}()
	_ = MustCANFrame(0x123, make([]byte, 9))
}

func TestCANFrameExtendedSelection(t *testing.T) {
	f := MustCANFrame(0x800, nil)
	if !f.Extended {
		t.Error("IDs above 0x7FF should select the extended format")
	}
	f = MustCANFrame(0x7FF, nil)
	if f.Extended {
		t.Error("0x7FF fits a standard identifier")
	}
}

func TestCANFrameEqualIgnoresUnusedBytes(t *testing.T) {
	a := MustCANFrame(0x10, []byte{1, 2})
	b := a
	b.Data[5] = 0xFF
	if !a.Equal(b) {
		t.Error("bytes past Len must not affect equality")
	}
	b.Data[1] = 3
	if a.Equal(b) {
		t.Error("payload difference must break equality")
	}
	if a.Equal(MustCANFrame(0x11, []byte{1, 2})) {
		t.Error("identifier difference must break equality")
	}
}

func TestCANDriverRegistry(t *testing.T) {
	SetCANDriver(nil)
	if _, err := GetCAN(); err != ErrNoCANDriver {
		t.Errorf("expected ErrNoCANDriver, got %v", err)
	}

	m := &mockCANDriver{}
	SetCANDriver(m)
	defer SetCANDriver(nil)
	if MustCAN() != m {
		t.Error("MustCAN should return the registered driver")
	}
	if err := MustCAN().Configure(DefaultCANSettings); err != nil || m.settings.BaudRate != 500000 {
		t.Errorf("Configure should reach the driver, got %+v err=%v", m.settings, err)
	}
}
