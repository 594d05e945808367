package main

import (
	"errors"
	"testing"

	"canhal/core"
)

func TestParseFrame(t *testing.T) {
	cases := []struct {
		in   string
		want core.CANFrame
	}{
		{"123#DEADBEEF", core.MustCANFrame(0x123, []byte{0xDE, 0xAD, 0xBE, 0xEF})},
		{"7DF#", core.CANFrame{ID: 0x7DF}},
		{"18FEF100#01.02", core.MustCANFrame(0x18FEF100, []byte{1, 2})},
		{"00000010#", core.CANFrame{ID: 0x10, Extended: true}},
		{"100#R", core.CANFrame{ID: 0x100, RTR: true}},
		{"100#r4", core.CANFrame{ID: 0x100, RTR: true, Len: 4}},
	}
	for _, tc := range cases {
		got, err := parseFrame(tc.in)
		if err != nil {
			t.Errorf("parseFrame(%q) error = %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("parseFrame(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseFrameErrors(t *testing.T) {
	for _, in := range []string{"123", "12#00", "XYZ#00", "123#0", "123#R9", "800#00", "123#000102030405060708"} {
		if _, err := parseFrame(in); err == nil {
			t.Errorf("parseFrame(%q): expected error", in)
		}
	}
	if _, err := parseFrame("123#000102030405060708"); !errors.Is(err, core.ErrInvalidLen) {
		t.Errorf("Expected ErrInvalidLen, got %v", err)
	}
}
