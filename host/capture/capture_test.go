package capture

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"canhal/core"
)

type collector struct {
	frames []core.CANFrame
}

func (c *collector) HandleCAN(frame core.CANFrame) {
	c.frames = append(c.frames, frame)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRecorderReader(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&buf)

	base := time.Unix(1700000000, 500)
	frames := []core.CANFrame{
		core.MustCANFrame(0x100, []byte{1, 2, 3}),
		core.MustCANFrame(0x18FEF100, nil),
		{ID: 0x7DF, RTR: true},
	}
	for i, f := range frames {
		if err := rec.Record(base.Add(time.Duration(i)*time.Millisecond), f); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if rec.Count() != 3 {
		t.Errorf("Expected 3 records, got %d", rec.Count())
	}

	r := NewReader(&buf)
	for i, want := range frames {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		f, err := got.Frame()
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if !f.Equal(want) {
			t.Errorf("record %d: got %v, want %v", i, f, want)
		}
		if !got.Timestamp().Equal(base.Add(time.Duration(i) * time.Millisecond)) {
			t.Errorf("record %d: timestamp %v", i, got.Timestamp())
		}
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestRecorderDeterministic(t *testing.T) {
	at := time.Unix(0, 42)
	frame := core.MustCANFrame(0x123, []byte{0xAB})

	var a, b bytes.Buffer
	NewRecorder(&a).Record(at, frame)
	NewRecorder(&b).Record(at, frame)
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("identical frames should encode identically")
	}
	// {"t": 42, "id": 291, "data": h'AB'}, keys sorted by encoded length then bytes
	want := []byte{0xA3, 0x61, 't', 0x18, 0x2A, 0x62, 'i', 'd', 0x19, 0x01, 0x23,
		0x64, 'd', 'a', 't', 'a', 0x41, 0xAB}
	if !bytes.Equal(a.Bytes(), want) {
		t.Errorf("encoded % X, want % X", a.Bytes(), want)
	}
}

func TestRecorderAsRouteHandler(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&buf)
	rec.now = func() time.Time { return time.Unix(5, 0) }

	var r core.CANRouter
	r.SetFallback(rec)
	r.Dispatch(core.MustCANFrame(0x55, []byte{9}))
	r.Dispatch(core.MustCANFrame(0x56, nil))

	var replayed collector
	n, err := Replay(&buf, &replayed)
	if err != nil || n != 2 {
		t.Fatalf("Replay: n=%d err=%v", n, err)
	}
	if replayed.frames[0].ID != 0x55 || replayed.frames[1].ID != 0x56 {
		t.Errorf("unexpected replay %v", replayed.frames)
	}
}

func TestRecorderWriteError(t *testing.T) {
	rec := NewRecorder(failingWriter{})
	rec.HandleCAN(core.MustCANFrame(0x1, nil))
	if rec.Err() == nil {
		t.Fatal("write error should be kept")
	}
	if err := rec.Record(time.Now(), core.MustCANFrame(0x2, nil)); err == nil {
		t.Error("recording should stop after an error")
	}
	if rec.Count() != 0 {
		t.Errorf("Expected no records, got %d", rec.Count())
	}
}

func TestRecordFrameRejectsOversizedData(t *testing.T) {
	r := Record{ID: 0x1, Data: make([]byte, 9)}
	if _, err := r.Frame(); !errors.Is(err, core.ErrInvalidLen) {
		t.Errorf("Expected ErrInvalidLen, got %v", err)
	}
}
