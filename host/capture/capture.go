// Package capture records received CAN frames as a CBOR sequence and reads
// them back.
//
// Each record is one CBOR map encoded with Core Deterministic Encoding
// (RFC 8949 §4.2), so the same frames always produce identical bytes:
//
//	{"t": <unix nanoseconds>, "id": <identifier>, "ext": true, "rtr": true, "data": h'...'}
//
// "ext" and "rtr" are omitted when false.
package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"canhal/core"
)

// Record is one captured frame.
type Record struct {
	Time int64  `cbor:"t"`
	ID   uint32 `cbor:"id"`
	Ext  bool   `cbor:"ext,omitempty"`
	RTR  bool   `cbor:"rtr,omitempty"`
	Data []byte `cbor:"data"`
}

// NewRecord captures frame at t.
func NewRecord(t time.Time, frame core.CANFrame) Record {
	return Record{
		Time: t.UnixNano(),
		ID:   frame.ID,
		Ext:  frame.Extended,
		RTR:  frame.RTR,
		Data: append([]byte(nil), frame.Payload()...),
	}
}

// Frame converts the record back to a validated frame.
func (r Record) Frame() (core.CANFrame, error) {
	if len(r.Data) > core.CANMaxDataLen {
		return core.CANFrame{}, core.ErrInvalidLen
	}
	f := core.CANFrame{ID: r.ID, Extended: r.Ext, RTR: r.RTR, Len: uint8(len(r.Data))}
	copy(f.Data[:], r.Data)
	return f, f.Validate()
}

// Timestamp returns the capture time.
func (r Record) Timestamp() time.Time {
	return time.Unix(0, r.Time)
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("capture: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		// a record is a handful of small fields
		MaxMapPairs: 16,
	}.DecMode()
	if err != nil {
		panic("capture: CBOR decoder initialization failed: " + err.Error())
	}
}

// Recorder appends frames to w. It implements core.CANHandler so it can be
// installed as a route handler or router fallback. Write errors stop
// recording; Err reports the first one.
type Recorder struct {
	mu    sync.Mutex
	enc   *cbor.Encoder
	now   func() time.Time
	count uint64
	err   error
}

// NewRecorder returns a Recorder writing to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{enc: encMode.NewEncoder(w), now: time.Now}
}

// Record writes one frame captured at t.
func (r *Recorder) Record(t time.Time, frame core.CANFrame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if err := r.enc.Encode(NewRecord(t, frame)); err != nil {
		r.err = fmt.Errorf("capture: record %v: %w", frame, err)
		return r.err
	}
	r.count++
	return nil
}

// HandleCAN records frame at the current time.
func (r *Recorder) HandleCAN(frame core.CANFrame) {
	_ = r.Record(r.now(), frame)
}

// Count returns the number of frames written.
func (r *Recorder) Count() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Err returns the first write error.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Reader decodes records written by a Recorder.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: decMode.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at the end of the capture.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return rec, io.EOF
		}
		return rec, fmt.Errorf("capture: decode: %w", err)
	}
	return rec, nil
}

// Replay sends every captured frame to handler in order and returns the
// number replayed.
func Replay(r io.Reader, handler core.CANHandler) (int, error) {
	reader := NewReader(r)
	n := 0
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		frame, err := rec.Frame()
		if err != nil {
			return n, fmt.Errorf("capture: record %d: %w", n, err)
		}
		handler.HandleCAN(frame)
		n++
	}
}
