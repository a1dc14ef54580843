package gst

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/galaxygst/galaxygst/pkg/core"
)

// ErrShortPayload is returned when a payload ends before all flagged fields are read.
var ErrShortPayload = errors.New("payload too short for flagged fields")

// payloadReader reads big-endian values and remembers the first underflow.
type payloadReader struct {
	buf []byte
	off int
	err error
}

func (r *payloadReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.err = ErrShortPayload
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *payloadReader) s8() int32 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return int32(int8(b[0]))
}

func (r *payloadReader) s16() int32 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return int32(int16(binary.BigEndian.Uint16(b)))
}

func (r *payloadReader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *payloadReader) f32() float32 {
	return math.Float32frombits(r.u32())
}

func (r *payloadReader) cstring() string {
	if r.err != nil {
		return ""
	}
	for i := r.off; i < len(r.buf); i++ {
		if r.buf[i] == 0 {
			s := string(r.buf[r.off:i])
			r.off = i + 1
			return s
		}
	}
	r.err = ErrShortPayload
	return ""
}

// Decoder rebuilds ghost state from a sequence of packets, the way a trace
// reader does: fields absent from a packet keep their previous value.
type Decoder struct {
	profile Profile
	order   []field
	state   core.Snapshot
}

// NewDecoder returns a decoder starting from zero-valued state.
func NewDecoder(profile Profile) *Decoder {
	return &Decoder{profile: profile, order: wireOrder(&profile)}
}

// State returns a copy of the current decoded state.
func (d *Decoder) State() core.Snapshot {
	return d.state
}

// Apply reads the flagged fields of p into the decoded state.
func (d *Decoder) Apply(p Packet) error {
	r := &payloadReader{buf: p.Payload}
	for i := range d.order {
		f := &d.order[i]
		if p.Flags&f.flag == 0 {
			continue
		}
		if f.flag == FlagPositionInt && p.Flags&FlagPositionFloat != 0 {
			continue
		}
		f.get(r, &d.state, &d.profile)
	}
	if r.err != nil {
		return fmt.Errorf("decoding %s: %w", p.Flags, r.err)
	}
	if r.off != len(p.Payload) {
		return fmt.Errorf("decoding %s: %d trailing bytes", p.Flags, len(p.Payload)-r.off)
	}
	return nil
}
