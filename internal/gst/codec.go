// Package gst implements the GST ghost trace format: delta encoding of ghost
// snapshots into bit-flagged packets, packet framing, and reading traces back.
package gst

import (
	"encoding/binary"
	"math"

	"github.com/galaxygst/galaxygst/pkg/core"
)

// Packet is one encoded frame payload and the mask describing its fields.
type Packet struct {
	Flags   Flag
	Payload []byte
}

// field describes one flagged value. The same table drives comparison,
// packing and decoding so the three cannot disagree about a field.
type field struct {
	flag Flag
	// active reports whether the field takes part for this snapshot and profile.
	active  func(s *core.Snapshot, p *Profile) bool
	differs func(last, in *core.Snapshot) bool
	adopt   func(last, in *core.Snapshot)
	put     func(buf []byte, s *core.Snapshot, p *Profile) []byte
	get     func(r *payloadReader, s *core.Snapshot, p *Profile)
}

func always(*core.Snapshot, *Profile) bool { return true }

func usesFloatPosition(s *core.Snapshot, p *Profile) bool {
	return p.FloatPosition && s.UsePositionFloat
}

var (
	fieldPositionFloat = field{
		flag:    FlagPositionFloat,
		active:  usesFloatPosition,
		differs: func(last, in *core.Snapshot) bool { return !last.PositionFloat.Equal(in.PositionFloat) },
		adopt:   func(last, in *core.Snapshot) { last.PositionFloat = in.PositionFloat },
		put: func(buf []byte, s *core.Snapshot, _ *Profile) []byte {
			buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(s.PositionFloat.X))
			buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(s.PositionFloat.Y))
			return binary.BigEndian.AppendUint32(buf, math.Float32bits(s.PositionFloat.Z))
		},
		get: func(r *payloadReader, s *core.Snapshot, _ *Profile) {
			s.PositionFloat = core.Vec3f{X: r.f32(), Y: r.f32(), Z: r.f32()}
		},
	}
	fieldPositionInt = field{
		flag:    FlagPositionInt,
		active:  func(s *core.Snapshot, p *Profile) bool { return !usesFloatPosition(s, p) },
		differs: func(last, in *core.Snapshot) bool { return !last.Position.Equal(in.Position) },
		adopt:   func(last, in *core.Snapshot) { last.Position = in.Position },
		put: func(buf []byte, s *core.Snapshot, _ *Profile) []byte {
			buf = appendS16(buf, s.Position.X)
			buf = appendS16(buf, s.Position.Y)
			return appendS16(buf, s.Position.Z)
		},
		get: func(r *payloadReader, s *core.Snapshot, _ *Profile) {
			s.Position = core.Vec3i{X: r.s16(), Y: r.s16(), Z: r.s16()}
		},
	}
	// Velocity is packed when flagged but never compared; no known ghost moves it.
	fieldVelocity = field{
		flag: FlagVelocity,
		put: func(buf []byte, s *core.Snapshot, _ *Profile) []byte {
			return append(buf, byte(int8(s.Velocity.X)), byte(int8(s.Velocity.Y)), byte(int8(s.Velocity.Z)))
		},
		get: func(r *payloadReader, s *core.Snapshot, _ *Profile) {
			s.Velocity = core.Vec3i{X: r.s8(), Y: r.s8(), Z: r.s8()}
		},
	}
	fieldScale = field{
		flag:    FlagScale,
		active:  always,
		differs: func(last, in *core.Snapshot) bool { return !last.Scale.Equal(in.Scale) },
		adopt:   func(last, in *core.Snapshot) { last.Scale = in.Scale },
		put: func(buf []byte, s *core.Snapshot, _ *Profile) []byte {
			return append(buf, byte(int8(s.Scale.X)), byte(int8(s.Scale.Y)), byte(int8(s.Scale.Z)))
		},
		get: func(r *payloadReader, s *core.Snapshot, _ *Profile) {
			s.Scale = core.Vec3i{X: r.s8(), Y: r.s8(), Z: r.s8()}
		},
	}
	fieldRotationX = int8Field(FlagRotationX, func(s *core.Snapshot) *int32 { return &s.Rotation.X })
	fieldRotationY = int8Field(FlagRotationY, func(s *core.Snapshot) *int32 { return &s.Rotation.Y })
	fieldRotationZ = int8Field(FlagRotationZ, func(s *core.Snapshot) *int32 { return &s.Rotation.Z })

	fieldActionName = field{
		flag:    FlagActionName,
		active:  func(s *core.Snapshot, _ *Profile) bool { return !s.UseActionHash },
		differs: func(last, in *core.Snapshot) bool { return last.ActionName != in.ActionName },
		adopt:   func(last, in *core.Snapshot) { last.ActionName = in.ActionName },
		put: func(buf []byte, s *core.Snapshot, _ *Profile) []byte {
			buf = append(buf, s.ActionName...)
			return append(buf, 0)
		},
		get: func(r *payloadReader, s *core.Snapshot, _ *Profile) {
			s.ActionName = r.cstring()
		},
	}
	fieldActionHash = field{
		flag:    FlagActionHash,
		active:  func(s *core.Snapshot, _ *Profile) bool { return s.UseActionHash },
		differs: func(last, in *core.Snapshot) bool { return last.ActionHash != in.ActionHash },
		adopt:   func(last, in *core.Snapshot) { last.ActionHash = in.ActionHash },
		put: func(buf []byte, s *core.Snapshot, _ *Profile) []byte {
			return binary.BigEndian.AppendUint32(buf, s.ActionHash)
		},
		get: func(r *payloadReader, s *core.Snapshot, _ *Profile) {
			s.ActionHash = r.u32()
		},
	}
	fieldBckFrame = field{
		flag:    FlagBckFrame,
		active:  always,
		differs: func(last, in *core.Snapshot) bool { return last.BckFrame != in.BckFrame },
		adopt:   func(last, in *core.Snapshot) { last.BckFrame = in.BckFrame },
		put: func(buf []byte, s *core.Snapshot, p *Profile) []byte {
			if p.BckFrameWidth == 2 {
				return appendS16(buf, s.BckFrame)
			}
			return append(buf, byte(int8(s.BckFrame)))
		},
		get: func(r *payloadReader, s *core.Snapshot, p *Profile) {
			if p.BckFrameWidth == 2 {
				s.BckFrame = r.s16()
				return
			}
			s.BckFrame = r.s8()
		},
	}
	fieldBckRate = int8Field(FlagBckRate, func(s *core.Snapshot) *int32 { return &s.BckRate })

	fieldTrackWeights = [4]field{
		int8Field(FlagTrackWeight0, func(s *core.Snapshot) *int32 { return &s.TrackWeights[0] }),
		int8Field(FlagTrackWeight1, func(s *core.Snapshot) *int32 { return &s.TrackWeights[1] }),
		int8Field(FlagTrackWeight2, func(s *core.Snapshot) *int32 { return &s.TrackWeights[2] }),
		int8Field(FlagTrackWeight3, func(s *core.Snapshot) *int32 { return &s.TrackWeights[3] }),
	}
)

// compareOrder is the order in which fields are compared. Velocity is absent
// on purpose; it is treated as never changing.
var compareOrder = []field{
	fieldPositionInt,
	fieldPositionFloat,
	fieldScale,
	fieldRotationX,
	fieldRotationY,
	fieldRotationZ,
	fieldActionName,
	fieldActionHash,
	fieldBckFrame,
	fieldBckRate,
	fieldTrackWeights[0],
	fieldTrackWeights[1],
	fieldTrackWeights[2],
	fieldTrackWeights[3],
}

// wireOrder returns the serialization order for p. It is independent of
// compareOrder and only the BCK rate position varies between profiles.
func wireOrder(p *Profile) []field {
	order := []field{
		fieldPositionFloat,
		fieldPositionInt,
		fieldVelocity,
		fieldScale,
		fieldRotationX,
		fieldRotationY,
		fieldRotationZ,
		fieldActionName,
		fieldActionHash,
		fieldBckFrame,
	}
	if p.RatePosition == RateBeforeWeights {
		order = append(order, fieldBckRate)
	}
	order = append(order, fieldTrackWeights[:]...)
	if p.RatePosition == RateAfterWeights {
		order = append(order, fieldBckRate)
	}
	return order
}

func int8Field(flag Flag, ref func(s *core.Snapshot) *int32) field {
	return field{
		flag:    flag,
		active:  always,
		differs: func(last, in *core.Snapshot) bool { return *ref(last) != *ref(in) },
		adopt:   func(last, in *core.Snapshot) { *ref(last) = *ref(in) },
		put: func(buf []byte, s *core.Snapshot, _ *Profile) []byte {
			return append(buf, byte(int8(*ref(s))))
		},
		get: func(r *payloadReader, s *core.Snapshot, _ *Profile) {
			*ref(s) = r.s8()
		},
	}
}

func appendS16(buf []byte, v int32) []byte {
	return binary.BigEndian.AppendUint16(buf, uint16(int16(v)))
}

// Encoder holds the last transmitted snapshot of one session and turns new
// snapshots into delta packets. It is not safe for concurrent use.
type Encoder struct {
	profile Profile
	order   []field
	last    core.Snapshot
	flags   Flag
	started bool
}

// NewEncoder returns an encoder whose retained snapshot is zero valued.
func NewEncoder(profile Profile, ghostType core.GhostType) *Encoder {
	return &Encoder{
		profile: profile,
		order:   wireOrder(&profile),
		last:    core.Snapshot{Type: ghostType},
	}
}

// Last returns a copy of the retained snapshot.
func (e *Encoder) Last() core.Snapshot {
	return e.last
}

// Flags returns the mask computed by the most recent CompareAndUpdate.
func (e *Encoder) Flags() Flag {
	return e.flags
}

// CompareAndUpdate flags every field of in that differs from the retained
// snapshot and copies those fields into it. The returned mask is also kept
// for the next Pack.
func (e *Encoder) CompareAndUpdate(in *core.Snapshot) Flag {
	p := &e.profile
	var mask Flag

	e.last.UseActionHash = in.UseActionHash
	e.last.UsePositionFloat = in.UsePositionFloat

	for i := range compareOrder {
		f := &compareOrder[i]
		if !f.active(in, p) {
			continue
		}
		if f.differs(&e.last, in) {
			mask |= f.flag
			f.adopt(&e.last, in)
		}
	}

	if !e.started {
		e.started = true
		if p.FirstPacket == FirstPacketTrackWeights {
			mask |= FlagTrackWeights
		}
	}

	e.flags = mask
	return mask
}

// Pack serializes the retained fields selected by the current mask in wire order.
func (e *Encoder) Pack() Packet {
	mask := e.flags
	payload := make([]byte, 0, 32)
	for i := range e.order {
		f := &e.order[i]
		if mask&f.flag == 0 {
			continue
		}
		if f.flag == FlagPositionInt && mask&FlagPositionFloat != 0 {
			continue
		}
		payload = f.put(payload, &e.last, &e.profile)
	}
	return Packet{Flags: mask, Payload: payload}
}

// Encode runs CompareAndUpdate followed by Pack.
func (e *Encoder) Encode(in *core.Snapshot) Packet {
	e.CompareAndUpdate(in)
	return e.Pack()
}
