package gst

import (
	"testing"

	"github.com/galaxygst/galaxygst/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample returns a snapshot where every comparable field is non-zero.
func sample() core.Snapshot {
	return core.Snapshot{
		Type:         core.GhostTypePichanRacer,
		Position:     core.Vec3i{X: 100, Y: -2, Z: 3},
		Scale:        core.Vec3i{X: 8, Y: 8, Z: 8},
		Rotation:     core.Vec3i{X: 1, Y: 2, Z: -3},
		ActionName:   "Wait",
		BckFrame:     10,
		BckRate:      8,
		TrackWeights: [4]int32{-128, 5, 64, 1},
	}
}

const allSampleFlags = FlagPositionInt | FlagScale | FlagRotationX | FlagRotationY | FlagRotationZ |
	FlagActionName | FlagBckFrame | FlagBckRate | FlagTrackWeights

func TestCompareAndUpdate_FirstPacketV2(t *testing.T) {
	s := sample()
	enc := NewEncoder(ProfileV2, s.Type)

	flags := enc.CompareAndUpdate(&s)
	assert.Equal(t, allSampleFlags, flags)
	assert.Equal(t, Flag(0x17FF), flags)
	assert.Equal(t, flags, enc.Flags())
	assert.Equal(t, s.Position, enc.Last().Position)
}

func TestCompareAndUpdate_FirstPacketPolicy(t *testing.T) {
	zero := core.Snapshot{Type: core.GhostTypePichanRacer}

	v1 := NewEncoder(ProfileV1, zero.Type)
	assert.Equal(t, FlagTrackWeights, v1.CompareAndUpdate(&zero), "v1 forces the weights on the first packet")
	assert.Equal(t, Flag(0), v1.CompareAndUpdate(&zero), "v1 forces only once")

	v2 := NewEncoder(ProfileV2, zero.Type)
	assert.Equal(t, Flag(0), v2.CompareAndUpdate(&zero), "v2 forces nothing")
}

func TestCompareAndUpdate_Idempotent(t *testing.T) {
	for _, p := range []Profile{ProfileV1, ProfileV2} {
		t.Run(p.Name, func(t *testing.T) {
			s := sample()
			enc := NewEncoder(p, s.Type)
			enc.CompareAndUpdate(&s)
			assert.Equal(t, Flag(0), enc.CompareAndUpdate(&s))

			again := sample()
			assert.Equal(t, Flag(0), enc.CompareAndUpdate(&again))
		})
	}
}

func TestCompareAndUpdate_SingleFieldCompleteness(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		base    func(s *core.Snapshot)
		mutate  func(s *core.Snapshot)
		want    Flag
	}{
		{"position", ProfileV2, nil, func(s *core.Snapshot) { s.Position.Y++ }, FlagPositionInt},
		{"scale", ProfileV2, nil, func(s *core.Snapshot) { s.Scale.Z = 4 }, FlagScale},
		{"rotation x", ProfileV2, nil, func(s *core.Snapshot) { s.Rotation.X = 90 }, FlagRotationX},
		{"rotation y", ProfileV2, nil, func(s *core.Snapshot) { s.Rotation.Y = 90 }, FlagRotationY},
		{"rotation z", ProfileV2, nil, func(s *core.Snapshot) { s.Rotation.Z = 90 }, FlagRotationZ},
		{"action name", ProfileV2, nil, func(s *core.Snapshot) { s.ActionName = "Run" }, FlagActionName},
		{
			"action hash", ProfileV2,
			func(s *core.Snapshot) { s.UseActionHash = true; s.ActionHash = 0xDEADBEEF },
			func(s *core.Snapshot) { s.ActionHash = 0xCAFEF00D },
			FlagActionHash,
		},
		{"bck frame", ProfileV2, nil, func(s *core.Snapshot) { s.BckFrame = 11 }, FlagBckFrame},
		{"bck rate", ProfileV2, nil, func(s *core.Snapshot) { s.BckRate = 4 }, FlagBckRate},
		{"weight 0", ProfileV2, nil, func(s *core.Snapshot) { s.TrackWeights[0] = 0 }, FlagTrackWeight0},
		{"weight 1", ProfileV2, nil, func(s *core.Snapshot) { s.TrackWeights[1] = 0 }, FlagTrackWeight1},
		{"weight 2", ProfileV2, nil, func(s *core.Snapshot) { s.TrackWeights[2] = 0 }, FlagTrackWeight2},
		{"weight 3", ProfileV2, nil, func(s *core.Snapshot) { s.TrackWeights[3] = 0 }, FlagTrackWeight3},
		{"velocity is ignored", ProfileV2, nil, func(s *core.Snapshot) { s.Velocity.X = 3 }, 0},
		{
			"name ignored when hashed", ProfileV2,
			func(s *core.Snapshot) { s.UseActionHash = true },
			func(s *core.Snapshot) { s.ActionName = "Run" },
			0,
		},
		{
			"hash ignored when named", ProfileV2, nil,
			func(s *core.Snapshot) { s.ActionHash = 42 },
			0,
		},
		{
			"float position", ProfileV1,
			func(s *core.Snapshot) { s.UsePositionFloat = true },
			func(s *core.Snapshot) { s.PositionFloat.X = 1.5; s.Position.X = 7 },
			FlagPositionFloat,
		},
		{
			"float position unsupported in v2", ProfileV2,
			func(s *core.Snapshot) { s.UsePositionFloat = true },
			func(s *core.Snapshot) { s.PositionFloat.X = 1.5; s.Position.X = 7 },
			FlagPositionInt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sample()
			if tt.base != nil {
				tt.base(&s)
			}
			enc := NewEncoder(tt.profile, s.Type)
			enc.CompareAndUpdate(&s)

			next := s
			tt.mutate(&next)
			assert.Equal(t, tt.want, enc.CompareAndUpdate(&next))
		})
	}
}

func TestCompareAndUpdate_KeepsUnchangedFields(t *testing.T) {
	s := sample()
	enc := NewEncoder(ProfileV2, s.Type)
	enc.CompareAndUpdate(&s)

	next := s
	next.Velocity = core.Vec3i{X: 9, Y: 9, Z: 9}
	next.ActionHash = 77
	enc.CompareAndUpdate(&next)

	last := enc.Last()
	assert.Equal(t, core.Vec3i{}, last.Velocity, "velocity is never adopted")
	assert.Equal(t, uint32(0), last.ActionHash, "inactive action field is never adopted")
}

func TestPack_WireOrderV2(t *testing.T) {
	s := sample()
	enc := NewEncoder(ProfileV2, s.Type)

	p := enc.Encode(&s)
	want := []byte{
		0x00, 0x64, 0xFF, 0xFE, 0x00, 0x03, // position
		0x08, 0x08, 0x08, // scale
		0x01, 0x02, 0xFD, // rotation x, y, z
		'W', 'a', 'i', 't', 0x00, // action name
		0x0A,                   // bck frame
		0x08,                   // bck rate
		0x80, 0x05, 0x40, 0x01, // track weights
	}
	assert.Equal(t, allSampleFlags, p.Flags)
	assert.Equal(t, want, p.Payload)
}

func TestPack_WireOrderV1(t *testing.T) {
	s := sample()
	enc := NewEncoder(ProfileV1, s.Type)

	p := enc.Encode(&s)
	want := []byte{
		0x00, 0x64, 0xFF, 0xFE, 0x00, 0x03,
		0x08, 0x08, 0x08,
		0x01, 0x02, 0xFD,
		'W', 'a', 'i', 't', 0x00,
		0x00, 0x0A, // bck frame as int16
		0x80, 0x05, 0x40, 0x01,
		0x08, // bck rate after the weights
	}
	assert.Equal(t, want, p.Payload)
}

func TestPack_FloatPositionAndHash(t *testing.T) {
	s := core.Snapshot{
		Type:             core.GhostTypeAttackGhost,
		Position:         core.Vec3i{X: 1},
		PositionFloat:    core.Vec3f{X: 1.5, Y: 0, Z: -2},
		ActionHash:       0x01020304,
		UseActionHash:    true,
		UsePositionFloat: true,
	}
	enc := NewEncoder(ProfileV1, s.Type)

	p := enc.Encode(&s)
	assert.Equal(t, FlagPositionFloat|FlagActionHash|FlagTrackWeights, p.Flags)
	want := []byte{
		0x3F, 0xC0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xC0, 0x00, 0x00, 0x00,
		0x01, 0x02, 0x03, 0x04,
		0x00, 0x00, 0x00, 0x00,
	}
	assert.Equal(t, want, p.Payload)
}

func TestPack_LengthMatchesFlaggedWidths(t *testing.T) {
	s := sample()
	enc := NewEncoder(ProfileV2, s.Type)
	enc.CompareAndUpdate(&s)

	next := s
	next.Rotation.Y = -40
	next.BckFrame = 12
	next.TrackWeights[2] = 0
	p := enc.Encode(&next)

	assert.Equal(t, FlagRotationY|FlagBckFrame|FlagTrackWeight2, p.Flags)
	assert.Equal(t, []byte{0xD8, 0x0C, 0x00}, p.Payload)
}

func TestPack_Deterministic(t *testing.T) {
	s := sample()
	enc := NewEncoder(ProfileV2, s.Type)
	enc.CompareAndUpdate(&s)

	first := enc.Pack()
	second := enc.Pack()
	assert.Equal(t, first, second)
}

func TestPack_NarrowsWithWrap(t *testing.T) {
	s := core.Snapshot{Position: core.Vec3i{X: 40000}, BckFrame: 200}
	enc := NewEncoder(ProfileV2, s.Type)
	p := enc.Encode(&s)

	assert.Equal(t, FlagPositionInt|FlagBckFrame, p.Flags)
	assert.Equal(t, []byte{0x9C, 0x40, 0x00, 0x00, 0x00, 0x00, 0xC8}, p.Payload)
}

func TestEncoder_ThreeFrameScenario(t *testing.T) {
	s := sample()
	enc := NewEncoder(ProfileV2, s.Type)

	first := enc.Encode(&s)
	assert.Equal(t, allSampleFlags, first.Flags)

	s.Rotation.X = 64
	second := enc.Encode(&s)
	assert.Equal(t, FlagRotationX, second.Flags)
	assert.Equal(t, []byte{64}, second.Payload)

	s.ActionName = "Jump"
	third := enc.Encode(&s)
	assert.Equal(t, FlagActionName, third.Flags)
	assert.Len(t, third.Payload, len("Jump")+1)
}

func TestDecoder_RebuildsEncoderState(t *testing.T) {
	for _, p := range []Profile{ProfileV1, ProfileV2} {
		t.Run(p.Name, func(t *testing.T) {
			enc := NewEncoder(p, core.GhostTypePichanRacer)
			dec := NewDecoder(p)

			frames := []func(s *core.Snapshot){
				func(s *core.Snapshot) {},
				func(s *core.Snapshot) { s.Rotation.X = -100 },
				func(s *core.Snapshot) { s.ActionName = "Fly"; s.BckFrame = -5 },
				func(s *core.Snapshot) { s.Position = core.Vec3i{X: -300, Y: 20, Z: 1} },
				func(s *core.Snapshot) { s.TrackWeights = [4]int32{1, 2, 3, 4}; s.BckRate = -8 },
			}
			s := sample()
			for i, mutate := range frames {
				mutate(&s)
				require.NoError(t, dec.Apply(enc.Encode(&s)), "frame %d", i)
			}

			got := dec.State()
			want := enc.Last()
			assert.Equal(t, want.Position, got.Position)
			assert.Equal(t, want.Scale, got.Scale)
			assert.Equal(t, want.Rotation, got.Rotation)
			assert.Equal(t, want.ActionName, got.ActionName)
			assert.Equal(t, want.BckFrame, got.BckFrame)
			assert.Equal(t, want.BckRate, got.BckRate)
			assert.Equal(t, want.TrackWeights, got.TrackWeights)
		})
	}
}

func TestDecoder_Velocity(t *testing.T) {
	dec := NewDecoder(ProfileV2)
	err := dec.Apply(Packet{Flags: FlagVelocity | FlagScale, Payload: []byte{0xFF, 0x01, 0x02, 0x08, 0x08, 0x08}})
	require.NoError(t, err)
	assert.Equal(t, core.Vec3i{X: -1, Y: 1, Z: 2}, dec.State().Velocity)
	assert.Equal(t, core.Vec3i{X: 8, Y: 8, Z: 8}, dec.State().Scale)
}

func TestDecoder_Errors(t *testing.T) {
	dec := NewDecoder(ProfileV2)

	err := dec.Apply(Packet{Flags: FlagPositionInt, Payload: []byte{0x00, 0x01}})
	assert.ErrorIs(t, err, ErrShortPayload)

	err = dec.Apply(Packet{Flags: FlagActionName, Payload: []byte("noterminator")})
	assert.ErrorIs(t, err, ErrShortPayload)

	err = dec.Apply(Packet{Flags: FlagRotationX, Payload: []byte{0x01, 0x02}})
	assert.ErrorContains(t, err, "trailing bytes")
}
