package recorderinfo

import (
	"testing"

	"github.com/galaxygst/galaxygst/internal/gst"
	"github.com/galaxygst/galaxygst/internal/remote"
	"github.com/galaxygst/galaxygst/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = 0x80500000

func newFixture(t *testing.T) (*remote.Image, *Fake) {
	t.Helper()
	img := remote.NewImage()
	require.NoError(t, img.Attach())
	return img, NewFake(img, DefaultPointerAddress, testBase, "SB4E")
}

var sampleGhost = RawGhost{
	Position:     core.Vec3f{X: 400.9, Y: -8, Z: 12},
	Rotation:     core.Vec3f{X: 270, Y: 0.5, Z: -1},
	Scale:        core.Vec3f{X: 1, Y: 1, Z: 1},
	Velocity:     core.Vec3f{X: 3.7, Y: 0, Z: -2},
	ActionName:   "Wait",
	ActionHash:   0xDEADBEEF,
	BckFrame:     2.5,
	TrackWeights: [4]float32{1, 0.5, 0.25, 0},
	BckRate:      1,
}

func TestGameID(t *testing.T) {
	img, _ := newFixture(t)
	id, err := ReadGameID(img)
	require.NoError(t, err)
	assert.Equal(t, "SB4E", id)
	assert.True(t, ValidGameID(id))

	img.PutBytes(GameIDAddress, []byte(NoGame))
	id, err = ReadGameID(img)
	require.NoError(t, err)
	assert.Equal(t, NoGame, id)
	assert.False(t, ValidGameID(id))
	assert.False(t, ValidGameID("RMGE"))
}

func TestLocate(t *testing.T) {
	img, _ := newFixture(t)
	info, err := Locate(img, DefaultPointerAddress)
	require.NoError(t, err)
	assert.Equal(t, uint32(testBase), info.Address())

	img.PutU32(DefaultPointerAddress, 0)
	_, err = Locate(img, DefaultPointerAddress)
	assert.ErrorIs(t, err, remote.ErrNullPointer)

	_, err = Locate(img, 0)
	assert.ErrorIs(t, err, remote.ErrNullPointer)
}

func TestInfo_Header(t *testing.T) {
	img, fake := newFixture(t)
	fake.SetFrame(1234)
	fake.SetMode(core.RecorderModePreparing)
	fake.SetSession("RedBlueExGalaxy", 3, int32(core.GhostTypePichanRacer))

	info, err := Locate(img, DefaultPointerAddress)
	require.NoError(t, err)

	frame, err := info.UpdateFrame()
	require.NoError(t, err)
	assert.Equal(t, uint32(1234), frame)

	mode, err := info.Mode()
	require.NoError(t, err)
	assert.Equal(t, core.RecorderModePreparing, mode)

	stage, err := info.StageName()
	require.NoError(t, err)
	assert.Equal(t, "RedBlueExGalaxy", stage)

	idx, err := info.DataIndex()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), idx)

	typ, err := info.DataType()
	require.NoError(t, err)
	assert.Equal(t, core.GhostTypePichanRacer, typ)

	fake.SetSession("X", 0, 9)
	typ, err = info.DataType()
	require.NoError(t, err)
	assert.Equal(t, core.GhostTypeInvalid, typ)
}

func TestInfo_StageNameNull(t *testing.T) {
	img, _ := newFixture(t)
	info, err := Locate(img, DefaultPointerAddress)
	require.NoError(t, err)
	_, err = info.StageName()
	assert.ErrorIs(t, err, remote.ErrNullPointer)
}

func TestReadSnapshot_V2Player(t *testing.T) {
	img, fake := newFixture(t)
	fake.SetGhost(sampleGhost)
	info, err := Locate(img, DefaultPointerAddress)
	require.NoError(t, err)

	s, err := info.ReadSnapshot(core.GhostTypePlayerMario, SnapshotOptions{Profile: gst.ProfileV2})
	require.NoError(t, err)

	assert.Equal(t, core.GhostTypePlayerMario, s.Type)
	assert.Equal(t, core.Vec3i{X: 100, Y: -2, Z: 3}, s.Position)
	assert.Equal(t, sampleGhost.Position, s.PositionFloat)
	// 270 clamps to 180; 180*128 = 23040
	assert.Equal(t, core.Vec3i{X: 23040, Y: 64, Z: -128}, s.Rotation)
	assert.Equal(t, core.Vec3i{X: 8, Y: 8, Z: 8}, s.Scale)
	assert.Equal(t, core.Vec3i{X: 3, Y: 0, Z: -2}, s.Velocity)
	assert.Equal(t, "Wait", s.ActionName)
	assert.False(t, s.UseActionHash)
	assert.Zero(t, s.ActionHash)
	assert.Equal(t, int32(10), s.BckFrame)
	assert.Equal(t, int32(8), s.BckRate)
	assert.Equal(t, [4]int32{-128, 64, 32, 0}, s.TrackWeights)
	assert.False(t, s.UsePositionFloat)
}

func TestReadSnapshot_HashedAndFloat(t *testing.T) {
	img, fake := newFixture(t)
	g := sampleGhost
	g.ActionName = ""
	fake.SetGhost(g)
	info, err := Locate(img, DefaultPointerAddress)
	require.NoError(t, err)

	s, err := info.ReadSnapshot(core.GhostTypeAttackGhost, SnapshotOptions{Profile: gst.ProfileV2, PositionFloat: true})
	require.NoError(t, err)
	assert.True(t, s.UseActionHash)
	assert.Equal(t, uint32(0xDEADBEEF), s.ActionHash)
	assert.Empty(t, s.ActionName)
	assert.False(t, s.UsePositionFloat, "v2 has no float position")

	s, err = info.ReadSnapshot(core.GhostTypeAttackGhost, SnapshotOptions{Profile: gst.ProfileV1, PositionFloat: true})
	require.NoError(t, err)
	assert.False(t, s.UseActionHash)
	assert.True(t, s.UsePositionFloat)
	// v1 weights use shift 3
	assert.Equal(t, [4]int32{-128, 4, 2, 0}, s.TrackWeights)
}

func TestReadSnapshot_NullActionName(t *testing.T) {
	img, fake := newFixture(t)
	fake.SetGhost(sampleGhost)
	img.PutU32(testBase+offActionName, 0)
	info, err := Locate(img, DefaultPointerAddress)
	require.NoError(t, err)

	_, err = info.ReadSnapshot(core.GhostTypePlayerLuigi, SnapshotOptions{Profile: gst.ProfileV2})
	assert.ErrorIs(t, err, remote.ErrNullPointer)
}
