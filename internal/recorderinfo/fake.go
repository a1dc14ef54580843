package recorderinfo

import (
	"github.com/galaxygst/galaxygst/internal/remote"
	"github.com/galaxygst/galaxygst/pkg/core"
)

// RawGhost is the unquantized ghost data block as the game stores it.
type RawGhost struct {
	Position     core.Vec3f
	Rotation     core.Vec3f
	Scale        core.Vec3f
	Velocity     core.Vec3f
	ActionName   string
	ActionHash   uint32
	BckFrame     float32
	TrackWeights [4]float32
	BckRate      float32
}

// Fake lays out a GstRecorderInfo inside a remote.Image so the capture
// pipeline can run without an emulator.
type Fake struct {
	Image *remote.Image
	Ptr   uint32
	Base  uint32

	strings uint32
}

// NewFake installs a recorder info at base with its pointer at ptr and game ID id.
func NewFake(img *remote.Image, ptr, base uint32, id string) *Fake {
	img.PutBytes(GameIDAddress, []byte(id))
	img.PutU32(ptr, base)
	return &Fake{Image: img, Ptr: ptr, Base: base, strings: base + 0x1000}
}

func (f *Fake) putString(s string) uint32 {
	addr := f.strings
	f.Image.PutCString(addr, s)
	f.strings += uint32(len(s)+1+3) &^ 3
	return addr
}

func (f *Fake) SetFrame(n uint32) {
	f.Image.PutU32(f.Base+offUpdateFrame, n)
}

func (f *Fake) SetMode(m core.RecorderMode) {
	f.Image.PutU32(f.Base+offMode, uint32(m))
}

// SetPacketFlags writes the game's own flags word.
func (f *Fake) SetPacketFlags(flags uint32) {
	f.Image.PutU32(f.Base+offPacketFlags, flags)
}

// SetSession writes the stage name, data index and raw data type.
func (f *Fake) SetSession(stage string, index uint32, dataType int32) {
	f.Image.PutU32(f.Base+offStageNamePtr, f.putString(stage))
	f.Image.PutU32(f.Base+offDataIndex, index)
	f.Image.PutU32(f.Base+offDataType, uint32(dataType))
}

func (f *Fake) putVec(addr uint32, v core.Vec3f) {
	f.Image.PutF32(addr, v.X)
	f.Image.PutF32(addr+4, v.Y)
	f.Image.PutF32(addr+8, v.Z)
}

// SetGhost writes the ghost data block.
func (f *Fake) SetGhost(g RawGhost) {
	f.putVec(f.Base+offPosition, g.Position)
	f.putVec(f.Base+offRotation, g.Rotation)
	f.putVec(f.Base+offScale, g.Scale)
	f.putVec(f.Base+offVelocity, g.Velocity)
	f.Image.PutU32(f.Base+offActionName, f.putString(g.ActionName))
	f.Image.PutU32(f.Base+offActionHash, g.ActionHash)
	f.Image.PutF32(f.Base+offBckFrame, g.BckFrame)
	for n, w := range g.TrackWeights {
		f.Image.PutF32(f.Base+offTrackWeights+uint32(4*n), w)
	}
	f.Image.PutF32(f.Base+offBckRate, g.BckRate)
}
