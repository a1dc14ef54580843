// Package recorderinfo reads the game-side GstRecorderInfo structure.
package recorderinfo

import (
	"fmt"
	"slices"

	"github.com/galaxygst/galaxygst/internal/gst"
	"github.com/galaxygst/galaxygst/internal/quant"
	"github.com/galaxygst/galaxygst/internal/remote"
	"github.com/galaxygst/galaxygst/pkg/core"
)

// DefaultPointerAddress holds the GstRecorderInfo* installed by the game patch.
const DefaultPointerAddress uint32 = 0x80003FF8

// GameIDAddress is the start of MEM1, where the disc header's game ID lives.
const GameIDAddress uint32 = 0x80000000

const (
	offUpdateFrame  = 0x00
	offMode         = 0x04
	offStageNamePtr = 0x08
	offDataIndex    = 0x0C
	offDataType     = 0x10

	offGhostData    = 0x14
	offPosition     = offGhostData + 0x00
	offRotation     = offGhostData + 0x0C
	offScale        = offGhostData + 0x18
	offVelocity     = offGhostData + 0x24
	offActionName   = offGhostData + 0x30
	offActionHash   = offGhostData + 0x34
	offBckFrame     = offGhostData + 0x38
	offTrackWeights = offGhostData + 0x3C
	offBckRate      = offGhostData + 0x4C
	offPacketFlags  = offGhostData + 0x50
)

// NoGame is the ID read while the emulator has no disc booted.
const NoGame = "\x00\x00\x00\x00"

// GameIDs lists the Super Mario Galaxy 2 releases the patch supports.
var GameIDs = []string{"SB4P", "SB4E", "SB4J", "SB4K", "SB4W"}

// ValidGameID reports whether id is a supported release.
func ValidGameID(id string) bool {
	return slices.Contains(GameIDs, id)
}

// ReadGameID returns the 4-character game ID of the booted disc.
func ReadGameID(r remote.Reader) (string, error) {
	b, err := r.ReadBytes(GameIDAddress, 4)
	if err != nil {
		return "", fmt.Errorf("reading game ID: %w", err)
	}
	return string(b), nil
}

// Info is a located GstRecorderInfo structure.
type Info struct {
	r    remote.Reader
	base uint32
}

// Locate reads the structure pointer stored at ptrAddr.
func Locate(r remote.Reader, ptrAddr uint32) (*Info, error) {
	base, err := r.ReadU32(ptrAddr)
	if err != nil {
		return nil, fmt.Errorf("reading recorder info pointer at 0x%08X: %w", ptrAddr, err)
	}
	if base == 0 {
		return nil, remote.NullError("GstRecorderInfo*")
	}
	return &Info{r: r, base: base}, nil
}

// Address returns the address of the structure.
func (i *Info) Address() uint32 {
	return i.base
}

// UpdateFrame returns the game's frame counter.
func (i *Info) UpdateFrame() (uint32, error) {
	return i.r.ReadU32(i.base + offUpdateFrame)
}

func (i *Info) Mode() (core.RecorderMode, error) {
	v, err := i.r.ReadU32(i.base + offMode)
	return core.RecorderMode(v), err
}

func (i *Info) StageName() (string, error) {
	ptr, err := i.r.ReadU32(i.base + offStageNamePtr)
	if err != nil {
		return "", err
	}
	if ptr == 0 {
		return "", remote.NullError("stage name")
	}
	return i.r.ReadCString(ptr)
}

func (i *Info) DataIndex() (uint32, error) {
	return i.r.ReadU32(i.base + offDataIndex)
}

// DataType returns the ghost type; unknown raw values map to GhostTypeInvalid.
func (i *Info) DataType() (core.GhostType, error) {
	v, err := i.r.ReadU32(i.base + offDataType)
	if err != nil {
		return core.GhostTypeInvalid, err
	}
	return core.ParseGhostType(v), nil
}

// PacketFlags returns the flags word the game keeps next to the ghost data.
// The encoder computes its own mask. The capture loop compares the two at
// debug level.
func (i *Info) PacketFlags() (uint32, error) {
	return i.r.ReadU32(i.base + offPacketFlags)
}

// SnapshotOptions selects how identity and position are recorded.
type SnapshotOptions struct {
	Profile gst.Profile
	// PositionFloat requests the float position when the profile has one.
	PositionFloat bool
}

// ReadSnapshot reads the ghost data block and quantizes it.
func (i *Info) ReadSnapshot(t core.GhostType, opts SnapshotOptions) (core.Snapshot, error) {
	s := core.Snapshot{
		Type:             t,
		UseActionHash:    opts.Profile.UsesActionHash(t),
		UsePositionFloat: opts.PositionFloat && opts.Profile.FloatPosition,
	}

	pos, err := remote.ReadVec3f(i.r, i.base+offPosition)
	if err != nil {
		return s, fmt.Errorf("position: %w", err)
	}
	rot, err := remote.ReadVec3f(i.r, i.base+offRotation)
	if err != nil {
		return s, fmt.Errorf("rotation: %w", err)
	}
	scale, err := remote.ReadVec3f(i.r, i.base+offScale)
	if err != nil {
		return s, fmt.Errorf("scale: %w", err)
	}
	vel, err := remote.ReadVec3f(i.r, i.base+offVelocity)
	if err != nil {
		return s, fmt.Errorf("velocity: %w", err)
	}
	s.Position = quant.Vec(pos, quant.ShiftPosition)
	s.PositionFloat = pos
	s.Rotation = quant.RotationVec(rot)
	s.Scale = quant.Vec(scale, quant.ShiftScale)
	s.Velocity = quant.Vec(vel, quant.ShiftVelocity)

	if s.UseActionHash {
		if s.ActionHash, err = i.r.ReadU32(i.base + offActionHash); err != nil {
			return s, fmt.Errorf("action hash: %w", err)
		}
	} else {
		ptr, err := i.r.ReadU32(i.base + offActionName)
		if err != nil {
			return s, fmt.Errorf("action name: %w", err)
		}
		if ptr == 0 {
			return s, remote.NullError("action name")
		}
		if s.ActionName, err = i.r.ReadCString(ptr); err != nil {
			return s, fmt.Errorf("action name: %w", err)
		}
	}

	frame, err := i.r.ReadF32(i.base + offBckFrame)
	if err != nil {
		return s, fmt.Errorf("bck frame: %w", err)
	}
	rate, err := i.r.ReadF32(i.base + offBckRate)
	if err != nil {
		return s, fmt.Errorf("bck rate: %w", err)
	}
	s.BckFrame = quant.Quantize(frame, quant.ShiftBckFrame)
	s.BckRate = quant.Quantize(rate, quant.ShiftBckRate)

	for n := range s.TrackWeights {
		w, err := i.r.ReadF32(i.base + offTrackWeights + uint32(4*n))
		if err != nil {
			return s, fmt.Errorf("track weight %d: %w", n, err)
		}
		s.TrackWeights[n] = quant.Weight(w, opts.Profile.WeightShift)
	}
	return s, nil
}
