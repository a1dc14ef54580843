// pkg/core/ghost.go
package core

import "fmt"

// GhostType identifies which kind of ghost data the game-side recorder tracks.
// Values mirror the constants in the game's GstRecord header.
type GhostType int32

const (
	GhostTypeAttackGhost GhostType = 0
	GhostTypePichanRacer GhostType = 1
	GhostTypePlayerMario GhostType = 2 // reserved
	GhostTypePlayerLuigi GhostType = 3 // reserved
	GhostTypeInvalid     GhostType = -1
)

// ParseGhostType maps a raw value read from memory to a GhostType.
// Unknown values map to GhostTypeInvalid.
func ParseGhostType(raw uint32) GhostType {
	switch t := GhostType(int32(raw)); t {
	case GhostTypeAttackGhost, GhostTypePichanRacer, GhostTypePlayerMario, GhostTypePlayerLuigi:
		return t
	default:
		return GhostTypeInvalid
	}
}

// Valid reports whether t is one of the known ghost types.
func (t GhostType) Valid() bool {
	return t >= GhostTypeAttackGhost && t <= GhostTypePlayerLuigi
}

func (t GhostType) String() string {
	switch t {
	case GhostTypeAttackGhost:
		return "AttackGhost"
	case GhostTypePichanRacer:
		return "PichanRacer"
	case GhostTypePlayerMario:
		return "PlayerMario"
	case GhostTypePlayerLuigi:
		return "PlayerLuigi"
	default:
		return "Invalid"
	}
}

// FileName formats the GST file name for this ghost type.
// index is the scenario or data slot index, depending on the type.
func (t GhostType) FileName(stageName string, index uint32) (string, error) {
	switch t {
	case GhostTypeAttackGhost:
		return fmt.Sprintf("GhostAttackGhostData%02d.gst", index), nil
	case GhostTypePichanRacer:
		return fmt.Sprintf("PichanRacerRaceData%03d.gst", index), nil
	case GhostTypePlayerMario:
		return stageName + ".gst", nil
	case GhostTypePlayerLuigi:
		return stageName + "Luigi.gst", nil
	default:
		return "", fmt.Errorf("no file name for ghost type %d", int32(t))
	}
}

// RecorderMode is the state published by the game-side recorder.
type RecorderMode uint32

const (
	RecorderModeWaiting   RecorderMode = 0
	RecorderModePreparing RecorderMode = 1
	RecorderModeRecording RecorderMode = 2
	RecorderModeStopped   RecorderMode = 3
)

func (m RecorderMode) String() string {
	switch m {
	case RecorderModeWaiting:
		return "WAITING"
	case RecorderModePreparing:
		return "PREPARING"
	case RecorderModeRecording:
		return "RECORDING"
	case RecorderModeStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint32(m))
	}
}

// Snapshot is one decoded time-slice of ghost state, already quantized
// except for the float position which is kept as read.
type Snapshot struct {
	Type GhostType

	Position      Vec3i
	PositionFloat Vec3f
	Rotation      Vec3i
	Scale         Vec3i
	Velocity      Vec3i

	ActionName string
	ActionHash uint32

	BckFrame     int32
	BckRate      int32
	TrackWeights [4]int32

	// UseActionHash selects whether the hash or the name identifies the action.
	UseActionHash bool
	// UsePositionFloat selects the float position, if the format supports it.
	UsePositionFloat bool
}
