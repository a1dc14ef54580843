// pkg/core/session.go
package core

import "time"

// FramesPerSecond is the capture rate the game updates the recorder at.
const FramesPerSecond = 60

// Session describes one recording session, fixed at RECORDING entry.
type Session struct {
	StageName  string    `json:"stageName"`
	DataIndex  uint32    `json:"dataIndex"`
	GhostType  GhostType `json:"ghostType"`
	GameID     string    `json:"gameId"`
	Format     string    `json:"format"`
	OutputPath string    `json:"outputPath"`
	StartTime  time.Time `json:"startTime"`
}

// FrameRecord is what the capture loop reports to storage for each written packet.
type FrameRecord struct {
	PacketIndex uint32 `json:"packetIndex"`
	UpdateFrame uint32 `json:"updateFrame"`
	Flags       uint16 `json:"flags"`
	PayloadSize int    `json:"payloadSize"`
	Position    Vec3f  `json:"position"`
	Payload     []byte `json:"-"`
}

// Outcome is how a session ended.
type Outcome string

const (
	OutcomeStopped            Outcome = "stopped"
	OutcomeAbortedBeforeStart Outcome = "aborted_before_start"
	OutcomeInvalidType        Outcome = "invalid_type"
	OutcomeSyncError          Outcome = "sync_error"
	OutcomeCanceled           Outcome = "canceled"
	OutcomeFailed             Outcome = "failed"
)

// SessionSummary is reported once when a session ends.
type SessionSummary struct {
	Session  Session       `json:"session"`
	Frames   uint32        `json:"frames"`
	Duration time.Duration `json:"duration"`
	Outcome  Outcome       `json:"outcome"`
	Error    string        `json:"error,omitempty"`
	EndTime  time.Time     `json:"endTime"`
}

// ApproxDuration converts a frame count into wall time at 60 frames per second.
func ApproxDuration(frames uint32) time.Duration {
	return time.Duration(frames) * time.Second / FramesPerSecond
}
