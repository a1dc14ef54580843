package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Session{},
	&FrameStat{},
}

// Session is one recorded ghost trace, updated with its outcome when it ends.
type Session struct {
	gorm.Model
	StageName  string    `json:"stageName" gorm:"size:128;index:idx_session_stage"`
	DataIndex  uint32    `json:"dataIndex"`
	GhostType  int32     `json:"ghostType" gorm:"index:idx_session_ghost_type"`
	GameID     string    `json:"gameId" gorm:"size:4"`
	Format     string    `json:"format" gorm:"size:8"`
	OutputPath string    `json:"outputPath" gorm:"size:1024"`
	StartTime  time.Time `json:"startTime"`

	EndTime         *time.Time `json:"endTime"`
	Frames          uint32     `json:"frames"`
	DurationSeconds float64    `json:"durationSeconds"`
	Outcome         string     `json:"outcome" gorm:"size:32;default:NULL"`
	Error           string     `json:"error" gorm:"size:1024;default:NULL"`
	PayloadBytes    int64      `json:"payloadBytes"`

	// Path summary of the float positions
	PathLength float64 `json:"pathLength"`
	PathClimb  float64 `json:"pathClimb"`
	PathWKT    string  `json:"pathWkt" gorm:"type:text;default:NULL"`
	BoundsWKT  string  `json:"boundsWkt" gorm:"type:text;default:NULL"`

	// FieldCounts maps field names to the number of packets carrying them.
	FieldCounts datatypes.JSON `json:"fieldCounts"`
	// Trace is the zstd compressed GST file, when trace storage is enabled.
	Trace     []byte `json:"-"`
	TraceSize int    `json:"traceSize"`

	FrameStats []FrameStat `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*Session) TableName() string {
	return "sessions"
}

// FrameStat is one written packet of a session
type FrameStat struct {
	ID          uint    `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID   uint    `json:"sessionId" gorm:"index:idx_framestat_session_id"`
	PacketIndex uint32  `json:"packetIndex" gorm:"index:idx_framestat_packet_index"`
	UpdateFrame uint32  `json:"updateFrame"`
	Flags       uint16  `json:"flags"`
	PayloadSize int     `json:"payloadSize"`
	X           float32 `json:"x"`
	Y           float32 `json:"y"`
	Z           float32 `json:"z"`
}

func (*FrameStat) TableName() string {
	return "frame_stats"
}
