// Package convert provides functions to convert between core and GORM models
package convert

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/galaxygst/galaxygst/internal/geo"
	"github.com/galaxygst/galaxygst/internal/model"
	"github.com/galaxygst/galaxygst/pkg/core"
)

// CoreToSession converts a core.Session to a new GORM Session row.
func CoreToSession(s core.Session) model.Session {
	return model.Session{
		StageName:  s.StageName,
		DataIndex:  s.DataIndex,
		GhostType:  int32(s.GhostType),
		GameID:     s.GameID,
		Format:     s.Format,
		OutputPath: s.OutputPath,
		StartTime:  s.StartTime,
	}
}

// SessionToCore converts a GORM Session back to a core.Session.
func SessionToCore(s model.Session) core.Session {
	return core.Session{
		StageName:  s.StageName,
		DataIndex:  s.DataIndex,
		GhostType:  core.GhostType(s.GhostType),
		GameID:     s.GameID,
		Format:     s.Format,
		OutputPath: s.OutputPath,
		StartTime:  s.StartTime,
	}
}

// ApplySummary copies the end-of-session fields onto s.
func ApplySummary(s *model.Session, summary core.SessionSummary) {
	end := summary.EndTime
	s.EndTime = &end
	s.Frames = summary.Frames
	s.DurationSeconds = summary.Duration.Seconds()
	s.Outcome = string(summary.Outcome)
	s.Error = summary.Error
}

// ApplyPath copies a path summary onto s.
func ApplyPath(s *model.Session, p geo.PathSummary) {
	s.PathLength = p.Length
	s.PathClimb = p.Climb
	s.PathWKT = p.WKT
	s.BoundsWKT = p.BoundsWKT
}

// FieldCountsJSON encodes per-field packet counts for the FieldCounts column.
func FieldCountsJSON(counts map[string]int) datatypes.JSON {
	if len(counts) == 0 {
		return datatypes.JSON("{}")
	}
	b, err := json.Marshal(counts)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}

// CoreToFrameStat converts a core.FrameRecord to a GORM FrameStat of sessionID.
func CoreToFrameStat(sessionID uint, f core.FrameRecord) model.FrameStat {
	return model.FrameStat{
		SessionID:   sessionID,
		PacketIndex: f.PacketIndex,
		UpdateFrame: f.UpdateFrame,
		Flags:       f.Flags,
		PayloadSize: f.PayloadSize,
		X:           f.Position.X,
		Y:           f.Position.Y,
		Z:           f.Position.Z,
	}
}
