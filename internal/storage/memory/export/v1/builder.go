package v1

import (
	"github.com/galaxygst/galaxygst/internal/geo"
	"github.com/galaxygst/galaxygst/internal/gst"
	"github.com/galaxygst/galaxygst/pkg/core"
)

// SessionData contains all the data needed to build a manifest
type SessionData struct {
	Session *core.Session
	Frames  []core.FrameRecord
	Summary *core.SessionSummary
}

// Build creates a Manifest from the session data. Summary may be nil for a
// session that is still running.
func Build(data *SessionData) Manifest {
	m := Manifest{
		Version:     Version,
		FieldCounts: make(map[string]int),
		Packets:     make([]Packet, 0, len(data.Frames)),
	}
	if data.Session != nil {
		m.Session = *data.Session
	}

	positions := make([]core.Vec3f, 0, len(data.Frames))
	for _, f := range data.Frames {
		flags := gst.Flag(f.Flags)
		m.Packets = append(m.Packets, Packet{
			Index:       f.PacketIndex,
			UpdateFrame: f.UpdateFrame,
			Flags:       flags.String(),
			Size:        f.PayloadSize,
		})
		m.PayloadBytes += f.PayloadSize
		for _, name := range flags.Names() {
			m.FieldCounts[name]++
		}
		positions = append(positions, f.Position)
	}
	m.Path = geo.Summarize(positions)

	m.Frames = uint32(len(data.Frames))
	if s := data.Summary; s != nil {
		m.Outcome = s.Outcome
		m.Error = s.Error
		m.Frames = s.Frames
		m.EndTime = s.EndTime
		m.DurationSeconds = s.Duration.Seconds()
	} else {
		m.DurationSeconds = core.ApproxDuration(m.Frames).Seconds()
	}
	return m
}
