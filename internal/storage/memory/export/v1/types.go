// Package v1 contains the v1 JSON manifest written next to a GST file.
// Tools that list or index ghost recordings read this format.
package v1

import (
	"time"

	"github.com/galaxygst/galaxygst/internal/geo"
	"github.com/galaxygst/galaxygst/pkg/core"
)

// Version is stored in every manifest.
const Version = 1

// Manifest is the root JSON structure for v1 format
type Manifest struct {
	Version         int             `json:"version"`
	Session         core.Session    `json:"session"`
	Outcome         core.Outcome    `json:"outcome"`
	Error           string          `json:"error,omitempty"`
	Frames          uint32          `json:"frames"`
	DurationSeconds float64         `json:"durationSeconds"`
	EndTime         time.Time       `json:"endTime"`
	PayloadBytes    int             `json:"payloadBytes"`
	FieldCounts     map[string]int  `json:"fieldCounts"`
	Path            geo.PathSummary `json:"path"`
	Packets         []Packet        `json:"packets"`
}

// Packet describes one written frame.
type Packet struct {
	Index       uint32 `json:"index"`
	UpdateFrame uint32 `json:"updateFrame"`
	Flags       string `json:"flags"`
	Size        int    `json:"size"`
}
