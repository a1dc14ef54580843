// Package streaming defines the JSON messages a live relay receives while a
// ghost is being recorded.
package streaming

import (
	"encoding/json"

	"github.com/galaxygst/galaxygst/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartSession = "start_session"
	TypeFrame        = "frame"
	TypeEndSession   = "end_session"
	TypeAck          = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartSessionPayload announces a new trace.
type StartSessionPayload struct {
	Session *core.Session `json:"session"`
}

// FramePayload carries one written packet. Payload is base64 in JSON.
type FramePayload struct {
	PacketIndex uint32     `json:"packetIndex"`
	UpdateFrame uint32     `json:"updateFrame"`
	Flags       uint16     `json:"flags"`
	Position    core.Vec3f `json:"position"`
	Payload     []byte     `json:"payload"`
}

// EndSessionPayload closes the trace announced by the last start_session.
type EndSessionPayload struct {
	Summary *core.SessionSummary `json:"summary"`
}

// NewFramePayload copies the streamed fields of f.
func NewFramePayload(f *core.FrameRecord) FramePayload {
	return FramePayload{
		PacketIndex: f.PacketIndex,
		UpdateFrame: f.UpdateFrame,
		Flags:       f.Flags,
		Position:    f.Position,
		Payload:     f.Payload,
	}
}
