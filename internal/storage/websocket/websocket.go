// Package websocket streams recording sessions to a live relay server.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/galaxygst/galaxygst/pkg/core"
	"github.com/galaxygst/galaxygst/pkg/streaming"
)

// DefaultAckTimeout bounds the wait for start_session and end_session acks.
const DefaultAckTimeout = 10 * time.Second

// Config holds WebSocket backend configuration.
type Config struct {
	URL        string
	Secret     string
	AckTimeout time.Duration
}

// Backend streams session data over WebSocket. Frames are fire-and-forget;
// session start and end wait for the server's ack.
type Backend struct {
	conn *connection
	cfg  Config
}

// New creates a new WebSocket storage backend. A nil logger uses slog.Default.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = DefaultAckTimeout
	}
	return &Backend{
		conn: newConnection(logger, defaultRetry),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// Dropped returns how many messages were dropped because the send queue was full.
func (b *Backend) Dropped() uint64 {
	return b.conn.dropped.Load()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// StartSession announces the session and waits for the server ack. The
// message is replayed if the connection is re-established mid-session.
func (b *Backend) StartSession(s *core.Session) error {
	data, err := marshalEnvelope(streaming.TypeStartSession, streaming.StartSessionPayload{Session: s})
	if err != nil {
		return err
	}
	b.conn.setReplay(data)
	return b.conn.sendAndWait(data, streaming.TypeStartSession, b.cfg.AckTimeout)
}

// RecordFrame queues one frame for sending.
func (b *Backend) RecordFrame(f *core.FrameRecord) error {
	data, err := marshalEnvelope(streaming.TypeFrame, streaming.NewFramePayload(f))
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// EndSession sends the summary and waits for the server ack.
func (b *Backend) EndSession(summary *core.SessionSummary) error {
	data, err := marshalEnvelope(streaming.TypeEndSession, streaming.EndSessionPayload{Summary: summary})
	if err != nil {
		return err
	}
	err = b.conn.sendAndWait(data, streaming.TypeEndSession, b.cfg.AckTimeout)
	b.conn.setReplay(nil)
	return err
}
