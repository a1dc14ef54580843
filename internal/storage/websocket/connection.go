package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/galaxygst/galaxygst/pkg/streaming"
)

const (
	// about 40 seconds of frames at 60 per second
	sendChSize = 2400
	ackChSize  = 16
	writeWait  = 10 * time.Second
	dialWait   = 5 * time.Second
)

// retryPolicy bounds reconnect attempts.
type retryPolicy struct {
	attempts   int
	backoff    time.Duration
	maxBackoff time.Duration
}

var defaultRetry = retryPolicy{attempts: 10, backoff: time.Second, maxBackoff: 30 * time.Second}

// connection manages a WebSocket connection with a single write goroutine.
type connection struct {
	mu     sync.Mutex
	conn   *ws.Conn
	stop   chan struct{} // closed when conn is replaced
	sendCh chan []byte
	ackCh  chan streaming.AckMessage
	done   chan struct{} // closed on shutdown
	closed bool

	endpoint string
	retry    retryPolicy

	// start_session of the running trace, replayed after a reconnect
	replay []byte
	// message taken from sendCh but not written
	pending []byte

	dropped atomic.Uint64
	logger  *slog.Logger
}

func newConnection(logger *slog.Logger, retry retryPolicy) *connection {
	return &connection{
		sendCh: make(chan []byte, sendChSize),
		ackCh:  make(chan streaming.AckMessage, ackChSize),
		done:   make(chan struct{}),
		retry:  retry,
		logger: logger,
	}
}

// endpointURL adds the secret query parameter to rawURL.
func endpointURL(rawURL, secret string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid websocket URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("invalid websocket URL %q: scheme must be ws or wss", rawURL)
	}
	if secret != "" {
		q := u.Query()
		q.Set("secret", secret)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// dial connects to the server and starts the read and write loops.
func (c *connection) dial(rawURL, secret string) error {
	endpoint, err := endpointURL(rawURL, secret)
	if err != nil {
		return err
	}
	c.endpoint = endpoint

	conn, err := c.dialOnce()
	if err != nil {
		return err
	}
	c.attach(conn)
	return nil
}

func (c *connection) dialOnce() (*ws.Conn, error) {
	d := ws.Dialer{HandshakeTimeout: dialWait}
	conn, _, err := d.Dial(c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

func (c *connection) attach(conn *ws.Conn) {
	stop := make(chan struct{})
	c.mu.Lock()
	c.conn = conn
	c.stop = stop
	c.mu.Unlock()

	go c.writeLoop(conn, stop)
	go c.readLoop(conn)
}

// writeLoop drains sendCh onto conn. It returns on error, when conn is
// replaced, or on shutdown. A message it could not write is kept for the
// next loop.
func (c *connection) writeLoop(conn *ws.Conn, stop <-chan struct{}) {
	for {
		data := c.takePending()
		if data == nil {
			select {
			case <-c.done:
				return
			case <-stop:
				return
			case data = <-c.sendCh:
			}
		}

		select {
		case <-stop:
			c.keepPending(data)
			return
		default:
		}
		if err := c.write(conn, data); err != nil {
			c.logger.Warn("WebSocket write error", "error", err)
			c.keepPending(data)
			go c.reconnect(conn)
			return
		}
	}
}

func (c *connection) takePending() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	data := c.pending
	c.pending = nil
	return data
}

func (c *connection) keepPending(data []byte) {
	c.mu.Lock()
	c.pending = data
	c.mu.Unlock()
}

func (c *connection) write(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, data)
}

// readLoop routes acks from the server to ackCh.
func (c *connection) readLoop(conn *ws.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			c.logger.Warn("WebSocket read error", "error", err)
			go c.reconnect(conn)
			return
		}

		var ack streaming.AckMessage
		if err := json.Unmarshal(message, &ack); err != nil || ack.Type != streaming.TypeAck {
			c.logger.Debug("Non-ack message received", "raw", string(message))
			continue
		}
		select {
		case c.ackCh <- ack:
		default:
			c.logger.Debug("Ack channel full, dropping", "for", ack.For)
		}
	}
}

// reconnect replaces the broken connection old, backing off exponentially.
// The read and write loops both notice a broken connection, so only the
// first call for old does any work.
func (c *connection) reconnect(old *ws.Conn) {
	c.mu.Lock()
	if c.closed || c.conn != old {
		c.mu.Unlock()
		return
	}
	_ = old.Close()
	close(c.stop)
	c.conn = nil
	c.mu.Unlock()

	backoff := c.retry.backoff
	for attempt := 1; attempt <= c.retry.attempts; attempt++ {
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}

		c.logger.Info("Reconnecting to WebSocket", "attempt", attempt)
		conn, err := c.dialOnce()
		if err != nil {
			c.logger.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
			backoff = min(backoff*2, c.retry.maxBackoff)
			continue
		}

		c.mu.Lock()
		replay := c.replay
		c.mu.Unlock()
		if replay != nil {
			if err := c.write(conn, replay); err != nil {
				c.logger.Warn("Failed to replay start_session after reconnect", "error", err)
				_ = conn.Close()
				continue
			}
		}

		c.logger.Info("WebSocket reconnected", "attempt", attempt)
		c.attach(conn)
		return
	}

	c.logger.Error("WebSocket reconnect failed after max attempts", "maxAttempts", c.retry.attempts)
}

func (c *connection) setReplay(data []byte) {
	c.mu.Lock()
	c.replay = data
	c.mu.Unlock()
}

// send queues data for the write loop. It never blocks; data is dropped
// when the queue is full.
func (c *connection) send(data []byte) {
	select {
	case c.sendCh <- data:
	default:
		if n := c.dropped.Add(1); n == 1 || n%600 == 0 {
			c.logger.Warn("WebSocket send channel full, dropping message", "dropped", n)
		}
	}
}

// sendAndWait sends data and blocks until the server acknowledges ackFor
// or the timeout expires.
func (c *connection) sendAndWait(data []byte, ackFor string, timeout time.Duration) error {
	c.send(data)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case ack := <-c.ackCh:
			if ack.For == ackFor {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", ackFor)
		case <-c.done:
			return fmt.Errorf("connection closed while waiting for ack of %q", ackFor)
		}
	}
}

// close sends a close frame and stops all goroutines.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return conn.Close()
}
