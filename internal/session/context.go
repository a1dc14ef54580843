// Package session tracks the capture session currently in progress.
package session

import (
	"log/slog"
	"sync"

	"github.com/galaxygst/galaxygst/pkg/core"
)

// Context holds the active session, if any. It is read by log handlers on
// other goroutines while the capture loop updates it.
type Context struct {
	mu      sync.RWMutex
	session *core.Session
	frames  uint32
}

// NewContext creates a Context with no active session.
func NewContext() *Context {
	return &Context{}
}

// Get returns the active session or nil.
func (c *Context) Get() *core.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Begin marks s as the active session and resets the frame count.
func (c *Context) Begin(s *core.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
	c.frames = 0
}

// SetFrames records how many packets the active session has written.
func (c *Context) SetFrames(n uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = n
}

// End clears the active session.
func (c *Context) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	c.frames = 0
}

// LogAttrs returns attributes describing the active session, or nil when
// none is active.
func (c *Context) LogAttrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	return []slog.Attr{
		slog.String("stage", c.session.StageName),
		slog.String("ghostType", c.session.GhostType.String()),
		slog.Uint64("frames", uint64(c.frames)),
	}
}

// Status returns a copy of the active session and its frame count. ok is
// false when no session is active.
func (c *Context) Status() (s core.Session, frames uint32, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return core.Session{}, 0, false
	}
	return *c.session, c.frames, true
}
