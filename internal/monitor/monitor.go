// Package monitor reports the progress of the running capture session.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/galaxygst/galaxygst/internal/session"
	"github.com/galaxygst/galaxygst/pkg/core"
)

// DefaultInterval is used when Dependencies.Interval is zero.
const DefaultInterval = 10 * time.Second

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Sessions *session.Context
	Logger   *slog.Logger
	// StatusFile is rewritten on every tick when set.
	StatusFile string
	Interval   time.Duration
	// Dropped reports frames a backend could not deliver, if it tracks them.
	Dropped func() uint64
}

// Status is the progress of the active session.
type Status struct {
	Time     time.Time     `json:"time"`
	Active   bool          `json:"active"`
	Session  *core.Session `json:"session,omitempty"`
	Frames   uint32        `json:"frames"`
	Duration string        `json:"duration"`
	Dropped  uint64        `json:"dropped,omitempty"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Current returns the status at now.
func (s *Service) Current(now time.Time) Status {
	st := Status{Time: now}
	if sess, frames, ok := s.deps.Sessions.Status(); ok {
		st.Active = true
		st.Session = &sess
		st.Frames = frames
	}
	st.Duration = core.ApproxDuration(st.Frames).String()
	if s.deps.Dropped != nil {
		st.Dropped = s.deps.Dropped()
	}
	return st
}

// Start starts the status monitor goroutine
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(s.stopChan, s.done)
}

func (s *Service) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			st := s.Current(now)
			if st.Active {
				s.deps.Logger.Info("Recording in progress",
					"frames", st.Frames, "duration", st.Duration, "dropped", st.Dropped)
			}
			if err := s.writeStatus(st); err != nil {
				s.deps.Logger.Warn("Error writing status file", "error", err)
			}
		}
	}
}

func (s *Service) writeStatus(st Status) error {
	if s.deps.StatusFile == "" {
		return nil
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.deps.StatusFile + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing status: %w", err)
	}
	return os.Rename(tmp, s.deps.StatusFile)
}

// Stop stops the status monitor and waits for its goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
