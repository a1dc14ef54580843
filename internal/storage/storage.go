// Package storage defines the catalog backends a capture session reports to.
// The GST file is written by the capture loop itself; backends only receive
// a copy of what was written.
package storage

import (
	"errors"

	"github.com/galaxygst/galaxygst/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *core.Session) error
	EndSession(summary *core.SessionSummary) error

	// RecordFrame is called once per packet appended to the GST file.
	RecordFrame(f *core.FrameRecord) error
}

// Exporter is an optional interface for backends that write a file of
// their own when a session ends.
type Exporter interface {
	ExportedFilePath() string
}

// Nop discards everything.
type Nop struct{}

func (Nop) Init() error                           { return nil }
func (Nop) Close() error                          { return nil }
func (Nop) StartSession(*core.Session) error      { return nil }
func (Nop) EndSession(*core.SessionSummary) error { return nil }
func (Nop) RecordFrame(*core.FrameRecord) error   { return nil }

// Multi fans every call out to all its backends and joins their errors.
type Multi []Backend

func (m Multi) Init() error {
	return m.each(func(b Backend) error { return b.Init() })
}

func (m Multi) Close() error {
	return m.each(func(b Backend) error { return b.Close() })
}

func (m Multi) StartSession(s *core.Session) error {
	return m.each(func(b Backend) error { return b.StartSession(s) })
}

func (m Multi) EndSession(summary *core.SessionSummary) error {
	return m.each(func(b Backend) error { return b.EndSession(summary) })
}

func (m Multi) RecordFrame(f *core.FrameRecord) error {
	return m.each(func(b Backend) error { return b.RecordFrame(f) })
}

func (m Multi) each(fn func(Backend) error) error {
	var errs []error
	for _, b := range m {
		if err := fn(b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ExportedFilePath returns the first file exported by one of the backends.
func (m Multi) ExportedFilePath() string {
	for _, b := range m {
		if e, ok := b.(Exporter); ok {
			if p := e.ExportedFilePath(); p != "" {
				return p
			}
		}
	}
	return ""
}
