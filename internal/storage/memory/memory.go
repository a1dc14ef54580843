// Package memory keeps a session in memory and exports it as a JSON manifest
// next to the GST file when the session ends.
package memory

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/galaxygst/galaxygst/internal/config"
	v1 "github.com/galaxygst/galaxygst/internal/storage/memory/export/v1"
	"github.com/galaxygst/galaxygst/pkg/core"
)

var errNoSession = errors.New("no session started")

// Backend stores session data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session
	frames  []core.FrameRecord

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session, dropping any previous one.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp := *s
	b.session = &cp
	b.frames = b.frames[:0]
	return nil
}

// RecordFrame keeps f. The payload is not retained.
func (b *Backend) RecordFrame(f *core.FrameRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return errNoSession
	}
	rec := *f
	rec.Payload = nil
	b.frames = append(b.frames, rec)
	return nil
}

// EndSession writes the manifest and forgets the session.
func (b *Backend) EndSession(summary *core.SessionSummary) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return errNoSession
	}
	manifest := v1.Build(&v1.SessionData{
		Session: b.session,
		Frames:  b.frames,
		Summary: summary,
	})

	path := b.session.OutputPath + ".json"
	var err error
	if b.cfg.CompressOutput {
		path += ".gz"
		err = writeGzipJSON(path, manifest)
	} else {
		err = writeJSON(path, manifest)
	}
	if err != nil {
		return fmt.Errorf("exporting session manifest: %w", err)
	}

	b.lastExportPath = path
	b.session = nil
	b.frames = nil
	return nil
}

// Manifest builds the manifest of the running session.
func (b *Backend) Manifest() (v1.Manifest, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.session == nil {
		return v1.Manifest{}, false
	}
	return v1.Build(&v1.SessionData{Session: b.session, Frames: b.frames}), true
}

// ExportedFilePath returns the path of the last written manifest.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

func writeJSON(path string, data v1.Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data v1.Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
