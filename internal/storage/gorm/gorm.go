// Package gormstorage implements a session catalog over GORM. Session rows are
// written when a session starts and completed when it ends; per-frame stats
// are batched through an internal queue.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/klauspost/compress/zstd"
	"gorm.io/gorm"

	"github.com/galaxygst/galaxygst/internal/database"
	"github.com/galaxygst/galaxygst/internal/geo"
	"github.com/galaxygst/galaxygst/internal/gst"
	"github.com/galaxygst/galaxygst/internal/model"
	"github.com/galaxygst/galaxygst/internal/model/convert"
	"github.com/galaxygst/galaxygst/internal/queue"
	"github.com/galaxygst/galaxygst/pkg/core"
)

// DefaultBatchSize is used when Config.BatchSize is not positive.
const DefaultBatchSize = 600

var errNoSession = errors.New("no session started")

// Config holds catalog settings.
type Config struct {
	// StoreTrace keeps a zstd compressed copy of the GST file in the session row.
	StoreTrace bool
	BatchSize  int
}

// Backend implements storage.Backend on a GORM database.
type Backend struct {
	db  *gorm.DB
	cfg Config
	log *slog.Logger

	mu           sync.Mutex
	session      *model.Session
	frames       *queue.Queue[model.FrameStat]
	positions    []core.Vec3f
	fieldCounts  map[string]int
	payloadBytes int64
	trace        []byte
}

// New creates a catalog backend on db. A nil logger discards output.
func New(db *gorm.DB, cfg Config, log *slog.Logger) *Backend {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Backend{db: db, cfg: cfg, log: log}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.db
}

// Init runs schema migration.
func (b *Backend) Init() error {
	b.log.Info("Migrating schema", "dialect", b.db.Name())
	if err := database.Migrate(b.db); err != nil {
		return err
	}
	b.log.Info("Database setup complete")
	return nil
}

// Close flushes frame stats still queued. The connection is owned by the caller.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frames == nil {
		return nil
	}
	return b.flush()
}

// StartSession inserts the session row.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	row := convert.CoreToSession(*s)
	row.FieldCounts = convert.FieldCountsJSON(nil)
	if err := b.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	b.session = &row
	b.frames = queue.New[model.FrameStat](b.cfg.BatchSize)
	b.positions = b.positions[:0]
	b.fieldCounts = make(map[string]int)
	b.payloadBytes = 0
	b.trace = b.trace[:0]
	return nil
}

// RecordFrame queues the frame stat and writes the batch once it is full.
func (b *Backend) RecordFrame(f *core.FrameRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return errNoSession
	}

	b.positions = append(b.positions, f.Position)
	b.payloadBytes += int64(f.PayloadSize)
	for _, name := range gst.Flag(f.Flags).Names() {
		b.fieldCounts[name]++
	}
	if b.cfg.StoreTrace {
		var err error
		b.trace, err = gst.AppendFrame(b.trace, f.PacketIndex, gst.Packet{Flags: gst.Flag(f.Flags), Payload: f.Payload})
		if err != nil {
			return err
		}
	}

	if full := b.frames.Push(convert.CoreToFrameStat(b.session.ID, *f)); full {
		return b.flush()
	}
	return nil
}

// EndSession writes the remaining frame stats and completes the session row.
func (b *Backend) EndSession(summary *core.SessionSummary) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return errNoSession
	}
	flushErr := b.flush()

	row := b.session
	convert.ApplySummary(row, *summary)
	convert.ApplyPath(row, geo.Summarize(b.positions))
	row.FieldCounts = convert.FieldCountsJSON(b.fieldCounts)
	row.PayloadBytes = b.payloadBytes
	if b.cfg.StoreTrace {
		row.TraceSize = len(b.trace)
		row.Trace = compressTrace(b.trace)
	}

	if err := b.db.Save(row).Error; err != nil {
		return errors.Join(flushErr, fmt.Errorf("failed to update session: %w", err))
	}
	b.log.Debug("Session stored", "id", row.ID, "frames", row.Frames, "outcome", row.Outcome)

	b.session = nil
	return flushErr
}

// flush writes all queued frame stats in one transaction. On failure the
// stats are put back so the next flush retries them.
func (b *Backend) flush() error {
	items := b.frames.Drain()
	if len(items) == 0 {
		return nil
	}

	tx := b.db.Begin()
	if err := tx.Create(&items).Error; err != nil {
		tx.Rollback()
		b.frames.Requeue(items)
		b.log.Error("Error creating frame stats", "count", len(items), "error", err)
		return fmt.Errorf("failed to write frame stats: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		b.frames.Requeue(items)
		return fmt.Errorf("failed to commit frame stats: %w", err)
	}
	return nil
}

// Sessions returns the most recent sessions, newest first.
func (b *Backend) Sessions(limit int) ([]model.Session, error) {
	var rows []model.Session
	err := b.db.Omit("trace").Order("id desc").Limit(limit).Find(&rows).Error
	return rows, err
}

// Trace returns the decompressed GST file stored for session id.
func (b *Backend) Trace(id uint) ([]byte, error) {
	var row model.Session
	if err := b.db.Select("id", "trace").First(&row, id).Error; err != nil {
		return nil, err
	}
	if row.Trace == nil {
		return nil, fmt.Errorf("session %d has no stored trace", id)
	}
	return DecompressTrace(row.Trace)
}

var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	decoderOnce sync.Once
	decoder     *zstd.Decoder
)

func compressTrace(raw []byte) []byte {
	encoderOnce.Do(func() {
		encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	})
	return encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2))
}

// DecompressTrace reverses the compression applied to stored traces.
func DecompressTrace(b []byte) ([]byte, error) {
	decoderOnce.Do(func() {
		decoder, _ = zstd.NewReader(nil)
	})
	return decoder.DecodeAll(b, nil)
}
