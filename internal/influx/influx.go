// Package influx writes ghost frames and session results to InfluxDB, falling
// back to a gzip line-protocol file when the server cannot be reached.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/galaxygst/galaxygst/internal/config"
	"github.com/galaxygst/galaxygst/pkg/core"
)

// Measurement names.
const (
	MeasurementFrame   = "ghost_frame"
	MeasurementSession = "ghost_session"
)

const retentionSeconds = 60 * 60 * 24 * 90 // 90 days

// Manager handles InfluxDB connections and writes.
type Manager struct {
	cfg    config.InfluxConfig
	logger zerolog.Logger

	mu         sync.Mutex
	client     influxdb2.Client
	writer     influxdb2_api.WriteAPI
	backupFile *os.File
	backup     *gzip.Writer
	valid      bool
	session    *core.Session
}

// NewManager creates a new InfluxDB manager.
func NewManager(cfg config.InfluxConfig, log zerolog.Logger) *Manager {
	return &Manager{cfg: cfg, logger: log}
}

// Init is Connect with a background context.
func (m *Manager) Init() error {
	return m.Connect(context.Background())
}

// Connect establishes a connection to InfluxDB. If the server does not
// answer, points go to the backup file instead.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.client = influxdb2.NewClientWithOptions(m.cfg.URL, m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	running, err := m.client.Ping(ctx)
	if err != nil || !running {
		m.logger.Info().Err(err).Str("backupPath", m.cfg.BackupPath).
			Msg("Failed to initialize InfluxDB client, writing to backup file")
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.writer = m.client.WriteAPI(m.cfg.Org, m.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			m.logger.Error().Err(writeErr).Str("bucket", m.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}(m.writer.Errors())

	m.valid = true
	m.logger.Info().Str("url", m.cfg.URL).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.backup != nil {
		return nil
	}
	if m.cfg.BackupPath == "" {
		return errors.New("influxdb unreachable and no backup path configured")
	}
	file, err := os.OpenFile(m.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.backup = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgs := m.client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, m.cfg.Org)
	if err != nil {
		m.logger.Info().Str("org", m.cfg.Org).Msg("Organization not found, creating")
		org, err = orgs.CreateOrganizationWithName(ctx, m.cfg.Org)
		if err != nil {
			m.logger.Error().Err(err).Str("org", m.cfg.Org).Msg("Error creating organization")
			return err
		}
	}

	buckets := m.client.BucketsAPI()
	if _, err := buckets.FindBucketByName(ctx, m.cfg.Bucket); err != nil {
		m.logger.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")
		rule := domain.RetentionRuleTypeExpire
		_, err = buckets.CreateBucketWithName(ctx, org, m.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: retentionSeconds,
		})
		if err != nil {
			m.logger.Error().Err(err).Str("bucket", m.cfg.Bucket).Msg("Error creating bucket")
			return err
		}
	}
	return nil
}

// Connected reports whether points go to the server rather than the backup file.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.valid
}

// WritePoint writes a point to InfluxDB or backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid {
		m.writer.WritePoint(point)
		return nil
	}
	if m.backup == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}
	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.backup.Write([]byte(lineProtocol)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// StartSession remembers the tags for the session's points.
func (m *Manager) StartSession(s *core.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.session = &cp
	return nil
}

// RecordFrame writes one frame point.
func (m *Manager) RecordFrame(f *core.FrameRecord) error {
	m.mu.Lock()
	s := m.session
	m.mu.Unlock()
	if s == nil {
		return errors.New("no session started")
	}
	return m.WritePoint(FramePoint(s, f))
}

// EndSession writes the session point.
func (m *Manager) EndSession(summary *core.SessionSummary) error {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
	return m.WritePoint(SessionPoint(summary))
}

// Close flushes pending writes and releases the client and backup file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.writer != nil {
		m.writer.Flush()
	}
	if m.client != nil {
		m.client.Close()
	}
	if m.backup != nil {
		errs = append(errs, m.backup.Close(), m.backupFile.Close())
		m.backup = nil
	}
	m.valid = false
	return errors.Join(errs...)
}

// sessionTags adds the session's identifying tags. Line protocol has no
// empty tag values, so unset ones are skipped.
func sessionTags(p *influxdb2_write.Point, s *core.Session) *influxdb2_write.Point {
	tags := [][2]string{
		{"stage", s.StageName},
		{"ghostType", s.GhostType.String()},
		{"dataIndex", strconv.FormatUint(uint64(s.DataIndex), 10)},
		{"gameId", s.GameID},
	}
	for _, kv := range tags {
		if kv[1] != "" {
			p.AddTag(kv[0], kv[1])
		}
	}
	return p
}

// FramePoint builds the point for one frame. Its time is the session start
// plus the frame's offset at 60 frames per second.
func FramePoint(s *core.Session, f *core.FrameRecord) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementFrame).
		SetTime(s.StartTime.Add(core.ApproxDuration(f.PacketIndex)))
	return sessionTags(p, s).
		AddField("packetIndex", int64(f.PacketIndex)).
		AddField("updateFrame", int64(f.UpdateFrame)).
		AddField("flags", int64(f.Flags)).
		AddField("payloadSize", int64(f.PayloadSize)).
		AddField("x", f.Position.X).
		AddField("y", f.Position.Y).
		AddField("z", f.Position.Z)
}

// SessionPoint builds the point describing a finished session.
func SessionPoint(summary *core.SessionSummary) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementSession).
		SetTime(summary.EndTime)
	p = sessionTags(p, &summary.Session).
		AddTag("outcome", string(summary.Outcome)).
		AddField("frames", int64(summary.Frames)).
		AddField("durationSeconds", summary.Duration.Seconds())
	if summary.Error != "" {
		p.AddField("error", summary.Error)
	}
	return p
}
