// Package capture follows the game-side recorder through one session and
// writes every game frame as a framed GST packet.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/galaxygst/galaxygst/internal/gst"
	"github.com/galaxygst/galaxygst/internal/recorderinfo"
	"github.com/galaxygst/galaxygst/internal/remote"
	"github.com/galaxygst/galaxygst/internal/session"
	"github.com/galaxygst/galaxygst/internal/storage"
	"github.com/galaxygst/galaxygst/pkg/core"
)

// Config controls one capture run.
type Config struct {
	OutputDir      string
	PointerAddress uint32
	Profile        gst.Profile
	PositionFloat  bool

	HookupInterval  time.Duration
	PointerInterval time.Duration
	ModeInterval    time.Duration
}

// DefaultConfig returns the polling cadence the game patch is tuned for.
func DefaultConfig() Config {
	return Config{
		OutputDir:       ".",
		PointerAddress:  recorderinfo.DefaultPointerAddress,
		Profile:         gst.DefaultProfile,
		HookupInterval:  500 * time.Millisecond,
		PointerInterval: 250 * time.Millisecond,
		ModeInterval:    50 * time.Millisecond,
	}
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithStorage reports sessions and frames to b.
func WithStorage(b storage.Backend) Option {
	return func(r *Recorder) { r.store = b }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

// WithSessionContext publishes the active session to c.
func WithSessionContext(c *session.Context) Option {
	return func(r *Recorder) { r.sessions = c }
}

// Recorder runs capture sessions against a remote reader.
type Recorder struct {
	cfg      Config
	reader   remote.Reader
	store    storage.Backend
	logger   *slog.Logger
	sessions *session.Context
	metrics  *metrics

	// yield is called by the zero-delay busy-waits.
	yield func()
	now   func() time.Time
}

// New creates a Recorder reading through r.
func New(cfg Config, r remote.Reader, opts ...Option) (*Recorder, error) {
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	rec := &Recorder{
		cfg:      cfg,
		reader:   r,
		store:    storage.Nop{},
		logger:   slog.Default(),
		sessions: session.NewContext(),
		metrics:  m,
		yield:    runtime.Gosched,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(rec)
	}
	return rec, nil
}

// Run waits for the game, follows one recording session to its end and
// returns its summary. The summary is never nil. The reader is detached on
// return.
func (r *Recorder) Run(ctx context.Context) (*core.SessionSummary, error) {
	summary := &core.SessionSummary{}
	defer func() {
		if err := r.reader.Detach(); err != nil {
			r.logger.Warn("Failed to detach from emulator", "error", err)
		}
	}()

	err := r.run(ctx, summary)
	summary.Outcome = OutcomeOf(err)
	summary.EndTime = r.now()
	summary.Duration = core.ApproxDuration(summary.Frames)
	if err != nil {
		summary.Error = err.Error()
	}
	r.metrics.sessions.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("outcome", string(summary.Outcome))))
	return summary, err
}

func (r *Recorder) run(ctx context.Context, summary *core.SessionSummary) error {
	info, gameID, err := r.hookup(ctx)
	if err != nil {
		return err
	}
	summary.Session.GameID = gameID
	r.logger.Info("Hooked up to recorder", "gameId", gameID, "address", fmt.Sprintf("0x%08X", info.Address()))

	if err := r.awaitRecording(ctx, info); err != nil {
		return err
	}
	return r.record(ctx, info, summary)
}

// hookup attaches to the emulator and locates the recorder info. Every
// failure is retried until ctx is done.
func (r *Recorder) hookup(ctx context.Context) (*recorderinfo.Info, string, error) {
	var reason string
	waitFor := func(why string, d time.Duration, args ...any) error {
		if why != reason {
			reason = why
			r.logger.Info(why, args...)
		}
		return sleep(ctx, d)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		if !r.reader.IsAttached() {
			if err := r.reader.Attach(); err != nil {
				if err := waitFor("Waiting for emulator", r.cfg.HookupInterval, "error", err); err != nil {
					return nil, "", err
				}
				continue
			}
			r.logger.Debug("Attached to emulator")
		}

		id, err := recorderinfo.ReadGameID(r.reader)
		if err != nil {
			_ = r.reader.Detach()
			if err := waitFor("Lost emulator, reattaching", r.cfg.HookupInterval, "error", err); err != nil {
				return nil, "", err
			}
			continue
		}
		if !recorderinfo.ValidGameID(id) {
			why := "Waiting for game to boot"
			if id != recorderinfo.NoGame {
				why = "Unsupported game running"
			}
			if err := waitFor(why, r.cfg.HookupInterval, "gameId", fmt.Sprintf("%q", id)); err != nil {
				return nil, "", err
			}
			continue
		}

		info, err := recorderinfo.Locate(r.reader, r.cfg.PointerAddress)
		if err != nil {
			if err := waitFor("Waiting for recorder info", r.cfg.PointerInterval, "error", err); err != nil {
				return nil, "", err
			}
			continue
		}
		return info, id, nil
	}
}

// awaitRecording polls the recorder mode until RECORDING.
func (r *Recorder) awaitRecording(ctx context.Context, info *recorderinfo.Info) error {
	last := core.RecorderMode(^uint32(0))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		mode, err := info.Mode()
		if err != nil {
			return fmt.Errorf("reading recorder mode: %w", err)
		}
		if mode != last {
			r.logger.Debug("Recorder mode", "mode", mode.String())
			last = mode
		}

		switch mode {
		case core.RecorderModeWaiting:
			if err := sleep(ctx, r.cfg.ModeInterval); err != nil {
				return err
			}
		case core.RecorderModePreparing:
			r.yield()
		case core.RecorderModeRecording:
			return nil
		case core.RecorderModeStopped:
			return ErrAbortedBeforeStart
		default:
			return fmt.Errorf("unexpected recorder mode %s", mode)
		}
	}
}

// record captures frames until the recorder leaves RECORDING.
func (r *Recorder) record(ctx context.Context, info *recorderinfo.Info, summary *core.SessionSummary) error {
	sess := &summary.Session
	sess.Format = r.cfg.Profile.Name
	sess.StartTime = r.now()

	var err error
	if sess.StageName, err = info.StageName(); err != nil {
		return fmt.Errorf("reading stage name: %w", err)
	}
	if sess.DataIndex, err = info.DataIndex(); err != nil {
		return fmt.Errorf("reading data index: %w", err)
	}
	if sess.GhostType, err = info.DataType(); err != nil {
		return fmt.Errorf("reading data type: %w", err)
	}
	if !sess.GhostType.Valid() {
		return ErrInvalidGhostType
	}

	name, err := sess.GhostType.FileName(sess.StageName, sess.DataIndex)
	if err != nil {
		return err
	}
	dir := filepath.Join(r.cfg.OutputDir, sess.StageName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output folder: %w", err)
	}
	sess.OutputPath = filepath.Join(dir, name)
	f, err := os.Create(sess.OutputPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	r.sessions.Begin(sess)
	defer r.sessions.End()
	if err := r.store.StartSession(sess); err != nil {
		r.logger.Error("Storage failed to start session", "error", err)
	}
	r.logger.Info("Recording started",
		"stage", sess.StageName,
		"ghostType", sess.GhostType.String(),
		"index", sess.DataIndex,
		"path", sess.OutputPath)

	err = r.captureFrames(ctx, info, f, summary)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("closing output file: %w", cerr)
	}

	if serr := r.store.EndSession(&core.SessionSummary{
		Session:  *sess,
		Frames:   summary.Frames,
		Duration: core.ApproxDuration(summary.Frames),
		Outcome:  OutcomeOf(err),
		Error:    errString(err),
		EndTime:  r.now(),
	}); serr != nil {
		r.logger.Error("Storage failed to end session", "error", serr)
	}
	return err
}

func (r *Recorder) captureFrames(ctx context.Context, info *recorderinfo.Info, f *os.File, summary *core.SessionSummary) error {
	enc := gst.NewEncoder(r.cfg.Profile, summary.Session.GhostType)
	w := gst.NewWriter(f)
	opts := recorderinfo.SnapshotOptions{Profile: r.cfg.Profile, PositionFloat: r.cfg.PositionFloat}

	entry, err := info.UpdateFrame()
	if err != nil {
		return fmt.Errorf("reading update frame: %w", err)
	}
	// The frame current at entry may already be half over; start on the next tick.
	next := entry + 1

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		counter, err := info.UpdateFrame()
		if err != nil {
			return fmt.Errorf("reading update frame: %w", err)
		}
		if counter == next-1 {
			r.metrics.stalePolls.Add(ctx, 1)
			r.yield()
			continue
		}
		if counter != next {
			return &SyncError{Expected: next, Got: counter}
		}

		mode, err := info.Mode()
		if err != nil {
			return fmt.Errorf("reading recorder mode: %w", err)
		}
		if mode != core.RecorderModeRecording {
			r.logger.Info("Recording stopped", "mode", mode.String(), "frames", summary.Frames)
			return nil
		}

		snap, err := info.ReadSnapshot(summary.Session.GhostType, opts)
		if err != nil {
			return fmt.Errorf("frame %d: %w", counter, err)
		}
		pkt := enc.Encode(&snap)
		if r.logger.Enabled(ctx, slog.LevelDebug) {
			r.compareGameFlags(info, counter, pkt.Flags)
		}
		if err := w.WritePacket(pkt); err != nil {
			return fmt.Errorf("frame %d: %w", counter, err)
		}

		rec := &core.FrameRecord{
			PacketIndex: summary.Frames,
			UpdateFrame: counter,
			Flags:       uint16(pkt.Flags),
			PayloadSize: len(pkt.Payload),
			Position:    snap.PositionFloat,
			Payload:     pkt.Payload,
		}
		summary.Frames++
		r.sessions.SetFrames(summary.Frames)
		r.metrics.frames.Add(ctx, 1)
		r.metrics.packetBytes.Record(ctx, int64(gst.FrameHeaderSize+len(pkt.Payload)))
		if err := r.store.RecordFrame(rec); err != nil {
			r.logger.Warn("Storage failed to record frame", "frame", counter, "error", err)
		}

		next = counter + 1
	}
}

// compareGameFlags logs when the mask the game keeps for a frame differs
// from the one the encoder computed.
func (r *Recorder) compareGameFlags(info *recorderinfo.Info, frame uint32, ours gst.Flag) {
	raw, err := info.PacketFlags()
	if err != nil {
		r.logger.Debug("Failed to read game packet flags", "frame", frame, "error", err)
		return
	}
	if game := gst.Flag(raw); game != ours {
		r.logger.Debug("Game packet flags differ", "frame", frame, "game", game.String(), "encoder", ours.String())
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
