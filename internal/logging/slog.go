package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/galaxygst/galaxygst/internal/session"
)

// Options selects the outputs of a SlogManager. Nil writers are skipped.
type Options struct {
	Level string
	// ConsoleLevel overrides Level for Console only. Empty keeps Level.
	ConsoleLevel string
	// Console receives human readable output, usually os.Stderr.
	Console io.Writer
	// File receives the same text output, usually a RotatingFile.
	File io.Writer
	// GELF receives JSON records, usually a Graylog writer.
	GELF io.Writer
	// Provider enables the OTel log bridge.
	Provider *sdklog.LoggerProvider
	// Sessions adds a "session" group to records logged during a capture.
	Sessions *session.Context
}

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger *slog.Logger

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
	closers     []io.Closer
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system with the given outputs. Calling it
// again replaces the previous logger.
func (m *SlogManager) Setup(opts Options) {
	lvl := parseLevel(opts.Level)
	consoleLvl := lvl
	if opts.ConsoleLevel != "" {
		consoleLvl = parseLevel(opts.ConsoleLevel)
	}
	m.logProvider = opts.Provider

	var sinks fanout
	if opts.Console != nil {
		sinks = append(sinks, slog.NewTextHandler(opts.Console, textOptions(consoleLvl)))
	}
	if opts.File != nil {
		sinks = append(sinks, slog.NewTextHandler(opts.File, textOptions(lvl)))
	}
	if opts.GELF != nil {
		sinks = append(sinks, slog.NewJSONHandler(opts.GELF, &slog.HandlerOptions{Level: lvl}))
	}
	if opts.Provider != nil {
		sinks = append(sinks, otelslog.NewHandler("galaxygst", otelslog.WithLoggerProvider(opts.Provider)))
	}

	var h slog.Handler = sinks
	if opts.Sessions != nil {
		h = &sessionHandler{next: h, sessions: opts.Sessions}
	}

	m.logger = slog.New(h)
	m.logger.Debug("Logging initialized", "level", lvl.String(), "consoleLevel", consoleLvl.String())
}

// textOptions renders top-level times as RFC3339 UTC.
func textOptions(lvl slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
}

// fanout delivers each record to every sink enabled for its level. Every
// sink is tried; their errors are joined.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// sessionHandler tags records with the stage, ghost type and frame count of
// the capture in progress. Records logged outside a session pass unchanged.
type sessionHandler struct {
	next     slog.Handler
	sessions *session.Context
}

func (h *sessionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *sessionHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := h.sessions.LogAttrs(); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(slog.Attr{Key: "session", Value: slog.GroupValue(attrs...)})
	}
	return h.next.Handle(ctx, r)
}

func (h *sessionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sessionHandler{next: h.next.WithAttrs(attrs), sessions: h.sessions}
}

func (h *sessionHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &sessionHandler{next: h.next.WithGroup(name), sessions: h.sessions}
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Own registers c to be closed by Close.
func (m *SlogManager) Own(c io.Closer) {
	if c != nil {
		m.closers = append(m.closers, c)
	}
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// Close flushes pending logs and closes every owned output.
func (m *SlogManager) Close(ctx context.Context) error {
	errs := []error{m.Flush(ctx)}
	for _, c := range m.closers {
		errs = append(errs, c.Close())
	}
	m.closers = nil
	return errors.Join(errs...)
}

// RotatingFile returns a size-rotated log file writer at path.
func RotatingFile(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
	}
}

// GraylogWriter connects a GELF UDP writer to addr.
func GraylogWriter(addr string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to graylog at %s: %w", addr, err)
	}
	return w, nil
}
