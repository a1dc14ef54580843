package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/galaxygst/galaxygst/internal/capture"
	"github.com/galaxygst/galaxygst/internal/config"
	"github.com/galaxygst/galaxygst/internal/dolphin"
	"github.com/galaxygst/galaxygst/internal/gst"
	"github.com/galaxygst/galaxygst/internal/monitor"
	"github.com/galaxygst/galaxygst/internal/recorderinfo"
	"github.com/galaxygst/galaxygst/internal/session"
	"github.com/galaxygst/galaxygst/internal/storage"
	"github.com/galaxygst/galaxygst/internal/util"
	"github.com/galaxygst/galaxygst/pkg/core"
)

// Exit codes.
const (
	exitOK      = 0
	exitUsage   = 1
	exitFailure = 2
)

const usage = `usage:
  galaxygst dolphin [--address 0x80003FF8] [--config dir] [--format v2] <output>
  galaxygst inspect [--format v2] <file.gst>
  galaxygst version
`

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}
	switch args[0] {
	case "dolphin":
		return runDolphin(args[1:], stdout, stderr)
	case "inspect":
		return runInspect(args[1:], stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "%s %s (built %s)\n", appName, Version, BuildDate)
		return exitOK
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return exitUsage
	}
}

func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage of %s:\n", name)
		fs.PrintDefaults()
	}
	return fs
}

func runDolphin(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("dolphin", stderr)
	configDir := fs.String("config", ".", "directory holding "+config.FileName)
	fs.String("address", util.FormatAddress(recorderinfo.DefaultPointerAddress), "address of the recorder info pointer")
	fs.String("format", gst.DefaultProfile.Name, "GST format to write")
	fs.Bool("position-float", false, "write float positions when the format supports them")
	fs.String("storage", "memory", "session catalog backend")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprint(stderr, "expected exactly one output folder\n\n", usage)
		return exitUsage
	}
	outputDir := fs.Arg(0)

	if err := config.Load(*configDir); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	for key, flag := range map[string]string{
		"capture.address":       "address",
		"capture.format":        "format",
		"capture.positionFloat": "position-float",
		"storage.type":          "storage",
	} {
		if err := viper.BindPFlag(key, fs.Lookup(flag)); err != nil {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
	}

	cc, err := config.GetCaptureConfig()
	if err != nil {
		fmt.Fprintf(stderr, "invalid recorder address %q: %v\n", viper.GetString("capture.address"), err)
		return exitUsage
	}
	profile, err := gst.LookupProfile(cc.Format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(stderr, "creating output folder: %v\n", err)
		return exitFailure
	}

	sessions := session.NewContext()
	lg, err := setupLogging(stderr, sessions)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	defer lg.close()
	logger := lg.slog.Logger()
	logger.Info("Starting galaxygst", "version", Version, "buildDate", BuildDate, "format", profile.Name)

	store := openStorage(lg)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close storage", "error", err)
		}
	}()

	rec, err := capture.New(capture.Config{
		OutputDir:       outputDir,
		PointerAddress:  cc.Address,
		Profile:         profile,
		PositionFloat:   cc.PositionFloat,
		HookupInterval:  cc.HookupInterval,
		PointerInterval: cc.PointerInterval,
		ModeInterval:    cc.ModeInterval,
	}, dolphin.New(cc.ProcessNames...),
		capture.WithStorage(store),
		capture.WithLogger(logger),
		capture.WithSessionContext(sessions),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}

	if mc := config.GetMonitorConfig(); mc.Enabled {
		deps := monitor.Dependencies{
			Sessions: sessions,
			Logger:   logger,
			Interval: mc.Interval,
			Dropped:  droppedCounter(store),
		}
		if mc.StatusFile != "" {
			deps.StatusFile = filepath.Join(outputDir, mc.StatusFile)
		}
		mon := monitor.NewService(deps)
		mon.Start()
		defer mon.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(stdout, "Waiting for Super Mario Galaxy 2 in Dolphin (recorder at %s)...\n", util.FormatAddress(cc.Address))
	summary, err := rec.Run(ctx)
	return report(stdout, stderr, summary, store, err)
}

// openStorage builds and initializes the configured backend. A backend
// that cannot start is replaced by one that discards everything.
func openStorage(lg *loggers) storage.Backend {
	logger := lg.slog.Logger()
	sc := config.GetStorageConfig()
	store, err := storage.NewBackend(sc, storage.Options{Logger: logger, InfluxLogger: lg.influx})
	if err == nil {
		err = store.Init()
	}
	if err != nil {
		logger.Error("Storage backend unavailable, continuing without it", "type", sc.Type, "error", err)
		return storage.Nop{}
	}
	logger.Info("Storage backend initialized", "type", sc.Type, "influx", sc.Influx.Enabled)
	return store
}

// droppedCounter finds a backend that counts undelivered frames.
func droppedCounter(store storage.Backend) func() uint64 {
	type dropper interface{ Dropped() uint64 }
	backends := []storage.Backend{store}
	if m, ok := store.(storage.Multi); ok {
		backends = m
	}
	for _, b := range backends {
		if d, ok := b.(dropper); ok {
			return d.Dropped
		}
	}
	return nil
}

func report(stdout, stderr io.Writer, summary *core.SessionSummary, store storage.Backend, err error) int {
	switch summary.Outcome {
	case core.OutcomeCanceled:
		fmt.Fprintln(stdout, "Execution canceled.")
		if summary.Frames > 0 {
			fmt.Fprintf(stdout, "Partial ghost kept at %s (%d frames)\n", summary.Session.OutputPath, summary.Frames)
		}
		return exitOK
	case core.OutcomeStopped:
		fmt.Fprintf(stdout, "Recorded %d frames (%s) to %s\n",
			summary.Frames, summary.Duration.Round(10*time.Millisecond), summary.Session.OutputPath)
		if e, ok := store.(storage.Exporter); ok && e.ExportedFilePath() != "" {
			fmt.Fprintf(stdout, "Session exported to %s\n", e.ExportedFilePath())
		}
		return exitOK
	}

	fmt.Fprintf(stderr, "error: %v\n", err)
	var syncErr *capture.SyncError
	if errors.As(err, &syncErr) {
		fmt.Fprintf(stderr, "the emulator skipped frames; %d frames were kept in %s\n", summary.Frames, summary.Session.OutputPath)
	}
	return exitFailure
}
