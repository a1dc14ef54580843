package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/galaxygst/galaxygst/internal/config"
	"github.com/galaxygst/galaxygst/internal/logging"
	intOtel "github.com/galaxygst/galaxygst/internal/otel"
	"github.com/galaxygst/galaxygst/internal/session"
)

// loggers bundles every log output of a dolphin run.
type loggers struct {
	slog   *logging.SlogManager
	otel   *intOtel.Provider
	influx zerolog.Logger
	path   string
}

// setupLogging writes to the console and a rotating file under logsDir,
// plus OTel and Graylog when configured. Records carry the active session.
func setupLogging(console io.Writer, sessions *session.Context) (*loggers, error) {
	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating logs folder: %w", err)
	}

	lg := &loggers{slog: logging.NewSlogManager()}
	lg.path = logging.LogFilePath(logsDir, appName, time.Now())
	file := logging.RotatingFile(lg.path)
	lg.slog.Own(file)

	oc := config.GetOTelConfig()
	provider, err := intOtel.New(intOtel.Config{
		Enabled:      oc.Enabled,
		ServiceName:  oc.ServiceName,
		BatchTimeout: oc.BatchTimeout,
		LogWriter:    file,
		Endpoint:     oc.Endpoint,
		Insecure:     oc.Insecure,
	})
	if err != nil {
		lg.slog.Close(context.Background())
		return nil, fmt.Errorf("setting up OTel: %w", err)
	}
	provider.Install()
	lg.otel = provider

	opts := logging.Options{
		Level:        viper.GetString("logLevel"),
		ConsoleLevel: viper.GetString("consoleLogLevel"),
		Console:      console,
		File:         file,
		Provider:     provider.LoggerProvider(),
		Sessions:     sessions,
	}

	var gelfErr error
	if gc := config.GetGraylogConfig(); gc.Enabled {
		w, err := logging.GraylogWriter(gc.Address)
		if err != nil {
			gelfErr = err
		} else {
			opts.GELF = w
			lg.slog.Own(w)
		}
	}

	lg.slog.Setup(opts)
	if gelfErr != nil {
		lg.slog.Logger().Warn("Graylog output disabled", "error", gelfErr)
	}

	lg.influx = zerolog.New(zerolog.ConsoleWriter{Out: file, NoColor: true, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("component", "influx").Logger()
	return lg, nil
}

func (l *loggers) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.otel.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "shutting down OTel: %v\n", err)
	}
	if err := l.slog.Close(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "closing logs: %v\n", err)
	}
}
