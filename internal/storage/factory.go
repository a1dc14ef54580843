// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/galaxygst/galaxygst/internal/config"
	"github.com/galaxygst/galaxygst/internal/influx"
	gormstorage "github.com/galaxygst/galaxygst/internal/storage/gorm"
	"github.com/galaxygst/galaxygst/internal/storage/memory"
	"github.com/galaxygst/galaxygst/internal/storage/postgres"
	sqlitestorage "github.com/galaxygst/galaxygst/internal/storage/sqlite"
	"github.com/galaxygst/galaxygst/internal/storage/websocket"
)

// Types lists the accepted values of storage.type.
var Types = []string{"memory", "sqlite", "postgres", "websocket", "none"}

// Options carries the loggers handed to backends.
type Options struct {
	Logger *slog.Logger
	// InfluxLogger is used by the InfluxDB sink.
	InfluxLogger zerolog.Logger
}

// NewBackend creates a storage backend based on configuration. When InfluxDB
// is enabled it is fanned out next to the selected backend. The result is
// not initialized.
func NewBackend(cfg config.StorageConfig, opts Options) (Backend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	catalog := gormstorage.Config{StoreTrace: cfg.StoreTrace, BatchSize: cfg.BatchSize}

	var primary Backend
	switch cfg.Type {
	case "memory", "":
		primary = memory.New(cfg.Memory)
	case "sqlite":
		b, err := sqlitestorage.New(cfg.SQLite, catalog, logger)
		if err != nil {
			return nil, err
		}
		primary = b
	case "postgres":
		primary = postgres.New(postgres.Dependencies{
			Config:  cfg.DB,
			Catalog: catalog,
			Logger:  logger,
		})
	case "websocket":
		primary = websocket.New(websocket.Config{
			URL:    cfg.WebSocket.URL,
			Secret: cfg.WebSocket.Secret,
		}, logger)
	case "none":
		primary = Nop{}
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}

	if !cfg.Influx.Enabled {
		return primary, nil
	}
	return Multi{primary, influx.NewManager(cfg.Influx, opts.InfluxLogger)}, nil
}
