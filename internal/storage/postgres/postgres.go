// Package postgres implements the storage.Backend interface as a GORM session
// catalog on PostgreSQL.
package postgres

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/galaxygst/galaxygst/internal/config"
	"github.com/galaxygst/galaxygst/internal/database"
	gormstorage "github.com/galaxygst/galaxygst/internal/storage/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	// DB is used as is when set. Otherwise Init connects with Config.
	DB      *gorm.DB
	Config  config.DBConfig
	Catalog gormstorage.Config
	Logger  *slog.Logger
}

// Backend wraps the GORM catalog with the Postgres connection lifecycle.
type Backend struct {
	*gormstorage.Backend
	deps   Dependencies
	ownsDB bool
}

// New creates a new Postgres storage backend. No connection is made until Init.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{deps: deps}
}

// Init connects if needed and migrates the schema.
func (b *Backend) Init() error {
	db := b.deps.DB
	if db == nil {
		b.deps.Logger.Debug("Connecting to Postgres DB", "host", b.deps.Config.Host, "database", b.deps.Config.Database)
		var err error
		db, err = database.OpenPostgres(b.deps.Config)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.ownsDB = true
		b.deps.Logger.Info("Connected to database", "host", b.deps.Config.Host)
	}

	b.Backend = gormstorage.New(db, b.deps.Catalog, b.deps.Logger)
	return b.Backend.Init()
}

// Close flushes the catalog and closes a connection opened by Init.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	err := b.Backend.Close()
	if b.ownsDB {
		if cerr := database.Close(b.DB()); err == nil {
			err = cerr
		}
	}
	return err
}
