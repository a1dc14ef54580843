// Package sqlitestorage implements the storage.Backend interface as a GORM
// session catalog in a SQLite file. The driver is pure Go.
package sqlitestorage

import (
	"fmt"
	"log/slog"

	"github.com/galaxygst/galaxygst/internal/config"
	"github.com/galaxygst/galaxygst/internal/database"
	gormstorage "github.com/galaxygst/galaxygst/internal/storage/gorm"
)

// Backend wraps the GORM catalog for a SQLite file it owns.
type Backend struct {
	*gormstorage.Backend
	path string
}

// New opens the SQLite database at cfg.Path.
func New(cfg config.SQLiteConfig, catalog gormstorage.Config, log *slog.Logger) (*Backend, error) {
	db, err := database.OpenSQLite(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB %s: %w", cfg.Path, err)
	}
	if log != nil {
		log.Info("Using local SQLite DB", "path", cfg.Path)
	}
	return &Backend{
		Backend: gormstorage.New(db, catalog, log),
		path:    cfg.Path,
	}, nil
}

// Path returns the database file.
func (b *Backend) Path() string {
	return b.path
}

// ExportedFilePath reports the catalog file so callers can show where
// sessions went.
func (b *Backend) ExportedFilePath() string {
	return b.path
}

// Close flushes the catalog and closes the database.
func (b *Backend) Close() error {
	err := b.Backend.Close()
	if cerr := database.Close(b.DB()); err == nil {
		err = cerr
	}
	return err
}
