package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"mangashelf/pkg/database"
	"mangashelf/pkg/models"
)

// Store reads and writes the whole manga collection as one unit.
type Store interface {
	LoadAll(ctx context.Context) ([]models.Manga, error)
	SaveAll(ctx context.Context, mangas []models.Manga) error
}

const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// StorageError reports a backing store that could not be read or written.
type StorageError struct {
	Op  string // "load" or "save"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func loadErr(err error) error { return &StorageError{Op: "load", Err: err} }
func saveErr(err error) error { return &StorageError{Op: "save", Err: err} }

// Open builds the store selected by kind. For sqlite the returned store owns
// the database handle and must be closed by the caller.
func Open(kind, path string, logger zerolog.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindFile:
		return NewFileStore(path, logger)
	case KindSQLite:
		db, err := database.Open(database.Config{Path: path})
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db migrate: %w", err)
		}
		return NewSQLiteStore(db, logger), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", kind)
	}
}

func emptyIfNil(mangas []models.Manga) []models.Manga {
	if mangas == nil {
		return make([]models.Manga, 0)
	}
	return mangas
}
