package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"mangashelf/pkg/models"
)

// SQLiteStore keeps the collection in the mangas table. Insertion order is
// the position column; ids are not constrained to be unique because the
// repository assigns them from the collection size.
type SQLiteStore struct {
	DB     *sql.DB
	logger zerolog.Logger
}

func NewSQLiteStore(db *sql.DB, logger zerolog.Logger) *SQLiteStore {
	return &SQLiteStore{
		DB:     db,
		logger: logger.With().Str("store", "sqlite").Logger(),
	}
}

func (s *SQLiteStore) Close() error {
	return s.DB.Close()
}

func (s *SQLiteStore) LoadAll(ctx context.Context) ([]models.Manga, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, title, author, genres, volume_count, publication_date, synopsis, rating, publisher
		FROM mangas
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, loadErr(fmt.Errorf("list query: %w", err))
	}
	defer rows.Close()

	out := make([]models.Manga, 0)
	for rows.Next() {
		var (
			m          models.Manga
			genresJSON string
		)
		if err := rows.Scan(
			&m.ID, &m.Title, &m.Author, &genresJSON, &m.VolumeCount,
			&m.PublicationDate, &m.Synopsis, &m.Rating, &m.Publisher,
		); err != nil {
			return nil, loadErr(fmt.Errorf("list scan: %w", err))
		}
		if err := json.Unmarshal([]byte(genresJSON), &m.Genres); err != nil {
			return nil, loadErr(fmt.Errorf("decode genres for %d: %w", m.ID, err))
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, loadErr(fmt.Errorf("rows err: %w", err))
	}
	return out, nil
}

func (s *SQLiteStore) SaveAll(ctx context.Context, mangas []models.Manga) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return saveErr(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM mangas`); err != nil {
		return saveErr(fmt.Errorf("clear mangas: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mangas (position, id, title, author, genres, volume_count, publication_date, synopsis, rating, publisher)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return saveErr(fmt.Errorf("prepare stmt: %w", err))
	}
	defer stmt.Close()

	for i, m := range mangas {
		genres := m.Genres
		if genres == nil {
			genres = []string{}
		}
		genresJSON, err := json.Marshal(genres)
		if err != nil {
			return saveErr(fmt.Errorf("marshal genres for %d: %w", m.ID, err))
		}

		if _, err := stmt.ExecContext(
			ctx,
			i,
			m.ID,
			m.Title,
			m.Author,
			string(genresJSON),
			m.VolumeCount,
			m.PublicationDate,
			m.Synopsis,
			m.Rating,
			m.Publisher,
		); err != nil {
			return saveErr(fmt.Errorf("exec insert for %d: %w", m.ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return saveErr(fmt.Errorf("commit tx: %w", err))
	}

	s.logger.Debug().Int("count", len(mangas)).Msg("collection saved")
	return nil
}
