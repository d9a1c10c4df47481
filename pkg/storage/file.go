package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mangashelf/pkg/models"
)

const lockRetry = 10 * time.Millisecond

// FileStore keeps the collection in a single file. Writes go to a temp file
// that is renamed over the target, so readers never see a half-written file.
// A sibling ".lock" file serialises writers across processes.
type FileStore struct {
	Path   string
	codec  Codec
	logger zerolog.Logger
}

func NewFileStore(path string, logger zerolog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store: path required")
	}
	codec, err := CodecFor(path)
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return &FileStore{
		Path:   path,
		codec:  codec,
		logger: logger.With().Str("store", "file").Str("path", path).Logger(),
	}, nil
}

func (s *FileStore) lockPath() string { return s.Path + ".lock" }

func (s *FileStore) LoadAll(ctx context.Context) ([]models.Manga, error) {
	if err := ctx.Err(); err != nil {
		return nil, loadErr(err)
	}

	if _, err := os.Stat(s.Path); errors.Is(err, fs.ErrNotExist) {
		return make([]models.Manga, 0), nil
	}

	lock := flock.New(s.lockPath())
	ok, err := lock.TryRLockContext(ctx, lockRetry)
	if err != nil || !ok {
		return nil, loadErr(fmt.Errorf("acquire read lock: %w", lockFailure(err)))
	}
	defer lock.Unlock()

	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make([]models.Manga, 0), nil
		}
		return nil, loadErr(fmt.Errorf("read %s: %w", s.Path, err))
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return make([]models.Manga, 0), nil
	}

	var out []models.Manga
	if err := s.codec.Unmarshal(b, &out); err != nil {
		return nil, loadErr(fmt.Errorf("decode %s: %w", s.codec.Name(), err))
	}
	return emptyIfNil(out), nil
}

func (s *FileStore) SaveAll(ctx context.Context, mangas []models.Manga) error {
	if err := ctx.Err(); err != nil {
		return saveErr(err)
	}

	b, err := s.codec.Marshal(emptyIfNil(mangas))
	if err != nil {
		return saveErr(fmt.Errorf("encode %s: %w", s.codec.Name(), err))
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return saveErr(fmt.Errorf("ensure data dir: %w", err))
	}

	lock := flock.New(s.lockPath())
	ok, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil || !ok {
		return saveErr(fmt.Errorf("acquire write lock: %w", lockFailure(err)))
	}
	defer lock.Unlock()

	tmp := filepath.Join(dir, "."+filepath.Base(s.Path)+".tmp-"+uuid.NewString())
	if err := writeFileSync(tmp, b); err != nil {
		_ = os.Remove(tmp)
		return saveErr(fmt.Errorf("write temp file: %w", err))
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		_ = os.Remove(tmp)
		return saveErr(fmt.Errorf("replace %s: %w", s.Path, err))
	}

	s.logger.Debug().Int("count", len(mangas)).Msg("collection saved")
	return nil
}

func writeFileSync(path string, b []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func lockFailure(err error) error {
	if err == nil {
		return errors.New("lock not acquired")
	}
	return err
}
