package manga

import (
	"context"
	"fmt"

	"mangashelf/pkg/models"
	"mangashelf/pkg/storage"
)

// Repo implements record CRUD on top of a whole-collection store. Every
// mutation is a full load, modify, save cycle with no locking, so two
// concurrent writers can lose one another's change.
type Repo struct {
	Store     storage.Store
	Validator *Validator
}

func NewRepo(store storage.Store) *Repo {
	return &Repo{Store: store, Validator: NewValidator()}
}

func (r *Repo) List(ctx context.Context) ([]models.Manga, error) {
	mangas, err := r.Store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return mangas, nil
}

// Create validates payload strictly and appends the new record. The id is
// the collection size plus one, so it can repeat an id freed by a delete.
func (r *Repo) Create(ctx context.Context, payload map[string]any) (*models.Manga, error) {
	patch, err := r.Validator.Validate(payload, Strict)
	if err != nil {
		return nil, err
	}

	mangas, err := r.Store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}

	m := patch.Apply(models.Manga{ID: len(mangas) + 1})
	mangas = append(mangas, m)

	if err := r.Store.SaveAll(ctx, mangas); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	return &m, nil
}

func (r *Repo) GetByID(ctx context.Context, id int) (*models.Manga, error) {
	mangas, err := r.Store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get %d: %w", id, err)
	}

	idx := indexOf(mangas, id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	m := mangas[idx]
	return &m, nil
}

// Update validates payload partially before touching storage, then merges
// it over the stored record in place.
func (r *Repo) Update(ctx context.Context, id int, payload map[string]any) (*models.Manga, error) {
	patch, err := r.Validator.Validate(payload, Partial)
	if err != nil {
		return nil, err
	}

	mangas, err := r.Store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("update %d: %w", id, err)
	}

	idx := indexOf(mangas, id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	merged := patch.Apply(mangas[idx])
	mangas[idx] = merged

	if err := r.Store.SaveAll(ctx, mangas); err != nil {
		return nil, fmt.Errorf("update %d: %w", id, err)
	}
	return &merged, nil
}

func (r *Repo) Delete(ctx context.Context, id int) (*models.Manga, error) {
	mangas, err := r.Store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("delete %d: %w", id, err)
	}

	idx := indexOf(mangas, id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	removed := mangas[idx]
	rest := make([]models.Manga, 0, len(mangas)-1)
	rest = append(rest, mangas[:idx]...)
	rest = append(rest, mangas[idx+1:]...)

	if err := r.Store.SaveAll(ctx, rest); err != nil {
		return nil, fmt.Errorf("delete %d: %w", id, err)
	}
	return &removed, nil
}

// indexOf returns the position of the first record with id, or -1.
func indexOf(mangas []models.Manga, id int) int {
	for i := range mangas {
		if mangas[i].ID == id {
			return i
		}
	}
	return -1
}
