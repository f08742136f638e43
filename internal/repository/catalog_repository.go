package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"tuition/internal/model"
	"tuition/internal/storage"
)

// CoursesKey is the store key of the course catalog snapshot.
const CoursesKey = "courses"

// CatalogRepository persists the whole course catalog as one snapshot.
type CatalogRepository interface {
	// Load returns found=false when no snapshot has been written yet.
	Load(ctx context.Context) (catalog model.Catalog, found bool, err error)
	Save(ctx context.Context, catalog model.Catalog) error
}

type catalogRepository struct {
	store storage.Store
}

// NewCatalogRepository builds a snapshot-backed catalog repository.
func NewCatalogRepository(store storage.Store) CatalogRepository {
	return &catalogRepository{store: store}
}

func (r *catalogRepository) Load(ctx context.Context) (model.Catalog, bool, error) {
	data, err := r.store.Get(ctx, CoursesKey)
	if err != nil {
		return nil, false, fmt.Errorf("load courses: %w", err)
	}
	if data == nil {
		return nil, false, nil
	}

	var catalog model.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, false, fmt.Errorf("decode courses: %w", err)
	}
	return catalog.Clone(), true, nil
}

func (r *catalogRepository) Save(ctx context.Context, catalog model.Catalog) error {
	payload, err := json.Marshal(catalog.Clone())
	if err != nil {
		return fmt.Errorf("encode courses: %w", err)
	}
	return r.store.Set(ctx, CoursesKey, payload)
}
