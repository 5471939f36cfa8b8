// Package catalog records which image files have been ingested so that unchanged files are
// not re-embedded. Embeddings themselves live in the feature store.
package catalog

import (
	"context"

	"github.com/hyperjump/kagami/internal/models"
)

// Catalog defines ingest record persistence operations.
type Catalog interface {
	Upsert(ctx context.Context, rec *models.ImageRecord) error
	// Get returns nil, nil when no record exists.
	Get(ctx context.Context, id string) (*models.ImageRecord, error)
	GetByPath(ctx context.Context, imagePath string) (*models.ImageRecord, error)
	GetByStem(ctx context.Context, stem string) (*models.ImageRecord, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*models.ImageRecord, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}
