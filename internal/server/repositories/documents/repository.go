// Package documents persists schemaless documents keyed by (collection, id).
// Each row remembers the user that first wrote it; only that user may
// overwrite or delete it.
package documents

import (
	"context"

	"github.com/dmitrijs2005/tipsync/internal/server/models"
)

type Repository interface {
	// Put inserts or replaces the document. Replacing a row owned by a
	// different user fails with common.ErrNotOwner.
	Put(ctx context.Context, doc *models.Document) error
	// Get returns common.ErrorNotFound when the document is absent.
	Get(ctx context.Context, collection, id string) (*models.Document, error)
	Query(ctx context.Context, q models.DocumentQuery) ([]*models.Document, error)
	// Delete removes the document if ownerID owns it. A missing document
	// is not an error.
	Delete(ctx context.Context, collection, id, ownerID string) error
}
