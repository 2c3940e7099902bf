package tips

import (
	"context"

	"github.com/dmitrijs2005/tipsync/internal/client/models"
)

// Repository is the local record store.
type Repository interface {
	// Upsert inserts t or fully replaces the row with the same id.
	Upsert(ctx context.Context, t *models.Tip) error

	// ReplaceIfUnchanged overwrites the row with t only if its updated_at is
	// still prevUpdatedAt. It reports whether the row was replaced.
	ReplaceIfUnchanged(ctx context.Context, t *models.Tip, prevUpdatedAt int64) (bool, error)

	// UpsertMany upserts all tips atomically.
	UpsertMany(ctx context.Context, tips []*models.Tip) error

	// UpsertPulled writes remote tips as synced rows, skipping ids whose
	// local row is dirty. It returns how many rows were written.
	UpsertPulled(ctx context.Context, tips []*models.Tip) (int, error)

	// GetByID returns the tip including soft-deleted ones, or a NotFound error.
	GetByID(ctx context.Context, id string) (*models.Tip, error)

	ListActive(ctx context.Context) ([]*models.Tip, error)
	ListActiveByAuthor(ctx context.Context, authorID string) ([]*models.Tip, error)
	ListUnsyncedActive(ctx context.Context) ([]*models.Tip, error)
	CountActiveByAuthor(ctx context.Context, authorID string) (int, error)

	// SoftDelete hides the tip and marks it unsynced.
	SoftDelete(ctx context.Context, id string) error

	// MarkSynced flips is_synced only if the row still has updatedAt.
	// It reports whether the row was updated.
	MarkSynced(ctx context.Context, id string, updatedAt int64) (bool, error)

	// PurgeSoftDeleted hard-deletes soft-deleted rows and returns the count.
	PurgeSoftDeleted(ctx context.Context) (int, error)
}
