// Package quotes caches fetched quotes in the local database.
package quotes

import (
	"context"

	"github.com/dmitrijs2005/tipsync/internal/client/models"
)

type Repository interface {
	// Insert stores q and sets q.ID.
	Insert(ctx context.Context, q *models.Quote) error

	// Latest returns the most recently fetched quote, or (nil, nil) when the
	// cache is empty.
	Latest(ctx context.Context) (*models.Quote, error)

	// DeleteOlderThan removes quotes fetched before ts (epoch ms) and
	// returns how many were removed.
	DeleteOlderThan(ctx context.Context, ts int64) (int, error)
}
