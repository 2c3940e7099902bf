// Package users stores the single current-user profile row of the client.
package users

import (
	"context"

	"github.com/dmitrijs2005/tipsync/internal/client/models"
)

type Repository interface {
	// Current returns the cached profile or nil when nobody is logged in.
	Current(ctx context.Context) (*models.User, error)

	// SaveCurrent replaces the cached profile wholesale.
	SaveCurrent(ctx context.Context, u *models.User) error

	// UpdateTipsCount sets the derived tip counter of user id.
	UpdateTipsCount(ctx context.Context, id string, count int) error

	// UpdateLastSyncedAt records the time of the last completed sync.
	UpdateLastSyncedAt(ctx context.Context, id string, at int64) error

	// Clear removes the cached profile (logout).
	Clear(ctx context.Context) error
}
