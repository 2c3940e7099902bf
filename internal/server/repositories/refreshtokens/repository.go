// Package refreshtokens stores the opaque refresh tokens issued at login.
// Two backends exist: Postgres, which can join the rotation transaction,
// and Redis, which expires tokens on its own.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tipsync/internal/server/models"
)

type Repository interface {
	// Create stores token for userID, valid for validity from now.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete is a no-op for an unknown token.
	Delete(ctx context.Context, token string) error
}
