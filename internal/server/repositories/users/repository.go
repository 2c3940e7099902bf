// Package users stores server accounts: username, salt and verifier.
package users

import (
	"context"

	"github.com/dmitrijs2005/tipsync/internal/server/models"
)

type Repository interface {
	// Create stores user and fills in its id. A taken username is a
	// KindValidation error.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByLogin returns common.ErrorNotFound for an unknown username.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
