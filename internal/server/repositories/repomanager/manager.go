package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tipsync/internal/dbx"
	"github.com/dmitrijs2005/tipsync/internal/server/repositories/documents"
	"github.com/dmitrijs2005/tipsync/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/tipsync/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DB handle, which is either
// the pool or an open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Documents(db dbx.DBTX) documents.Repository
}
