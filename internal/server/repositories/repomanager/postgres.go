// Package repomanager wires the Postgres repositories together and runs the
// embedded goose migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tipsync/internal/dbx"
	"github.com/dmitrijs2005/tipsync/internal/server/migrations"
	"github.com/dmitrijs2005/tipsync/internal/server/repositories/documents"
	"github.com/dmitrijs2005/tipsync/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/tipsync/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
)

type PostgresRepositoryManager struct {
	tokens refreshtokens.Repository
}

type Option func(*PostgresRepositoryManager)

// WithRedisTokens keeps refresh tokens in Redis instead of Postgres. The
// returned repository ignores the DB handle passed to RefreshTokens.
func WithRedisTokens(rdb redis.Cmdable) Option {
	return func(m *PostgresRepositoryManager) {
		m.tokens = refreshtokens.NewRedisRepository(rdb)
	}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	if m.tokens != nil {
		return m.tokens
	}
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Documents(db dbx.DBTX) documents.Repository {
	return documents.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager(opts ...Option) *PostgresRepositoryManager {
	m := &PostgresRepositoryManager{}
	for _, o := range opts {
		o(m)
	}
	return m
}
