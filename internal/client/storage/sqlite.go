// Package storage opens the client's local SQLite cache and keeps its
// schema current.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/url"

	"github.com/dmitrijs2005/tipsync/internal/client/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// DSN builds a modernc.org/sqlite DSN for a database file. WAL lets readers
// observe a consistent snapshot while a sync pass writes; writers wait on
// each other through busy_timeout instead of failing.
func DSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(ON)")
	q.Add("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// newProvider is a seam for tests.
var newProvider = func(db *sql.DB, fsys fs.FS) (migrator, error) {
	return goose.NewProvider(goose.DialectSQLite3, db, fsys)
}

type migrator interface {
	Up(ctx context.Context) ([]*goose.MigrationResult, error)
}

// RunMigrations applies all embedded migrations that are not yet applied.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	p, err := newProvider(db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Open opens the database at dsn, verifies the connection and migrates it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenInMemory opens a private, migrated in-memory database named name.
// A single connection is used so every caller sees the same database.
func OpenInMemory(ctx context.Context, name string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", url.PathEscape(name))
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
