package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/dmitrijs2005/tipsync/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func storageErr(op string, err error) error {
	return common.Wrap(common.KindLocalStorage, op, err)
}

// Get returns (nil, nil) when the key is absent.
func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("metadata.get", fmt.Errorf("failed to get metadata[%s]: %w", key, err))
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return storageErr("metadata.set", fmt.Errorf("failed to set metadata[%s]: %w", key, err))
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return storageErr("metadata.delete", fmt.Errorf("failed to delete metadata[%s]: %w", key, err))
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata`)
	if err != nil {
		return storageErr("metadata.clear", fmt.Errorf("failed to clear metadata: %w", err))
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM metadata`)
	if err != nil {
		return nil, storageErr("metadata.list", fmt.Errorf("failed to list metadata: %w", err))
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, storageErr("metadata.list", fmt.Errorf("failed to scan metadata row: %w", err))
		}
		result[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("metadata.list", fmt.Errorf("failed to iterate metadata rows: %w", err))
	}

	return result, nil
}

// GetString reads key as text. Absent keys yield "".
func GetString(ctx context.Context, r Repository, key string) (string, error) {
	v, err := r.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func SetString(ctx context.Context, r Repository, key, value string) error {
	return r.Set(ctx, key, []byte(value))
}

// GetInt64 reads a decimal integer. Absent keys yield 0.
func GetInt64(ctx context.Context, r Repository, key string) (int64, error) {
	v, err := r.Get(ctx, key)
	if err != nil || v == nil {
		return 0, err
	}
	n, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return 0, common.Wrap(common.KindLocalStorage, "metadata.getInt64", fmt.Errorf("metadata[%s] is not an integer: %w", key, err))
	}
	return n, nil
}

func SetInt64(ctx context.Context, r Repository, key string, value int64) error {
	return r.Set(ctx, key, []byte(strconv.FormatInt(value, 10)))
}
