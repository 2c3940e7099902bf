package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tipsync/internal/client/models"
	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/dmitrijs2005/tipsync/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Current(ctx context.Context) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, bio, photo_ref, tips_count, last_synced_at
		FROM users LIMIT 1`).
		Scan(&u.ID, &u.Name, &u.Email, &u.Bio, &u.PhotoRef, &u.TipsCount, &u.LastSyncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, common.Wrap(common.KindLocalStorage, "users.current", fmt.Errorf("failed to get current user: %w", err))
	}
	return &u, nil
}

// SaveCurrent deletes any other row so there is at most one current user.
func (r *SQLiteRepository) SaveCurrent(ctx context.Context, u *models.User) error {
	save := func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id <> ?`, u.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, name, email, bio, photo_ref, tips_count, last_synced_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				email = excluded.email,
				bio = excluded.bio,
				photo_ref = excluded.photo_ref,
				tips_count = excluded.tips_count,
				last_synced_at = excluded.last_synced_at`,
			u.ID, u.Name, u.Email, u.Bio, u.PhotoRef, u.TipsCount, u.LastSyncedAt)
		return err
	}

	var err error
	if b, ok := r.db.(dbx.Beginner); ok {
		err = dbx.WithTx(ctx, b, nil, save)
	} else {
		err = save(ctx, r.db)
	}
	if err != nil {
		return common.Wrap(common.KindLocalStorage, "users.saveCurrent", fmt.Errorf("failed to save user %s: %w", u.ID, err))
	}
	return nil
}

func (r *SQLiteRepository) UpdateTipsCount(ctx context.Context, id string, count int) error {
	return r.exec(ctx, "users.updateTipsCount", `UPDATE users SET tips_count = ? WHERE id = ?`, count, id)
}

func (r *SQLiteRepository) UpdateLastSyncedAt(ctx context.Context, id string, at int64) error {
	return r.exec(ctx, "users.updateLastSyncedAt", `UPDATE users SET last_synced_at = ? WHERE id = ?`, at, id)
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return common.Wrap(common.KindLocalStorage, "users.clear", fmt.Errorf("failed to clear users: %w", err))
	}
	return nil
}

func (r *SQLiteRepository) exec(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return common.Wrap(common.KindLocalStorage, op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.Wrap(common.KindLocalStorage, op, err)
	}
	if n == 0 {
		return common.New(common.KindNotFound, op, "user not found")
	}
	return nil
}
