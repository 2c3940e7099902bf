package tips

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tipsync/internal/client/models"
	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/dmitrijs2005/tipsync/internal/dbx"
	"github.com/dmitrijs2005/tipsync/internal/timex"
)

const tipColumns = `id, title, description, image_ref, author_id, author_name, author_photo_ref,
	created_at, updated_at, is_synced, is_deleted`

const upsertQuery = `INSERT INTO tips (` + tipColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		image_ref = excluded.image_ref,
		author_id = excluded.author_id,
		author_name = excluded.author_name,
		author_photo_ref = excluded.author_photo_ref,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		is_synced = excluded.is_synced,
		is_deleted = excluded.is_deleted`

// A pulled row never resurrects or overwrites a dirty local row.
const upsertPulledQuery = upsertQuery + `
	WHERE tips.is_synced = 1`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func storageErr(op string, err error) error {
	return common.Wrap(common.KindLocalStorage, op, err)
}

func notFound(op, id string) error {
	return common.New(common.KindNotFound, op, fmt.Sprintf("tip %s not found", id))
}

func (r *SQLiteRepository) Upsert(ctx context.Context, t *models.Tip) error {
	if err := upsert(ctx, r.db, upsertQuery, t); err != nil {
		return storageErr("tips.upsert", fmt.Errorf("failed to upsert tip %s: %w", t.ID, err))
	}
	return nil
}

func (r *SQLiteRepository) ReplaceIfUnchanged(ctx context.Context, t *models.Tip, prevUpdatedAt int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE tips SET
		title = ?, description = ?, image_ref = ?, author_id = ?, author_name = ?, author_photo_ref = ?,
		created_at = ?, updated_at = ?, is_synced = ?, is_deleted = ?
		WHERE id = ? AND updated_at = ?`,
		t.Title, t.Description, t.ImageRef, t.AuthorID, t.AuthorName, t.AuthorPhotoRef,
		t.CreatedAt, t.UpdatedAt, t.IsSynced, t.IsDeleted, t.ID, prevUpdatedAt)
	if err != nil {
		return false, storageErr("tips.replace", fmt.Errorf("failed to replace tip %s: %w", t.ID, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("tips.replace", fmt.Errorf("failed to get rows affected: %w", err))
	}
	return n == 1, nil
}

func upsert(ctx context.Context, db dbx.DBTX, query string, t *models.Tip) error {
	_, err := db.ExecContext(ctx, query,
		t.ID, t.Title, t.Description, t.ImageRef, t.AuthorID, t.AuthorName, t.AuthorPhotoRef,
		t.CreatedAt, t.UpdatedAt, t.IsSynced, t.IsDeleted)
	return err
}

// inTx runs fn in a transaction when the repository is bound to a *sql.DB,
// or directly when it is already bound to a transaction.
func (r *SQLiteRepository) inTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if b, ok := r.db.(dbx.Beginner); ok {
		return dbx.WithTx(ctx, b, nil, fn)
	}
	return fn(ctx, r.db)
}

func (r *SQLiteRepository) UpsertMany(ctx context.Context, tips []*models.Tip) error {
	if len(tips) == 0 {
		return nil
	}
	err := r.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		for _, t := range tips {
			if err := upsert(ctx, tx, upsertQuery, t); err != nil {
				return fmt.Errorf("failed to upsert tip %s: %w", t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return storageErr("tips.upsertMany", err)
	}
	return nil
}

func (r *SQLiteRepository) UpsertPulled(ctx context.Context, tips []*models.Tip) (int, error) {
	written := 0
	err := r.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		written = 0
		for _, t := range tips {
			pulled := t.Clone()
			pulled.IsSynced = true
			pulled.IsDeleted = false

			res, err := tx.ExecContext(ctx, upsertPulledQuery,
				pulled.ID, pulled.Title, pulled.Description, pulled.ImageRef, pulled.AuthorID, pulled.AuthorName,
				pulled.AuthorPhotoRef, pulled.CreatedAt, pulled.UpdatedAt, pulled.IsSynced, pulled.IsDeleted)
			if err != nil {
				return fmt.Errorf("failed to write pulled tip %s: %w", t.ID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			written += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, storageErr("tips.upsertPulled", err)
	}
	return written, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Tip, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tipColumns+` FROM tips WHERE id = ?`, id)
	t, err := scanTip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("tips.get", id)
	}
	if err != nil {
		return nil, storageErr("tips.get", fmt.Errorf("failed to get tip %s: %w", id, err))
	}
	return t, nil
}

func (r *SQLiteRepository) ListActive(ctx context.Context) ([]*models.Tip, error) {
	return r.list(ctx, "tips.listActive",
		`SELECT `+tipColumns+` FROM tips WHERE is_deleted = 0 ORDER BY created_at DESC, id`)
}

func (r *SQLiteRepository) ListActiveByAuthor(ctx context.Context, authorID string) ([]*models.Tip, error) {
	return r.list(ctx, "tips.listActiveByAuthor",
		`SELECT `+tipColumns+` FROM tips WHERE author_id = ? AND is_deleted = 0 ORDER BY created_at DESC, id`, authorID)
}

// ListUnsyncedActive returns dirty, non-deleted tips oldest first so pushes
// replay in creation order.
func (r *SQLiteRepository) ListUnsyncedActive(ctx context.Context) ([]*models.Tip, error) {
	return r.list(ctx, "tips.listUnsyncedActive",
		`SELECT `+tipColumns+` FROM tips WHERE is_synced = 0 AND is_deleted = 0 ORDER BY created_at, id`)
}

func (r *SQLiteRepository) CountActiveByAuthor(ctx context.Context, authorID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tips WHERE author_id = ? AND is_deleted = 0`, authorID).Scan(&n)
	if err != nil {
		return 0, storageErr("tips.countActiveByAuthor", err)
	}
	return n, nil
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id string) error {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE tips SET is_deleted = 1, is_synced = 0, updated_at = ? WHERE id = ?`,
		timex.NextMillis(t.UpdatedAt), id)
	if err != nil {
		return storageErr("tips.softDelete", fmt.Errorf("failed to delete tip %s: %w", id, err))
	}
	return nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, updatedAt int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tips SET is_synced = 1 WHERE id = ? AND updated_at = ? AND is_deleted = 0`, id, updatedAt)
	if err != nil {
		return false, storageErr("tips.markSynced", fmt.Errorf("failed to mark tip %s synced: %w", id, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("tips.markSynced", fmt.Errorf("failed to get rows affected: %w", err))
	}
	return n == 1, nil
}

func (r *SQLiteRepository) PurgeSoftDeleted(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tips WHERE is_deleted = 1`)
	if err != nil {
		return 0, storageErr("tips.purge", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("tips.purge", err)
	}
	return int(n), nil
}

func (r *SQLiteRepository) list(ctx context.Context, op, query string, args ...any) ([]*models.Tip, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, fmt.Errorf("failed to select tips: %w", err))
	}
	defer rows.Close()

	result := make([]*models.Tip, 0)
	for rows.Next() {
		t, err := scanTip(rows)
		if err != nil {
			return nil, storageErr(op, fmt.Errorf("failed to scan tip: %w", err))
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, fmt.Errorf("failed to iterate tips: %w", err))
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTip(s scanner) (*models.Tip, error) {
	var t models.Tip
	err := s.Scan(&t.ID, &t.Title, &t.Description, &t.ImageRef, &t.AuthorID, &t.AuthorName,
		&t.AuthorPhotoRef, &t.CreatedAt, &t.UpdatedAt, &t.IsSynced, &t.IsDeleted)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
