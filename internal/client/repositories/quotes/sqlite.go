package quotes

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

func storageErr(op string, err error) error {
	return common.Wrap(common.KindLocalStorage, op, err)
}

func (r *SQLiteRepository) Insert(ctx context.Context, q *models.Quote) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO quotes (text, author, category, fetched_at) VALUES (?, ?, ?, ?)`,
		q.Text, q.Author, q.Category, q.FetchedAt)
	if err != nil {
		return storageErr("quotes.insert", fmt.Errorf("failed to insert quote: %w", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storageErr("quotes.insert", fmt.Errorf("failed to get quote id: %w", err))
	}
	q.ID = id
	return nil
}

func (r *SQLiteRepository) Latest(ctx context.Context) (*models.Quote, error) {
	var q models.Quote
	err := r.db.QueryRowContext(ctx, `
		SELECT id, text, author, category, fetched_at
		FROM quotes ORDER BY fetched_at DESC, id DESC LIMIT 1`).
		Scan(&q.ID, &q.Text, &q.Author, &q.Category, &q.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("quotes.latest", fmt.Errorf("failed to get latest quote: %w", err))
	}
	return &q, nil
}

func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, ts int64) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM quotes WHERE fetched_at < ?`, ts)
	if err != nil {
		return 0, storageErr("quotes.deleteOlderThan", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("quotes.deleteOlderThan", err)
	}
	return int(n), nil
}
