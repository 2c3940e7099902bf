package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/dmitrijs2005/tipsync/internal/dbx"
	"github.com/dmitrijs2005/tipsync/internal/server/models"
)

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Put(ctx context.Context, doc *models.Document) error {
	fields, err := json.Marshal(doc.Fields)
	if err != nil {
		return common.Wrap(common.KindValidation, "documents.put", err)
	}

	query := `
		INSERT INTO documents (collection, id, owner_id, fields, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (collection, id) DO UPDATE
		SET fields = EXCLUDED.fields, updated_at = now()
		WHERE documents.owner_id = EXCLUDED.owner_id
	`
	res, err := r.db.ExecContext(ctx, query, doc.Collection, doc.ID, doc.OwnerID, fields)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotOwner
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	query := `
		SELECT owner_id, fields, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2
	`
	doc := &models.Document{Collection: collection, ID: id}
	var raw []byte
	err := r.db.QueryRowContext(ctx, query, collection, id).Scan(&doc.OwnerID, &raw, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := json.Unmarshal(raw, &doc.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return doc, nil
}

// buildQuery renders q as SQL. Field names become bind parameters; only
// the sort direction is spliced into the text, from a fixed pair.
func buildQuery(q models.DocumentQuery) (string, []any, error) {
	var sb strings.Builder
	args := []any{q.Collection}

	sb.WriteString("SELECT id, owner_id, fields, updated_at FROM documents WHERE collection = $1")

	if q.FilterField != "" {
		if !fieldName.MatchString(q.FilterField) {
			return "", nil, common.New(common.KindValidation, "documents.query", "invalid filter field")
		}
		args = append(args, q.FilterField, q.FilterValue)
		fmt.Fprintf(&sb, " AND fields->>$%d = $%d", len(args)-1, len(args))
	}

	if q.OrderBy != "" {
		if !fieldName.MatchString(q.OrderBy) {
			return "", nil, common.New(common.KindValidation, "documents.query", "invalid order field")
		}
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		args = append(args, q.OrderBy)
		fmt.Fprintf(&sb, " ORDER BY fields->$%d %s, id", len(args), dir)
	} else {
		sb.WriteString(" ORDER BY id")
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	return sb.String(), args, nil
}

func (r *PostgresRepository) Query(ctx context.Context, q models.DocumentQuery) ([]*models.Document, error) {
	query, args, err := buildQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		doc := &models.Document{Collection: q.Collection}
		var raw []byte
		if err := rows.Scan(&doc.ID, &doc.OwnerID, &raw, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if err := json.Unmarshal(raw, &doc.Fields); err != nil {
			return nil, fmt.Errorf("decode fields of %s: %w", doc.ID, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, collection, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2 AND owner_id = $3`,
		collection, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("db error: %w", err)
	} else if n > 0 {
		return nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE collection = $1 AND id = $2)`,
		collection, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if exists {
		return common.ErrNotOwner
	}
	return nil
}
