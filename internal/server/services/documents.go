package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/dmitrijs2005/tipsync/internal/logging"
	"github.com/dmitrijs2005/tipsync/internal/server/models"
	"github.com/dmitrijs2005/tipsync/internal/server/repositories/repomanager"
)

type documentKey struct {
	Collection string `validate:"required,max=64,alphanum"`
	ID         string `validate:"required,max=128,printascii"`
}

// DocumentService stores documents on behalf of an authenticated user.
// Reads see every document; writes and deletes are limited to the owner,
// and a users document can only be written under the caller's own id.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	maxResults  int
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager, maxResults int, l logging.Logger) *DocumentService {
	return &DocumentService{db: db, repomanager: m, maxResults: maxResults, logger: l.With("service", "documents")}
}

func (s *DocumentService) Put(ctx context.Context, userID, collection, id string, fields map[string]any) error {
	if err := validateInput("documents.put", documentKey{Collection: collection, ID: id}); err != nil {
		return err
	}
	if collection == common.CollectionUsers && id != userID {
		return common.ErrNotOwner
	}
	if fields == nil {
		fields = map[string]any{}
	}

	err := s.repomanager.Documents(s.db).Put(ctx, &models.Document{
		Collection: collection,
		ID:         id,
		OwnerID:    userID,
		Fields:     fields,
	})
	if err != nil {
		return err
	}
	s.logger.Debug(ctx, "document stored", "collection", collection, "id", id, "user_id", userID)
	return nil
}

func (s *DocumentService) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	if err := validateInput("documents.get", documentKey{Collection: collection, ID: id}); err != nil {
		return nil, err
	}
	return s.repomanager.Documents(s.db).Get(ctx, collection, id)
}

// Query runs q with its limit clamped to the configured maximum.
func (s *DocumentService) Query(ctx context.Context, q models.DocumentQuery) ([]*models.Document, error) {
	if err := validate.Var(q.Collection, "required,max=64,alphanum"); err != nil {
		return nil, common.New(common.KindValidation, "documents.query", "invalid collection")
	}
	if s.maxResults > 0 && (q.Limit <= 0 || q.Limit > s.maxResults) {
		q.Limit = s.maxResults
	}
	return s.repomanager.Documents(s.db).Query(ctx, q)
}

func (s *DocumentService) Delete(ctx context.Context, userID, collection, id string) error {
	if err := validateInput("documents.delete", documentKey{Collection: collection, ID: id}); err != nil {
		return err
	}
	if err := s.repomanager.Documents(s.db).Delete(ctx, collection, id, userID); err != nil {
		return err
	}
	s.logger.Debug(ctx, "document deleted", "collection", collection, "id", id, "user_id", userID)
	return nil
}
