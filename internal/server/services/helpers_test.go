package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/dmitrijs2005/tipsync/internal/dbx"
	"github.com/dmitrijs2005/tipsync/internal/server/models"
	"github.com/dmitrijs2005/tipsync/internal/server/repositories/documents"
	"github.com/dmitrijs2005/tipsync/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/tipsync/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	mu     sync.Mutex
	byName map[string]*models.User
	err    error
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.byName[u.UserName]; ok {
		return nil, common.New(common.KindValidation, "users.create", "username already taken")
	}
	u.ID = "uid-" + u.UserName
	f.byName[u.UserName] = u
	return u, nil
}

func (f *fakeUsers) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byName[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeTokens struct {
	mu        sync.Mutex
	tokens    map[string]*models.RefreshToken
	createErr error
	deleteErr error
}

func (f *fakeTokens) Create(_ context.Context, userID, token string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (f *fakeTokens) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeTokens) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.tokens, token)
	return nil
}

type fakeDocs struct {
	mu        sync.Mutex
	docs      map[string]*models.Document
	lastQuery models.DocumentQuery
}

func docKey(collection, id string) string { return collection + "/" + id }

func (f *fakeDocs) Put(_ context.Context, d *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if old, ok := f.docs[docKey(d.Collection, d.ID)]; ok && old.OwnerID != d.OwnerID {
		return common.ErrNotOwner
	}
	f.docs[docKey(d.Collection, d.ID)] = d
	return nil
}

func (f *fakeDocs) Get(_ context.Context, collection, id string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[docKey(collection, id)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return d, nil
}

func (f *fakeDocs) Query(_ context.Context, q models.DocumentQuery) ([]*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	var out []*models.Document
	for _, d := range f.docs {
		if d.Collection != q.Collection {
			continue
		}
		if q.FilterField != "" && d.Fields[q.FilterField] != q.FilterValue {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeDocs) Delete(_ context.Context, collection, id, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[docKey(collection, id)]
	if !ok {
		return nil
	}
	if d.OwnerID != ownerID {
		return common.ErrNotOwner
	}
	delete(f.docs, docKey(collection, id))
	return nil
}

type fakeManager struct {
	users  *fakeUsers
	tokens *fakeTokens
	docs   *fakeDocs
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		users:  &fakeUsers{byName: map[string]*models.User{}},
		tokens: &fakeTokens{tokens: map[string]*models.RefreshToken{}},
		docs:   &fakeDocs{docs: map[string]*models.Document{}},
	}
}

func (m *fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeManager) Users(dbx.DBTX) users.Repository { return m.users }
func (m *fakeManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.tokens }
func (m *fakeManager) Documents(dbx.DBTX) documents.Repository { return m.docs }

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}
