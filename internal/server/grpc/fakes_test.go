package grpc

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/dmitrijs2005/tipsync/internal/server/models"
	"github.com/dmitrijs2005/tipsync/internal/server/services"
)

type fakeUsers struct {
	salt      []byte
	pair      *services.TokenPair
	err       error
	lastLogin string
}

func (f *fakeUsers) Register(_ context.Context, username string, _, _ []byte) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: "uid-" + username, UserName: username}, nil
}

func (f *fakeUsers) GetSalt(context.Context, string) ([]byte, error) { return f.salt, f.err }

func (f *fakeUsers) Login(_ context.Context, username string, _ []byte) (*services.TokenPair, error) {
	f.lastLogin = username
	if f.err != nil {
		return nil, f.err
	}
	return f.pair, nil
}

func (f *fakeUsers) RefreshToken(context.Context, string) (*services.TokenPair, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pair, nil
}

type fakeDocuments struct {
	mu   sync.Mutex
	docs map[string]*models.Document
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{docs: map[string]*models.Document{}}
}

func (f *fakeDocuments) Put(_ context.Context, userID, collection, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.docs[collection+"/"+id]; ok && d.OwnerID != userID {
		return common.ErrNotOwner
	}
	f.docs[collection+"/"+id] = &models.Document{Collection: collection, ID: id, OwnerID: userID, Fields: fields}
	return nil
}

func (f *fakeDocuments) Get(_ context.Context, collection, id string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[collection+"/"+id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return d, nil
}

func (f *fakeDocuments) Query(_ context.Context, q models.DocumentQuery) ([]*models.Document, error) {
	if q.Collection == "" {
		return nil, common.New(common.KindValidation, "documents.query", "invalid collection")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Document
	for _, d := range f.docs {
		if d.Collection == q.Collection {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocuments) Delete(_ context.Context, userID, collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[collection+"/"+id]
	if !ok {
		return nil
	}
	if d.OwnerID != userID {
		return common.ErrNotOwner
	}
	delete(f.docs, collection+"/"+id)
	return nil
}

type fakeImages struct {
	lastUser string
}

func (f *fakeImages) PresignUpload(_ context.Context, userID, tipID, _, ext string) (*services.ImageUpload, error) {
	f.lastUser = userID
	key := services.ImageKey(tipID, ext)
	return &services.ImageUpload{Key: key, PutURL: "http://s3/put/" + key, GetURL: "http://s3/get/" + key}, nil
}
