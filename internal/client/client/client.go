package client

import (
	"context"
)

// Document is a remote record: an id plus a flat field map. Numbers come
// back as float64 after a round trip through the wire.
type Document struct {
	ID     string
	Fields map[string]any
}

// FieldFilter restricts a query to documents whose field equals Value.
type FieldFilter struct {
	Field string
	Value string
}

type Query struct {
	Collection  string
	FieldEquals *FieldFilter
	OrderBy     string
	Descending  bool
	Limit       int
}

// DocumentStore is the remote side of synchronization.
type DocumentStore interface {
	PutDocument(ctx context.Context, collection, id string, fields map[string]any) error
	// GetDocument returns common.ErrorNotFound for an absent document.
	GetDocument(ctx context.Context, collection, id string) (*Document, error)
	QueryOrdered(ctx context.Context, q Query) ([]*Document, error)
	// DeleteDocument treats an absent document as success.
	DeleteDocument(ctx context.Context, collection, id string) error
}

// ImageUpload is a presigned slot for one image.
type ImageUpload struct {
	Key    string
	PutURL string
	GetURL string
}

type Client interface {
	DocumentStore
	Close() error
	Register(ctx context.Context, username string, salt []byte, verifier []byte) (string, error)
	GetSalt(ctx context.Context, username string) ([]byte, error)
	// Login authenticates with the verifier and returns the user id.
	Login(ctx context.Context, username string, verifier []byte) (string, error)
	Logout()
	Ping(ctx context.Context) error
	PresignImageUpload(ctx context.Context, tipID, contentType, extension string) (*ImageUpload, error)
}
