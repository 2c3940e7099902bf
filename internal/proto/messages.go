package proto

import (
	"encoding/base64"
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// Document is a flat field map stored under (collection, id).
type Document struct {
	ID     string
	Fields map[string]any
}

// DocumentKey addresses a single document.
type DocumentKey struct {
	Collection string
	ID         string
}

type PutDocumentRequest struct {
	Collection string
	ID         string
	Fields     map[string]any
}

// QueryRequest selects documents of a collection. FilterField is optional;
// when set, only documents whose field equals FilterValue are returned.
type QueryRequest struct {
	Collection  string
	FilterField string
	FilterValue string
	OrderBy     string
	Descending  bool
	Limit       int
}

// Credentials carry a username, a salt (register only) and the verifier
// derived from the master key. The password itself never leaves the client.
type Credentials struct {
	Username string
	Salt     []byte
	Verifier []byte
}

type Tokens struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

type PresignRequest struct {
	TipID       string
	ContentType string
	Extension   string
}

type PresignResponse struct {
	Key    string
	PutURL string
	GetURL string
}

var ErrMalformed = errors.New("malformed message")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

func str(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func requireStr(s *structpb.Struct, key string) (string, error) {
	v := str(s, key)
	if v == "" {
		return "", malformed("%s is required", key)
	}
	return v, nil
}

func bytesField(s *structpb.Struct, key string) ([]byte, error) {
	v := str(s, key)
	if v == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, malformed("%s is not base64: %v", key, err)
	}
	return b, nil
}

func encodeBytes(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func (k *DocumentKey) Marshal() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"collection": k.Collection,
		"id":         k.ID,
	})
}

func UnmarshalDocumentKey(s *structpb.Struct) (*DocumentKey, error) {
	c, err := requireStr(s, "collection")
	if err != nil {
		return nil, err
	}
	id, err := requireStr(s, "id")
	if err != nil {
		return nil, err
	}
	return &DocumentKey{Collection: c, ID: id}, nil
}

func (r *PutDocumentRequest) Marshal() (*structpb.Struct, error) {
	fields := r.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return structpb.NewStruct(map[string]any{
		"collection": r.Collection,
		"id":         r.ID,
		"fields":     fields,
	})
}

func UnmarshalPutDocumentRequest(s *structpb.Struct) (*PutDocumentRequest, error) {
	key, err := UnmarshalDocumentKey(s)
	if err != nil {
		return nil, err
	}
	fields := s.GetFields()["fields"].GetStructValue().AsMap()
	return &PutDocumentRequest{Collection: key.Collection, ID: key.ID, Fields: fields}, nil
}

func (d *Document) Marshal() (*structpb.Struct, error) {
	fields := d.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return structpb.NewStruct(map[string]any{
		"id":     d.ID,
		"fields": fields,
	})
}

func UnmarshalDocument(s *structpb.Struct) (*Document, error) {
	id, err := requireStr(s, "id")
	if err != nil {
		return nil, err
	}
	return &Document{ID: id, Fields: s.GetFields()["fields"].GetStructValue().AsMap()}, nil
}

// MarshalDocuments encodes a query result as a list of document structs.
func MarshalDocuments(docs []*Document) (*structpb.ListValue, error) {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(docs))}
	for _, d := range docs {
		s, err := d.Marshal()
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", d.ID, err)
		}
		list.Values = append(list.Values, structpb.NewStructValue(s))
	}
	return list, nil
}

func UnmarshalDocuments(l *structpb.ListValue) ([]*Document, error) {
	docs := make([]*Document, 0, len(l.GetValues()))
	for i, v := range l.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, malformed("item %d is not a document", i)
		}
		d, err := UnmarshalDocument(s)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (q *QueryRequest) Marshal() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"collection":  q.Collection,
		"filterField": q.FilterField,
		"filterValue": q.FilterValue,
		"orderBy":     q.OrderBy,
		"descending":  q.Descending,
		"limit":       q.Limit,
	})
}

func UnmarshalQueryRequest(s *structpb.Struct) (*QueryRequest, error) {
	c, err := requireStr(s, "collection")
	if err != nil {
		return nil, err
	}
	f := s.GetFields()
	return &QueryRequest{
		Collection:  c,
		FilterField: str(s, "filterField"),
		FilterValue: str(s, "filterValue"),
		OrderBy:     str(s, "orderBy"),
		Descending:  f["descending"].GetBoolValue(),
		Limit:       int(f["limit"].GetNumberValue()),
	}, nil
}

func (c *Credentials) Marshal() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"username": c.Username,
		"salt":     encodeBytes(c.Salt),
		"verifier": encodeBytes(c.Verifier),
	})
}

func UnmarshalCredentials(s *structpb.Struct) (*Credentials, error) {
	u, err := requireStr(s, "username")
	if err != nil {
		return nil, err
	}
	salt, err := bytesField(s, "salt")
	if err != nil {
		return nil, err
	}
	verifier, err := bytesField(s, "verifier")
	if err != nil {
		return nil, err
	}
	if len(verifier) == 0 {
		return nil, malformed("verifier is required")
	}
	return &Credentials{Username: u, Salt: salt, Verifier: verifier}, nil
}

func (t *Tokens) Marshal() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"userId":       t.UserID,
		"accessToken":  t.AccessToken,
		"refreshToken": t.RefreshToken,
	})
}

func UnmarshalTokens(s *structpb.Struct) (*Tokens, error) {
	at, err := requireStr(s, "accessToken")
	if err != nil {
		return nil, err
	}
	return &Tokens{
		UserID:       str(s, "userId"),
		AccessToken:  at,
		RefreshToken: str(s, "refreshToken"),
	}, nil
}

func (p *PresignRequest) Marshal() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"tipId":       p.TipID,
		"contentType": p.ContentType,
		"extension":   p.Extension,
	})
}

func UnmarshalPresignRequest(s *structpb.Struct) (*PresignRequest, error) {
	id, err := requireStr(s, "tipId")
	if err != nil {
		return nil, err
	}
	return &PresignRequest{
		TipID:       id,
		ContentType: str(s, "contentType"),
		Extension:   str(s, "extension"),
	}, nil
}

func (p *PresignResponse) Marshal() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"key":    p.Key,
		"putUrl": p.PutURL,
		"getUrl": p.GetURL,
	})
}

func UnmarshalPresignResponse(s *structpb.Struct) (*PresignResponse, error) {
	put, err := requireStr(s, "putUrl")
	if err != nil {
		return nil, err
	}
	return &PresignResponse{Key: str(s, "key"), PutURL: put, GetURL: str(s, "getUrl")}, nil
}
