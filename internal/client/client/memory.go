package client

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"
)

// Op names a MemoryStore operation for failure hooks.
type Op string

const (
	OpPut    Op = "put"
	OpGet    Op = "get"
	OpQuery  Op = "query"
	OpDelete Op = "delete"
)

// FailureHook may return an error to make a single call fail.
type FailureHook func(op Op, collection, id string) error

type memoryUser struct {
	id       string
	salt     []byte
	verifier []byte
}

// MemoryStore is an in-process Client. Fields are normalized through
// structpb so values look exactly as they would after a gRPC round trip.
type MemoryStore struct {
	mu          sync.RWMutex
	docs        map[string]map[string]map[string]any
	users       map[string]*memoryUser
	unreachable bool
	hook        FailureHook
	calls       map[Op]int
}

var _ Client = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:  make(map[string]map[string]map[string]any),
		users: make(map[string]*memoryUser),
		calls: make(map[Op]int),
	}
}

// SetUnreachable makes every call fail with ErrUnavailable while on is true.
func (m *MemoryStore) SetUnreachable(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unreachable = on
}

func (m *MemoryStore) SetFailureHook(h FailureHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = h
}

// Calls reports how many times op was attempted.
func (m *MemoryStore) Calls(op Op) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// Len reports the number of documents in collection.
func (m *MemoryStore) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs[collection])
}

// check must be called with mu held.
func (m *MemoryStore) check(ctx context.Context, op Op, collection, id string) error {
	if op != "" {
		m.calls[op]++
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.unreachable {
		return ErrUnavailable
	}
	if m.hook != nil && op != "" {
		return m.hook(op, collection, id)
	}
	return nil
}

func normalize(fields map[string]any) (map[string]any, error) {
	if fields == nil {
		return map[string]any{}, nil
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, common.Wrap(common.KindValidation, "memory.normalize", err)
	}
	return s.AsMap(), nil
}

func (m *MemoryStore) PutDocument(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, OpPut, collection, id); err != nil {
		return err
	}
	norm, err := normalize(fields)
	if err != nil {
		return err
	}
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string]map[string]any)
	}
	m.docs[collection][id] = norm
	return nil
}

func (m *MemoryStore) GetDocument(ctx context.Context, collection, id string) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, OpGet, collection, id); err != nil {
		return nil, err
	}
	fields, ok := m.docs[collection][id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &Document{ID: id, Fields: copyFields(fields)}, nil
}

func (m *MemoryStore) QueryOrdered(ctx context.Context, q Query) ([]*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, OpQuery, q.Collection, ""); err != nil {
		return nil, err
	}

	out := make([]*Document, 0, len(m.docs[q.Collection]))
	for id, fields := range m.docs[q.Collection] {
		if q.FieldEquals != nil && fmt.Sprint(fields[q.FieldEquals.Field]) != q.FieldEquals.Value {
			continue
		}
		out = append(out, &Document{ID: id, Fields: copyFields(fields)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := 0
		if q.OrderBy != "" {
			c = compareValues(out[i].Fields[q.OrderBy], out[j].Fields[q.OrderBy])
		}
		if c == 0 {
			c = strings.Compare(out[i].ID, out[j].ID)
		}
		if q.Descending {
			return c > 0
		}
		return c < 0
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemoryStore) DeleteDocument(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, OpDelete, collection, id); err != nil {
		return err
	}
	delete(m.docs[collection], id)
	return nil
}

func (m *MemoryStore) Register(ctx context.Context, username string, salt []byte, verifier []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "", "", ""); err != nil {
		return "", err
	}
	if _, ok := m.users[username]; ok {
		return "", common.New(common.KindValidation, "memory.register", "username already taken")
	}
	u := &memoryUser{id: uuid.NewString(), salt: salt, verifier: verifier}
	m.users[username] = u
	return u.id, nil
}

func (m *MemoryStore) GetSalt(ctx context.Context, username string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "", "", ""); err != nil {
		return nil, err
	}
	u, ok := m.users[username]
	if !ok {
		return nil, ErrUnauthorized
	}
	return u.salt, nil
}

func (m *MemoryStore) Login(ctx context.Context, username string, verifier []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "", "", ""); err != nil {
		return "", err
	}
	u, ok := m.users[username]
	if !ok || !bytes.Equal(u.verifier, verifier) {
		return "", ErrUnauthorized
	}
	return u.id, nil
}

func (m *MemoryStore) Logout() {}

func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.check(ctx, "", "", "")
}

// PresignImageUpload is unsupported in memory: images stay local.
func (m *MemoryStore) PresignImageUpload(context.Context, string, string, string) (*ImageUpload, error) {
	return nil, ErrUnavailable
}

func (m *MemoryStore) Close() error { return nil }

func copyFields(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// compareValues orders numbers numerically and everything else by its
// string form. Missing values sort first.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	fa, aok := a.(float64)
	fb, bok := b.(float64)
	if aok && bok {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}
