package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/dmitrijs2005/tipsync/internal/client/client"
	"github.com/dmitrijs2005/tipsync/internal/client/models"
	"github.com/dmitrijs2005/tipsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/tipsync/internal/client/repositories/tips"
	"github.com/dmitrijs2005/tipsync/internal/client/repositories/users"
	"github.com/dmitrijs2005/tipsync/internal/client/storage"
	"github.com/dmitrijs2005/tipsync/internal/logging"
	"github.com/dmitrijs2005/tipsync/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type staticUser struct {
	mu sync.Mutex
	u  *models.User
}

func (s *staticUser) set(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.u = u
}

func (s *staticUser) CurrentUserID(context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.u == nil {
		return "", false
	}
	return s.u.ID, true
}

func (s *staticUser) CurrentUser(context.Context) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.u == nil {
		return nil, nil
	}
	c := *s.u
	return &c, nil
}

type env struct {
	db      *sql.DB
	store   *client.MemoryStore
	tips    *tips.SQLiteRepository
	meta    *metadata.SQLiteRepository
	users   *users.SQLiteRepository
	user    *staticUser
	reg     *prometheus.Registry
	engine  *SyncEngine
	profile *ProfileService
	repo    *TipRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := storage.OpenInMemory(context.Background(), t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	e := &env{
		db:    db,
		store: client.NewMemoryStore(),
		tips:  tips.NewSQLiteRepository(db),
		meta:  metadata.NewSQLiteRepository(db),
		users: users.NewSQLiteRepository(db),
		user:  &staticUser{},
		reg:   prometheus.NewRegistry(),
	}
	e.engine = NewSyncEngine(e.store, e.tips, e.meta, logging.Nop(), metrics.NewSyncMetrics(e.reg))
	e.profile = NewProfileService(e.store, e.users, e.tips, e.user, logging.Nop())
	e.repo = NewTipRepository(e.tips, e.engine, e.user, e.profile, logging.Nop())
	return e
}

func (e *env) login(t *testing.T, u *models.User) {
	t.Helper()
	require.NoError(t, e.users.SaveCurrent(context.Background(), u))
	e.user.set(u)
}

func (e *env) get(t *testing.T, id string) *models.Tip {
	t.Helper()
	tip, err := e.tips.GetByID(context.Background(), id)
	require.NoError(t, err)
	return tip
}

func (e *env) seedRemote(t *testing.T, tip *models.Tip) {
	t.Helper()
	require.NoError(t, e.store.PutDocument(context.Background(), "tips", tip.ID, tip.ToDocument()))
}

func ann() *models.User { return &models.User{ID: "u1", Name: "Ann"} }

func tipIDs(ts []*models.Tip) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}

// counter returns the value of the counter name with result=result, or 0.
func (e *env) counter(t *testing.T, name, result string) float64 {
	t.Helper()
	families, err := e.reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "result" && l.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
