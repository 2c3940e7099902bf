package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/tipsync/internal/client/client"
	"github.com/dmitrijs2005/tipsync/internal/client/models"
	"github.com/dmitrijs2005/tipsync/internal/client/repositories/tips"
	"github.com/dmitrijs2005/tipsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepair_NoUserIsNoop(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.tips.Upsert(ctx, &models.Tip{ID: "a", Title: "x", CreatedAt: 1, UpdatedAt: 1}))

	n, err := e.engine.RepairMissingAuthorData(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = e.engine.RepairMissingAuthorData(ctx, &models.User{Name: "no id"})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, e.get(t, "a").AuthorID)
	assert.Zero(t, e.store.Calls(client.OpPut))
}

func TestRepair_BackfillsIncludingSyncedRecords(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.store.SetUnreachable(true)

	require.NoError(t, e.tips.Upsert(ctx, &models.Tip{ID: "blank-name", Title: "x", AuthorID: "u1", CreatedAt: 1, UpdatedAt: 5, IsSynced: true}))
	require.NoError(t, e.tips.Upsert(ctx, &models.Tip{ID: "blank-id", Title: "y", AuthorName: "Ann", CreatedAt: 2, UpdatedAt: 5}))
	require.NoError(t, e.tips.Upsert(ctx, &models.Tip{ID: "ok", Title: "z", AuthorID: "u2", AuthorName: "Bob", CreatedAt: 3, UpdatedAt: 5, IsSynced: true}))
	require.NoError(t, e.tips.Upsert(ctx, &models.Tip{ID: "gone", Title: "w", CreatedAt: 4, UpdatedAt: 5, IsDeleted: true}))

	u := &models.User{ID: "u1", Name: "Ann", PhotoRef: "https://img/ann.png"}
	n, err := e.engine.RepairMissingAuthorData(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{"blank-name", "blank-id"} {
		got := e.get(t, id)
		assert.Equal(t, "u1", got.AuthorID)
		assert.Equal(t, "Ann", got.AuthorName)
		assert.Equal(t, "https://img/ann.png", got.AuthorPhotoRef)
		assert.False(t, got.IsSynced)
		assert.Greater(t, got.UpdatedAt, int64(5))
	}
	assert.Equal(t, "Bob", e.get(t, "ok").AuthorName)
	assert.True(t, e.get(t, "ok").IsSynced)
	assert.Empty(t, e.get(t, "gone").AuthorID)

	// the follow-up push was attempted for both repaired records
	assert.Equal(t, 2, e.store.Calls(client.OpPut))
	assert.Equal(t, 2.0, e.counter(t, "tipsync_sync_push_total", "failure"))
}

// Offline create with no profile, login, repair, then push once online.
func TestRepair_OfflineCreateThenLoginScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.store.SetUnreachable(true)

	id, err := e.repo.CreateRecord(ctx, models.TipFields{Title: "Study daily", Description: "..."})
	require.NoError(t, err)

	got := e.get(t, id)
	assert.Empty(t, got.AuthorID)
	assert.Empty(t, got.AuthorName)
	assert.False(t, got.IsSynced)

	e.login(t, ann())
	n, err := e.engine.RepairMissingAuthorData(ctx, ann())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got = e.get(t, id)
	assert.Equal(t, "u1", got.AuthorID)
	assert.Equal(t, "Ann", got.AuthorName)
	assert.False(t, got.IsSynced)

	e.store.SetUnreachable(false)
	report, err := e.engine.PushAllUnsynced(ctx)
	require.NoError(t, err)
	assert.Equal(t, PushReport{Attempted: 1, Pushed: 1}, report)
	assert.True(t, e.get(t, id).IsSynced)

	doc, err := e.store.GetDocument(ctx, "tips", id)
	require.NoError(t, err)
	assert.Equal(t, "Ann", doc.Fields[models.FieldAuthorName])
}

// editingRepo lands a user edit between the repair pass reading the active
// set and writing the backfilled rows.
type editingRepo struct {
	*tips.SQLiteRepository
	edit func(ctx context.Context)
}

func (r *editingRepo) ListActive(ctx context.Context) ([]*models.Tip, error) {
	active, err := r.SQLiteRepository.ListActive(ctx)
	if err == nil && r.edit != nil {
		r.edit(ctx)
		r.edit = nil
	}
	return active, err
}

func TestRepair_DoesNotOverwriteConcurrentEdit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.store.SetUnreachable(true)
	require.NoError(t, e.tips.Upsert(ctx, &models.Tip{ID: "a", Title: "old", CreatedAt: 1, UpdatedAt: 5}))

	repo := &editingRepo{SQLiteRepository: e.tips, edit: func(ctx context.Context) {
		require.NoError(t, e.tips.Upsert(ctx, &models.Tip{ID: "a", Title: "new", CreatedAt: 1, UpdatedAt: 6}))
	}}
	engine := NewSyncEngine(e.store, repo, e.meta, logging.Nop(), nil)

	n, err := engine.RepairMissingAuthorData(ctx, ann())
	require.NoError(t, err)
	assert.Zero(t, n)

	got := e.get(t, "a")
	assert.Equal(t, "new", got.Title)
	assert.Equal(t, int64(6), got.UpdatedAt)
	assert.Empty(t, got.AuthorID)
}
