package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/tipsync/internal/client/models"
	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.profile.UpdateProfile(ctx, models.ProfileFields{Name: "Ann"})
	assert.Equal(t, common.KindUnauthorized, common.KindOf(err))

	e.login(t, ann())
	_, err = e.profile.UpdateProfile(ctx, models.ProfileFields{Name: " "})
	assert.Equal(t, common.KindValidation, common.KindOf(err))

	u, err := e.profile.UpdateProfile(ctx, models.ProfileFields{Name: "Ann B.", Bio: "runner"})
	require.NoError(t, err)
	assert.Equal(t, "Ann B.", u.Name)

	local, err := e.users.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "runner", local.Bio)

	doc, err := e.store.GetDocument(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann B.", doc.Fields[models.FieldName])
}

func TestUpdateProfile_OfflineKeepsLocal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.login(t, ann())
	e.store.SetUnreachable(true)

	_, err := e.profile.UpdateProfile(ctx, models.ProfileFields{Name: "Ann B."})
	require.NoError(t, err)
	local, err := e.users.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ann B.", local.Name)
}

func TestFetchRemoteProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.login(t, ann())

	// no remote document yet: the local profile is published
	u, err := e.profile.FetchRemoteProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, 1, e.store.Len("users"))

	require.NoError(t, e.store.PutDocument(ctx, "users", "u1", (&models.User{Name: "Ann Remote", Bio: "from phone", TipsCount: 4}).ToDocument()))
	u, err = e.profile.FetchRemoteProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: "u1", Name: "Ann Remote", Bio: "from phone", TipsCount: 4}, u)

	local, err := e.users.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, u, local)

	e.store.SetUnreachable(true)
	_, err = e.profile.FetchRemoteProfile(ctx)
	assert.Equal(t, common.KindRemoteUnavailable, common.KindOf(err))
}

func TestRefreshTipsCount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	n, err := e.profile.RefreshTipsCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	e.login(t, ann())
	require.NoError(t, e.tips.Upsert(ctx, &models.Tip{ID: "a", Title: "x", AuthorID: "u1", AuthorName: "Ann"}))
	require.NoError(t, e.tips.Upsert(ctx, &models.Tip{ID: "b", Title: "y", AuthorID: "u1", AuthorName: "Ann", IsDeleted: true}))
	require.NoError(t, e.tips.Upsert(ctx, &models.Tip{ID: "c", Title: "z", AuthorID: "u2", AuthorName: "Bob"}))

	n, err = e.profile.RefreshTipsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	u, err := e.users.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, u.TipsCount)
}
