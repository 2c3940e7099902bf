package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/tipsync/internal/client/client"
	"github.com/dmitrijs2005/tipsync/internal/client/models"
	"github.com/dmitrijs2005/tipsync/internal/client/repositories/tips"
	"github.com/dmitrijs2005/tipsync/internal/client/repositories/users"
	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/dmitrijs2005/tipsync/internal/logging"
	"github.com/dmitrijs2005/tipsync/internal/timex"
)

var errNotLoggedIn = common.New(common.KindUnauthorized, "profile", "not logged in")

// ProfileService maintains the current user's profile locally and mirrors
// it to the users collection.
type ProfileService struct {
	store   client.DocumentStore
	users   users.Repository
	tips    tips.Repository
	session CurrentUserProvider
	logger  logging.Logger
}

var _ ProfileSink = (*ProfileService)(nil)

func NewProfileService(store client.DocumentStore, u users.Repository, t tips.Repository, session CurrentUserProvider, l logging.Logger) *ProfileService {
	return &ProfileService{store: store, users: u, tips: t, session: session, logger: l.With("module", "profile")}
}

// UpdateProfile saves the new profile fields locally and then tries to push
// the users document. A push failure is logged, not returned.
func (p *ProfileService) UpdateProfile(ctx context.Context, f models.ProfileFields) (*models.User, error) {
	if err := models.Validate("profile.update", f); err != nil {
		return nil, err
	}
	u, err := p.session.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errNotLoggedIn
	}

	u.Name = strings.TrimSpace(f.Name)
	u.Bio = strings.TrimSpace(f.Bio)
	u.PhotoRef = strings.TrimSpace(f.PhotoRef)
	if err := p.users.SaveCurrent(ctx, u); err != nil {
		return nil, err
	}

	if err := p.store.PutDocument(ctx, common.CollectionUsers, u.ID, u.ToDocument()); err != nil {
		p.logger.Info(ctx, "profile push deferred", "kind", common.KindOf(err), "error", err)
	}
	return u, nil
}

// RefreshTipsCount recounts the current user's active tips.
func (p *ProfileService) RefreshTipsCount(ctx context.Context) (int, error) {
	id, ok := p.session.CurrentUserID(ctx)
	if !ok {
		return 0, nil
	}
	n, err := p.tips.CountActiveByAuthor(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := p.users.UpdateTipsCount(ctx, id, n); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *ProfileService) RecordSync(ctx context.Context) error {
	id, ok := p.session.CurrentUserID(ctx)
	if !ok {
		return nil
	}
	return p.users.UpdateLastSyncedAt(ctx, id, timex.NowMillis())
}

// FetchRemoteProfile replaces the local profile with the remote users
// document. When there is none yet, the local profile is published instead.
func (p *ProfileService) FetchRemoteProfile(ctx context.Context) (*models.User, error) {
	local, err := p.session.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if local == nil {
		return nil, errNotLoggedIn
	}

	doc, err := p.store.GetDocument(ctx, common.CollectionUsers, local.ID)
	if errors.Is(err, common.ErrorNotFound) {
		if err := p.store.PutDocument(ctx, common.CollectionUsers, local.ID, local.ToDocument()); err != nil {
			return local, remoteErr("profile.fetchRemote", err)
		}
		return local, nil
	}
	if err != nil {
		return local, remoteErr("profile.fetchRemote", err)
	}

	remote := models.UserFromDocument(local.ID, doc.Fields)
	if strings.TrimSpace(remote.Name) == "" {
		remote.Name = local.Name
	}
	if err := p.users.SaveCurrent(ctx, remote); err != nil {
		return nil, err
	}
	return remote, nil
}
