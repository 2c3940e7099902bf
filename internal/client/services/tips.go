package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/tipsync/internal/client/models"
	"github.com/dmitrijs2005/tipsync/internal/client/repositories/tips"
	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/dmitrijs2005/tipsync/internal/logging"
	"github.com/dmitrijs2005/tipsync/internal/timex"
	"github.com/google/uuid"
)

// SyncReport summarizes one TriggerSync pass. PullErr is set when the pull
// failed; in that case the remote steps were skipped.
type SyncReport struct {
	Pulled   int
	Repaired int
	Push     PushReport
	PullErr  error
}

// ProfileSink receives post-sync updates of the current user's profile.
type ProfileSink interface {
	RefreshTipsCount(ctx context.Context) (int, error)
	RecordSync(ctx context.Context) error
}

// TipRepository is what the CLI talks to. Writes always land locally first;
// remote pushes are best effort and never fail the call.
type TipRepository struct {
	tips    tips.Repository
	engine  *SyncEngine
	users   CurrentUserProvider
	profile ProfileSink
	hub     *hub
	logger  logging.Logger

	// syncMu serializes sync passes so two never push the same record.
	syncMu sync.Mutex
}

func NewTipRepository(repo tips.Repository, engine *SyncEngine, users CurrentUserProvider, profile ProfileSink, l logging.Logger) *TipRepository {
	l = l.With("module", "tip_repository")
	return &TipRepository{
		tips:    repo,
		engine:  engine,
		users:   users,
		profile: profile,
		hub:     newHub(l),
		logger:  l,
	}
}

func (r *TipRepository) currentUser(ctx context.Context) *models.User {
	u, err := r.users.CurrentUser(ctx)
	if err != nil {
		r.logger.Warn(ctx, "current user unavailable", "error", err)
		return nil
	}
	return u
}

// tryPush attempts one push of t and logs a failure. Tips without an author
// snapshot wait for the repair pass instead.
func (r *TipRepository) tryPush(ctx context.Context, t *models.Tip) {
	if t.MissingAuthor() {
		r.logger.Debug(ctx, "push deferred until author data is known", "id", t.ID)
		return
	}
	if err := r.engine.PushOne(ctx, t); err != nil {
		r.logger.Info(ctx, "push deferred", "id", t.ID, "kind", common.KindOf(err), "error", err)
		return
	}
	r.hub.Notify()
}

// CreateRecord stores a new unsynced tip and returns its id.
func (r *TipRepository) CreateRecord(ctx context.Context, f models.TipFields) (string, error) {
	if err := models.Validate("tips.create", f); err != nil {
		return "", err
	}

	now := timex.NowMillis()
	t := &models.Tip{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	t.Apply(f)
	t.SetAuthor(r.currentUser(ctx))

	if err := r.tips.Upsert(ctx, t); err != nil {
		return "", err
	}
	r.hub.Notify()

	r.tryPush(ctx, t.Clone())
	return t.ID, nil
}

// UpdateRecord replaces the editable fields of an active tip.
func (r *TipRepository) UpdateRecord(ctx context.Context, id string, f models.TipFields) error {
	const op = "tips.update"

	t, err := r.tips.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.IsDeleted {
		return common.New(common.KindNotFound, op, fmt.Sprintf("tip %s not found", id))
	}
	if err := models.Validate(op, f); err != nil {
		return err
	}

	t.Apply(f)
	t.IsSynced = false
	t.UpdatedAt = timex.NextMillis(t.UpdatedAt)
	if err := r.tips.Upsert(ctx, t); err != nil {
		return err
	}
	r.hub.Notify()

	r.tryPush(ctx, t.Clone())
	return nil
}

// DeleteRecord soft-deletes locally and then tries to remove the remote
// document. Deleting an already deleted tip retries the remote delete.
func (r *TipRepository) DeleteRecord(ctx context.Context, id string) error {
	t, err := r.tips.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !t.IsDeleted {
		if err := r.tips.SoftDelete(ctx, id); err != nil {
			return err
		}
		r.hub.Notify()
	}

	if err := r.engine.DeleteRemote(ctx, id); err != nil {
		r.logger.Info(ctx, "remote delete deferred", "id", id, "kind", common.KindOf(err), "error", err)
	}
	return nil
}

// GetRecord returns the tip, including a soft-deleted one.
func (r *TipRepository) GetRecord(ctx context.Context, id string) (*models.Tip, error) {
	return r.tips.GetByID(ctx, id)
}

func (r *TipRepository) ListActive(ctx context.Context) ([]*models.Tip, error) {
	return r.tips.ListActive(ctx)
}

func (r *TipRepository) ListByAuthor(ctx context.Context, authorID string) ([]*models.Tip, error) {
	return r.tips.ListActiveByAuthor(ctx, authorID)
}

// ObserveActive streams snapshots of all active tips.
func (r *TipRepository) ObserveActive(ctx context.Context) (<-chan []*models.Tip, error) {
	return r.hub.Observe(ctx, r.tips.ListActive)
}

// ObserveByAuthor streams snapshots of the active tips of authorID.
func (r *TipRepository) ObserveByAuthor(ctx context.Context, authorID string) (<-chan []*models.Tip, error) {
	return r.hub.Observe(ctx, func(ctx context.Context) ([]*models.Tip, error) {
		return r.tips.ListActiveByAuthor(ctx, authorID)
	})
}

// PurgeDeleted hard-deletes soft-deleted tips.
func (r *TipRepository) PurgeDeleted(ctx context.Context) (int, error) {
	n, err := r.tips.PurgeSoftDeleted(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.hub.Notify()
	}
	return n, nil
}

// RepairAuthors runs the author-data repair pass for the current user.
func (r *TipRepository) RepairAuthors(ctx context.Context) (int, error) {
	r.syncMu.Lock()
	defer r.syncMu.Unlock()

	n, err := r.engine.RepairMissingAuthorData(ctx, r.currentUser(ctx))
	r.hub.Notify()
	return n, err
}

// TriggerSync runs pull, author repair, push and the profile counter
// refresh. A failed pull is reported in SyncReport.PullErr and skips the
// remote steps; the repair still runs locally. The returned error is
// reserved for local storage faults and cancellation.
func (r *TipRepository) TriggerSync(ctx context.Context) (SyncReport, error) {
	r.syncMu.Lock()
	defer r.syncMu.Unlock()

	var report SyncReport

	pulled, err := r.engine.PullAll(ctx)
	switch {
	case err == nil:
		report.Pulled = pulled
		r.hub.Notify()
	case common.KindOf(err) == common.KindLocalStorage, errors.Is(err, context.Canceled):
		return report, err
	default:
		report.PullErr = err
	}

	repaired, err := r.engine.repairLocal(ctx, r.currentUser(ctx))
	if err != nil {
		return report, err
	}
	report.Repaired = repaired
	if repaired > 0 {
		r.hub.Notify()
	}

	if report.PullErr == nil {
		report.Push, err = r.engine.PushAllUnsynced(ctx)
		if report.Push.Pushed > 0 {
			r.hub.Notify()
		}
		if err != nil {
			return report, err
		}
	}

	if r.profile != nil {
		if _, err := r.profile.RefreshTipsCount(ctx); err != nil {
			r.logger.Warn(ctx, "tips count refresh failed", "error", err)
		}
		if report.PullErr == nil {
			if err := r.profile.RecordSync(ctx); err != nil {
				r.logger.Warn(ctx, "failed to record sync time", "error", err)
			}
		}
	}

	return report, nil
}
