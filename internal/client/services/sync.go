package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/tipsync/internal/client/client"
	"github.com/dmitrijs2005/tipsync/internal/client/models"
	"github.com/dmitrijs2005/tipsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/tipsync/internal/client/repositories/tips"
	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/dmitrijs2005/tipsync/internal/logging"
	"github.com/dmitrijs2005/tipsync/internal/metrics"
	"github.com/dmitrijs2005/tipsync/internal/timex"
)

// PushReport summarizes one PushAllUnsynced pass.
type PushReport struct {
	Attempted int
	Pushed    int
	Failed    int
}

// DefaultPullLimit matches the server's default cap on query results.
const DefaultPullLimit = 1000

// SyncEngine moves tips between the local store and the remote document
// store. Remote failures never modify local state.
type SyncEngine struct {
	store   client.DocumentStore
	tips    tips.Repository
	meta    metadata.Repository
	logger  logging.Logger
	metrics *metrics.SyncMetrics
	locks   idLocks

	pullLimit int
}

func NewSyncEngine(store client.DocumentStore, repo tips.Repository, meta metadata.Repository, l logging.Logger, m *metrics.SyncMetrics) *SyncEngine {
	return &SyncEngine{
		store:   store,
		tips:    repo,
		meta:    meta,
		logger:  l.With("module", "sync_engine"),
		metrics: m,

		pullLimit: DefaultPullLimit,
	}
}

// WithPullLimit sets how many documents PullAll asks for. Values below one
// keep the current limit.
func (e *SyncEngine) WithPullLimit(n int) *SyncEngine {
	if n > 0 {
		e.pullLimit = n
	}
	return e
}

// remoteErr tags op onto err. Failures that carry no kind of their own are
// classified as RemoteUnavailable.
func remoteErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if common.AsError(err) != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return common.Wrap(common.KindRemoteUnavailable, op, err)
}

// PullAll fetches every remote tip, newest first, and writes them locally as
// synced. Dirty local rows are left untouched and local-only rows are never
// deleted. It returns the number of documents fetched.
func (e *SyncEngine) PullAll(ctx context.Context) (int, error) {
	defer e.metrics.ObserveDuration("pull", time.Now())

	docs, err := e.store.QueryOrdered(ctx, client.Query{
		Collection: common.CollectionTips,
		OrderBy:    models.FieldCreatedAt,
		Descending: true,
		Limit:      e.pullLimit,
	})
	if err != nil {
		e.metrics.IncPull(metrics.ResultFailure)
		e.logger.Warn(ctx, "pull failed", "error", err)
		return 0, remoteErr("sync.pullAll", err)
	}

	if len(docs) >= e.pullLimit {
		e.logger.Warn(ctx, "pull hit the result limit, older tips were not fetched", "limit", e.pullLimit)
	}

	pulled := make([]*models.Tip, 0, len(docs))
	for _, d := range docs {
		if d == nil || d.ID == "" {
			continue
		}
		pulled = append(pulled, models.TipFromDocument(d.ID, d.Fields))
	}

	written, err := e.tips.UpsertPulled(ctx, pulled)
	if err != nil {
		e.metrics.IncPull(metrics.ResultFailure)
		return 0, err
	}
	e.metrics.IncPull(metrics.ResultSuccess)

	if e.meta != nil {
		if err := metadata.SetInt64(ctx, e.meta, metadata.KeyLastPullAt, timex.NowMillis()); err != nil {
			e.logger.Warn(ctx, "failed to record pull time", "error", err)
		}
	}

	e.logger.Info(ctx, "pull finished", "fetched", len(docs), "written", written, "skipped_dirty", len(pulled)-written)
	return len(docs), nil
}

// PushOne makes at most one remote write for t. Writes of the same id never
// overlap, and a version older than the local row is never sent: a newer
// dirty row is pushed in its place, and a newer synced one needs no write.
// On success the local row is marked synced unless it was edited while the
// write was in flight.
func (e *SyncEngine) PushOne(ctx context.Context, t *models.Tip) error {
	const op = "sync.pushOne"
	defer e.metrics.ObserveDuration("push", time.Now())

	if t == nil || t.ID == "" {
		return common.New(common.KindValidation, op, "record id is required")
	}
	if t.IsDeleted {
		return common.New(common.KindValidation, op, "soft-deleted records are not pushed").
			WithDetails(map[string]string{"id": t.ID})
	}
	if t.MissingAuthor() {
		return common.New(common.KindValidation, op, "author data is missing").
			WithDetails(map[string]string{"id": t.ID})
	}

	unlock := e.locks.lock(t.ID)
	defer unlock()

	t, err := e.latest(ctx, t)
	if err != nil || t == nil {
		return err
	}

	err = e.store.PutDocument(ctx, common.CollectionTips, t.ID, t.ToDocument())
	e.metrics.IncPush(metrics.Result(err))
	if err != nil {
		return remoteErr(op, err)
	}

	ok, err := e.tips.MarkSynced(ctx, t.ID, t.UpdatedAt)
	if err != nil {
		return err
	}
	if !ok {
		e.logger.Debug(ctx, "record changed during push, left dirty", "id", t.ID)
	}
	return nil
}

// latest returns the version of t that should be written, or nil when the
// local row has moved past t and there is nothing left to send.
func (e *SyncEngine) latest(ctx context.Context, t *models.Tip) (*models.Tip, error) {
	cur, err := e.tips.GetByID(ctx, t.ID)
	if errors.Is(err, common.ErrorNotFound) {
		return t, nil
	}
	if err != nil {
		return nil, err
	}
	switch {
	case cur.IsDeleted:
	case cur.UpdatedAt < t.UpdatedAt:
		return t, nil
	case cur.UpdatedAt == t.UpdatedAt && !cur.IsSynced:
		return t, nil
	case !cur.IsSynced && !cur.MissingAuthor():
		return cur, nil
	}
	e.logger.Debug(ctx, "push superseded by local row", "id", t.ID, "updated_at", cur.UpdatedAt)
	return nil, nil
}

// PushAllUnsynced pushes every dirty active tip, one at a time. Individual
// failures are logged and counted. The returned error is non-nil only when
// the dirty set cannot be listed or ctx is done.
func (e *SyncEngine) PushAllUnsynced(ctx context.Context) (PushReport, error) {
	defer e.metrics.ObserveDuration("push_all", time.Now())

	var report PushReport
	dirty, err := e.tips.ListUnsyncedActive(ctx)
	if err != nil {
		return report, err
	}

	for _, t := range dirty {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("sync.pushAllUnsynced: %w", err)
		}
		report.Attempted++
		if err := e.PushOne(ctx, t); err != nil {
			report.Failed++
			e.logger.Warn(ctx, "push failed", "id", t.ID, "kind", common.KindOf(err), "error", err)
			continue
		}
		report.Pushed++
	}

	if report.Pushed > 0 && e.meta != nil {
		if err := metadata.SetInt64(ctx, e.meta, metadata.KeyLastPushAt, timex.NowMillis()); err != nil {
			e.logger.Warn(ctx, "failed to record push time", "error", err)
		}
	}

	e.logger.Info(ctx, "push finished", "attempted", report.Attempted, "pushed", report.Pushed, "failed", report.Failed)
	return report, nil
}

// DeleteRemote removes the remote document. An absent document is success.
func (e *SyncEngine) DeleteRemote(ctx context.Context, id string) error {
	unlock := e.locks.lock(id)
	defer unlock()

	err := e.store.DeleteDocument(ctx, common.CollectionTips, id)
	if errors.Is(err, common.ErrorNotFound) {
		err = nil
	}
	e.metrics.IncRemoteDelete(metrics.Result(err))
	if err != nil {
		return remoteErr("sync.deleteRemote", err)
	}
	return nil
}

// idLocks hands out one mutex per record id. Entries are dropped once no
// goroutine holds or waits for them.
type idLocks struct {
	mu   sync.Mutex
	byID map[string]*idLock
}

type idLock struct {
	mu   sync.Mutex
	refs int
}

func (l *idLocks) lock(id string) (unlock func()) {
	l.mu.Lock()
	if l.byID == nil {
		l.byID = make(map[string]*idLock)
	}
	e, ok := l.byID[id]
	if !ok {
		e = &idLock{}
		l.byID[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.byID, id)
		}
		l.mu.Unlock()
	}
}
