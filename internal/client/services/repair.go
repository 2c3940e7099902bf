package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tipsync/internal/client/models"
	"github.com/dmitrijs2005/tipsync/internal/timex"
)

// RepairMissingAuthorData backfills the author snapshot of every active tip
// whose author id or name is blank, then pushes the dirty set. It is a no-op
// without a known user. The push result does not affect the returned count.
func (e *SyncEngine) RepairMissingAuthorData(ctx context.Context, u *models.User) (int, error) {
	if u == nil || u.ID == "" {
		return 0, nil
	}
	repaired, err := e.repairLocal(ctx, u)
	if err != nil {
		return repaired, err
	}

	if _, err := e.PushAllUnsynced(ctx); err != nil {
		e.logger.Warn(ctx, "push after repair failed", "error", err)
	}
	return repaired, nil
}

// repairLocal is the storage-only half of RepairMissingAuthorData.
func (e *SyncEngine) repairLocal(ctx context.Context, u *models.User) (int, error) {
	if u == nil || u.ID == "" {
		return 0, nil
	}
	defer e.metrics.ObserveDuration("repair", time.Now())

	active, err := e.tips.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, t := range active {
		if !t.MissingAuthor() {
			continue
		}
		prev := t.UpdatedAt
		t.SetAuthor(u)
		t.IsSynced = false
		t.UpdatedAt = timex.NextMillis(prev)
		ok, err := e.tips.ReplaceIfUnchanged(ctx, t, prev)
		if err != nil {
			return repaired, err
		}
		if !ok {
			e.logger.Debug(ctx, "record changed during repair, skipped", "id", t.ID)
			continue
		}
		repaired++
	}
	e.metrics.AddRepaired(repaired)

	if repaired > 0 {
		e.logger.Info(ctx, "repaired author data", "count", repaired, "user_id", u.ID)
	}
	return repaired, nil
}
