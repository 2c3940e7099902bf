// Package tips provides the client-side persistence layer for tips: the
// local record store the sync engine reads from and writes to.
//
// # Data Model
//
// Each row carries the tip fields plus two sync flags. is_synced is cleared
// by every local mutation and set again only when a push of that exact
// version (matched by updated_at) is confirmed. is_deleted is a soft-delete
// marker: deleted rows are hidden from every list but stay readable by id
// until PurgeSoftDeleted removes them.
//
// # Pull protection
//
// UpsertPulled writes remote rows with an ON CONFLICT ... WHERE is_synced = 1
// clause, so a pull never overwrites a row that still has unpushed local
// changes.
//
// # Concurrency
//
// Every statement writes a whole row, so readers never see a partial
// record. The SQLite database runs in WAL mode (see storage.DSN); a
// SQLiteRepository is safe for concurrent use when bound to a *sql.DB.
//
// Typical Usage
//
//	repo := tips.NewSQLiteRepository(db)
//	_ = repo.Upsert(ctx, tip)
//	active, _ := repo.ListActive(ctx)
//	dirty, _ := repo.ListUnsyncedActive(ctx)
//	_ = repo.MarkSynced(ctx, tip.ID, tip.UpdatedAt)
package tips
