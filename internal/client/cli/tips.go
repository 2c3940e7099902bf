package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/tipsync/internal/client/models"
	"github.com/prometheus/common/expfmt"
)

func (a *App) Add(ctx context.Context, args []string) error {
	title := strings.Join(args, " ")
	if title == "" {
		var err error
		if title, err = GetSimpleText(a.reader, "Enter title", a.out); err != nil {
			return err
		}
	}
	description, err := GetMultiline(a.reader, "Enter description", a.out)
	if err != nil {
		return err
	}

	id, err := a.tips.CreateRecord(ctx, models.TipFields{Title: title, Description: description})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Created", id)
	return nil
}

// Edit asks for new values; an empty answer keeps the current one.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter tip id to edit")
	if err != nil {
		return err
	}
	t, err := a.tips.GetRecord(ctx, id)
	if err != nil {
		return err
	}

	f := t.Fields()
	title, err := GetSimpleText(a.reader, fmt.Sprintf("Title [%s]", f.Title), a.out)
	if err != nil {
		return err
	}
	if title != "" {
		f.Title = title
	}
	description, err := GetMultiline(a.reader, "Description (empty keeps current)", a.out)
	if err != nil {
		return err
	}
	if description != "" {
		f.Description = description
	}

	if err := a.tips.UpdateRecord(ctx, id, f); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Updated", id)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter tip id to delete")
	if err != nil {
		return err
	}
	if err := a.tips.DeleteRecord(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted", id)
	return nil
}

// List prints all active tips, or those of one author with -author <id>.
func (a *App) List(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	author := fs.String("author", "", "author id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("usage: list [-author <id>]: %w", err)
	}

	var (
		ts  []*models.Tip
		err error
	)
	if *author != "" {
		ts, err = a.tips.ListByAuthor(ctx, *author)
	} else {
		ts, err = a.tips.ListActive(ctx)
	}
	if err != nil {
		return err
	}
	return writeTips(a.out, ts)
}

func (a *App) Mine(ctx context.Context, _ []string) error {
	id, ok := a.session.CurrentUserID(ctx)
	if !ok {
		return errNotLoggedIn
	}
	ts, err := a.tips.ListByAuthor(ctx, id)
	if err != nil {
		return err
	}
	return writeTips(a.out, ts)
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter tip id to show")
	if err != nil {
		return err
	}
	t, err := a.tips.GetRecord(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, t.Title)
	if t.Description != "" {
		fmt.Fprintln(a.out, t.Description)
	}
	if t.ImageRef != "" {
		fmt.Fprintln(a.out, "Image:", t.ImageRef)
	}
	fmt.Fprintln(a.out, "Author:", authorLabel(t))
	fmt.Fprintln(a.out, "Updated:", formatMillis(t.UpdatedAt))
	fmt.Fprintln(a.out, "Status:", syncLabel(t))
	return nil
}

func (a *App) Image(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter tip id")
	if err != nil {
		return err
	}
	var path string
	if len(args) > 1 {
		path = args[1]
	} else if path, err = a.argOrPrompt(nil, "Enter image path"); err != nil {
		return err
	}

	ref, err := a.images.AttachImage(ctx, id, path)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Image:", ref)
	return nil
}

func (a *App) Sync(ctx context.Context, _ []string) error {
	report, err := a.tips.TriggerSync(ctx)
	if err != nil {
		return err
	}
	if report.PullErr != nil {
		fmt.Fprintln(a.out, "Server unreachable, kept local changes:", report.PullErr)
	}
	fmt.Fprintf(a.out, "Pulled %d, repaired %d, pushed %d/%d\n",
		report.Pulled, report.Repaired, report.Push.Pushed, report.Push.Attempted)
	return nil
}

func (a *App) Repair(ctx context.Context, _ []string) error {
	n, err := a.tips.RepairAuthors(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Repaired %d tips\n", n)
	return nil
}

func (a *App) Purge(ctx context.Context, _ []string) error {
	n, err := a.tips.PurgeDeleted(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Purged %d deleted tips\n", n)
	return nil
}

// Quote prints a fresh quote, or the cached one when the quote service is
// unreachable, and prunes quotes older than the retention.
func (a *App) Quote(ctx context.Context, _ []string) error {
	q, err := a.quotes.FetchNewQuote(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%q\n  - %s\n", q.Text, q.Author)

	if a.config.QuoteRetention > 0 {
		cutoff := time.Now().Add(-a.config.QuoteRetention)
		if fetched := time.UnixMilli(q.FetchedAt); fetched.Before(cutoff) {
			cutoff = fetched
		}
		if _, err := a.quotes.DeleteOldQuotes(ctx, cutoff); err != nil {
			a.logger.Warn(ctx, "failed to prune quotes", "error", err)
		}
	}
	return nil
}

// Stats prints the sync counters in the Prometheus text format.
func (a *App) Stats(context.Context, []string) error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(a.out, mf); err != nil {
			return err
		}
	}
	return nil
}

func writeTips(w io.Writer, ts []*models.Tip) error {
	if len(ts) == 0 {
		_, err := fmt.Fprintln(w, "No tips.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tUPDATED\tSTATUS")
	for _, t := range ts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, authorLabel(t), formatMillis(t.UpdatedAt), syncLabel(t))
	}
	return tw.Flush()
}

func authorLabel(t *models.Tip) string {
	if t.MissingAuthor() {
		return "?"
	}
	return t.AuthorName
}

func syncLabel(t *models.Tip) string {
	switch {
	case t.IsDeleted:
		return "deleted"
	case t.IsSynced:
		return "synced"
	default:
		return "pending"
	}
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}
