package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/crate/internal/formatter"
	"github.com/desertthunder/crate/internal/library"
	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CatalogList mounts the browsing view (first page and subscriptions together), optionally pages further,
// and renders the catalog.
func (r *Runner) CatalogList(ctx context.Context, cmd *cli.Command) error {
	sessions, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	view := library.NewViewController(r.libraryOpts(sessions))
	if err := view.Mount(ctx); err != nil {
		if view.State() != library.StateBrowsing {
			return err
		}
		r.logger.Warn("subscription markers unavailable", "err", err)
	}

	pages := cmd.Int("pages")
	for i := 1; (cmd.Bool("all") || i < pages) && view.HasMore(); i++ {
		if err := view.LoadMore(ctx); err != nil {
			return err
		}
	}

	listing := formatter.Listing{
		Title:      "Catalog",
		Albums:     view.Items(),
		Subscribed: models.NewSubscriptionSet(view.Subscriptions().Items()),
		HasMore:    view.HasMore(),
	}
	return r.render(listing, format, cmd.String("output"))
}

// CatalogSearch runs a filtered query. Blank fields are omitted; with every field blank the first catalog
// page is shown instead.
func (r *Runner) CatalogSearch(ctx context.Context, cmd *cli.Command) error {
	sessions, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	q := models.SearchQuery{
		Title:  cmd.String("title"),
		Artist: cmd.String("artist"),
		Album:  cmd.String("album"),
		Year:   cmd.String("year"),
	}

	opts := r.libraryOpts(sessions)
	pager := library.NewCatalogPager(opts)
	if err := library.NewSearchFilter(pager, r.logger).Search(ctx, q); err != nil {
		return err
	}

	subs := library.NewSubscriptionStore(opts)
	var subscribed models.SubscriptionSet
	if err := subs.LoadAll(ctx); err != nil {
		r.logger.Warn("subscription markers unavailable", "err", err)
	} else {
		subscribed = models.NewSubscriptionSet(subs.Items())
	}

	title := "Search results"
	if q.Empty() {
		title = "Catalog"
	}

	listing := formatter.Listing{Title: title, Albums: pager.Items(), Subscribed: subscribed, HasMore: pager.HasMore()}
	return r.render(listing, format, cmd.String("output"))
}

// SubsList renders every album the user is subscribed to.
func (r *Runner) SubsList(ctx context.Context, cmd *cli.Command) error {
	sessions, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	subs := library.NewSubscriptionStore(r.libraryOpts(sessions))
	if err := subs.LoadAll(ctx); err != nil {
		return err
	}

	items := subs.Items()
	listing := formatter.Listing{Title: "Subscriptions", Albums: items, Subscribed: models.NewSubscriptionSet(items)}
	return r.render(listing, format, cmd.String("output"))
}

// SubsToggle subscribes to or unsubscribes from an album and reports the confirmed state.
func (r *Runner) SubsToggle(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("composite_id")

	sessions, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	var notes []string
	opts := r.libraryOpts(sessions)
	opts.Notifier = library.NotifierFunc(func(msg string) { notes = append(notes, msg) })

	subs := library.NewSubscriptionStore(opts)
	if err := subs.Toggle(ctx, id); err != nil {
		for _, n := range notes {
			r.logger.Warn(n)
		}
		return err
	}

	for _, n := range notes {
		r.writePlain("✓ %s\n", n)
	}

	state := "not subscribed"
	if subs.IsSubscribed(id) {
		state = "subscribed"
	}
	return r.writePlain("%s: %s (%d total)\n", id, state, subs.Len())
}

// CatalogExport snapshots the whole catalog and the subscription list into a directory,
// one file per listing and format, plus a manifest.
func (r *Runner) CatalogExport(ctx context.Context, cmd *cli.Command) error {
	sessions, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	var formats []formatter.Format
	for _, name := range cmd.StringSlice("format") {
		f, err := formatter.ParseFormat(name)
		if err != nil {
			return err
		}
		formats = append(formats, f)
	}

	prog := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range prog {
			r.logger.Info(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}()

	result, err := tasks.Snapshot(ctx, prog, r.libraryOpts(sessions), tasks.SnapshotOpts{
		Formats:    formats,
		OutputDir:  cmd.String("dir"),
		NumWorkers: cmd.Int("workers"),
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %d albums and %d subscriptions to %s\n", result.Albums, result.Subscriptions, result.OutputDirectory)
	if result.Failed > 0 {
		r.writePlain("%d of %d files failed, see %s\n", result.Failed, len(result.Files), result.ManifestPath)
	}
	return nil
}

// render writes listing to the output, or to a file when path is set.
func (r *Runner) render(listing formatter.Listing, format formatter.Format, path string) error {
	if path == "" {
		return formatter.Write(r.output, listing, format)
	}

	written, err := formatter.WriteExport(listing, format, path)
	if err != nil {
		return err
	}
	r.logger.Info("export written", "path", written, "albums", len(listing.Albums))
	return r.writePlain("✓ Wrote %d albums to %s\n", len(listing.Albums), written)
}

func formatUsage() string {
	return fmt.Sprintf("Output format: %v", formatter.Formats)
}
