package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/crate/internal/formatter"
	"github.com/desertthunder/crate/internal/library"
	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/shared"
)

const (
	defaultWorkers = 4
	maxWorkers     = 8
	manifestName   = "export_manifest.json"
)

// SnapshotOpts contains configuration for a snapshot export.
type SnapshotOpts struct {
	Formats    []formatter.Format // Output formats (default: json)
	OutputDir  string             // Base output directory (default: crate_export_{epoch})
	NumWorkers int                // Concurrent file writers (default: 4, max: 8)
}

// ExportFile is one rendered listing in the manifest.
type ExportFile struct {
	Listing string           `json:"listing"`
	Format  formatter.Format `json:"format"`
	Path    string           `json:"path"`
	Albums  int              `json:"albums"`
	Error   string           `json:"error,omitempty"`
}

// SnapshotResult summarizes a snapshot export and doubles as its manifest.
type SnapshotResult struct {
	OutputDirectory string       `json:"output_directory"`
	CreatedAt       time.Time    `json:"created_at"`
	Pages           int          `json:"pages"`
	Albums          int          `json:"albums"`
	Subscriptions   int          `json:"subscriptions"`
	Files           []ExportFile `json:"files"`
	Written         int          `json:"written"`
	Failed          int          `json:"failed"`
	ManifestPath    string       `json:"-"`
}

type exportJob struct {
	name    string
	listing formatter.Listing
	format  formatter.Format
	path    string
}

// Snapshot fetches every catalog page and the subscription list, then writes each listing in each
// requested format under opts.OutputDir.
//
// Fetching is sequential because pages are cursor-chained; rendering runs on a worker pool.
func Snapshot(ctx context.Context, prog chan<- ProgressUpdate, lib library.Opts, opts SnapshotOpts) (*SnapshotResult, error) {
	if len(opts.Formats) == 0 {
		opts.Formats = []formatter.Format{formatter.FormatJSON}
	}
	for _, f := range opts.Formats {
		if f == formatter.FormatTable {
			return nil, fmt.Errorf("%w: table output is terminal-only, use text", shared.ErrInvalidArgument)
		}
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("crate_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}

	pager := library.NewCatalogPager(lib)
	if err := pager.FetchFirstPage(ctx); err != nil {
		return nil, err
	}
	pages := 1
	sendProgress(prog, fetchingPageUpdate(pages, len(pager.Items())))

	for pager.HasMore() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prev := pager.Cursor().String()
		if err := pager.FetchNextPage(ctx); err != nil {
			return nil, err
		}
		if next := pager.Cursor(); next != nil && next.String() == prev {
			return nil, fmt.Errorf("%w: catalog returned cursor %s twice", shared.ErrAPIRequest, prev)
		}
		pages++
		sendProgress(prog, fetchingPageUpdate(pages, len(pager.Items())))
	}

	sendProgress(prog, fetchingSubscriptionsUpdate())
	subs := library.NewSubscriptionStore(lib)
	if err := subs.LoadAll(ctx); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	subscribed := subs.Items()
	set := models.NewSubscriptionSet(subscribed)
	listings := []struct {
		name    string
		listing formatter.Listing
	}{
		{"catalog", formatter.Listing{Title: "Catalog", Albums: pager.Items(), Subscribed: set}},
		{"subscriptions", formatter.Listing{Title: "Subscriptions", Albums: subscribed, Subscribed: set}},
	}

	var jobs []exportJob
	for _, l := range listings {
		for _, f := range opts.Formats {
			jobs = append(jobs, exportJob{
				name:    l.name,
				listing: l.listing,
				format:  f,
				path:    filepath.Join(opts.OutputDir, l.name+formatter.Extension(f)),
			})
		}
	}

	result := &SnapshotResult{
		OutputDirectory: opts.OutputDir,
		CreatedAt:       time.Now().UTC(),
		Pages:           pages,
		Albums:          len(pager.Items()),
		Subscriptions:   len(subscribed),
		Files:           make([]ExportFile, 0, len(jobs)),
	}

	queue := make(chan exportJob, len(jobs))
	results := make(chan ExportFile, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < min(opts.NumWorkers, len(jobs)); i++ {
		wg.Add(1)
		go exportWorker(ctx, &wg, queue, results)
	}
	for _, j := range jobs {
		queue <- j
	}
	close(queue)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for file := range results {
		completed++
		result.Files = append(result.Files, file)
		if file.Error == "" {
			result.Written++
			sendProgress(prog, fileWrittenUpdate(completed, len(jobs), file.Listing, file.Format))
		} else {
			result.Failed++
			sendProgress(prog, fileFailedUpdate(completed, len(jobs), file.Listing, file.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	sort.Slice(result.Files, func(i, j int) bool { return result.Files[i].Path < result.Files[j].Path })

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker renders jobs until the queue is drained or ctx is cancelled.
func exportWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan exportJob, results chan<- ExportFile) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		file := ExportFile{Listing: job.name, Format: job.format, Path: job.path, Albums: len(job.listing.Albums)}
		if _, err := formatter.WriteExport(job.listing, job.format, job.path); err != nil {
			file.Error = err.Error()
		}
		results <- file
	}
}

func writeManifest(result *SnapshotResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
