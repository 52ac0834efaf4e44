package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/crate/internal/formatter"
	"github.com/desertthunder/crate/internal/library"
	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/services"
	"github.com/desertthunder/crate/internal/shared"
	tu "github.com/desertthunder/crate/internal/testing"
)

var albums = []models.Album{
	{CompositeID: "muse#time", Title: "Time Is Running Out", Artist: "Muse", Album: "Absolution", Year: "2003"},
	{CompositeID: "portishead#glory", Title: "Glory Box", Artist: "Portishead", Album: "Dummy", Year: "1994"},
	{CompositeID: "radiohead#idioteque", Title: "Idioteque", Artist: "Radiohead", Album: "Kid A", Year: "2000"},
}

// threePages serves one album per page and reports a single subscription.
func threePages() *tu.MockCatalog {
	return &tu.MockCatalog{
		ListMusicFunc: func(_ context.Context, _ string, _ int, cursor *models.Cursor) (*models.CatalogPage, error) {
			i := 0
			if cursor != nil {
				var key int
				if err := json.Unmarshal([]byte(*cursor), &key); err != nil {
					return nil, err
				}
				i = key
			}
			page := &models.CatalogPage{Items: albums[i : i+1]}
			if i+1 < len(albums) {
				next, _ := json.Marshal(i + 1)
				page.Cursor = models.NewCursor(next)
			}
			return page, nil
		},
		ListSubscriptionsFunc: func(context.Context, string) ([]models.Album, error) {
			return albums[1:2], nil
		},
	}
}

func libraryOpts(t *testing.T, catalog services.Catalog) (library.Opts, *tu.MemoryKV, *tu.RecordingNavigator) {
	t.Helper()
	kv := tu.NewMemoryKV()
	if err := kv.SetMany(context.Background(), map[string]string{"token": "tok"}); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	session := library.NewSessionStore(kv, nil)
	if _, err := session.Load(context.Background()); err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	nav := &tu.RecordingNavigator{}
	return library.Opts{Catalog: catalog, Session: session, Navigator: nav, PageSize: 1}, kv, nav
}

func TestSnapshot(t *testing.T) {
	t.Run("writes every listing in every format", func(t *testing.T) {
		lib, _, _ := libraryOpts(t, threePages())
		dir := filepath.Join(t.TempDir(), "out")
		prog := make(chan ProgressUpdate, 32)

		result, err := Snapshot(context.Background(), prog, lib, SnapshotOpts{
			Formats:   []formatter.Format{formatter.FormatJSON, formatter.FormatCSV},
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Pages != 3 || result.Albums != 3 || result.Subscriptions != 1 {
			t.Errorf("expected 3 pages, 3 albums, 1 subscription, got %d/%d/%d", result.Pages, result.Albums, result.Subscriptions)
		}
		if result.Written != 4 || result.Failed != 0 {
			t.Errorf("expected 4 written and 0 failed, got %d/%d", result.Written, result.Failed)
		}

		for _, name := range []string{"catalog.json", "catalog.csv", "subscriptions.json", "subscriptions.csv", manifestName} {
			tu.AssertFileExists(t, filepath.Join(dir, name))
		}

		csv, err := os.ReadFile(filepath.Join(dir, "catalog.csv"))
		if err != nil {
			t.Fatalf("failed to read csv: %v", err)
		}
		if lines := strings.Split(strings.TrimSpace(string(csv)), "\n"); len(lines) != 4 {
			t.Errorf("expected header plus 3 rows, got %d lines", len(lines))
		}

		data, err := os.ReadFile(result.ManifestPath)
		if err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}
		var manifest SnapshotResult
		if err := json.Unmarshal(data, &manifest); err != nil {
			t.Fatalf("manifest is not valid JSON: %v", err)
		}
		if len(manifest.Files) != 4 || manifest.Files[0].Path != filepath.Join(dir, "catalog.csv") {
			t.Errorf("expected 4 files sorted by path, got %+v", manifest.Files)
		}

		close(prog)
		var phases []Phase
		for u := range prog {
			phases = append(phases, u.Phase)
		}
		want := []Phase{FetchCatalog, FetchCatalog, FetchCatalog, FetchSubscriptions, WriteFiles, WriteFiles, WriteFiles, WriteFiles}
		if len(phases) != len(want) {
			t.Fatalf("expected %d updates, got %v", len(want), phases)
		}
		for i := range want {
			if phases[i] != want[i] {
				t.Errorf("update %d: expected %s, got %s", i, want[i], phases[i])
			}
		}
	})

	t.Run("defaults to json with a nil progress channel", func(t *testing.T) {
		lib, _, _ := libraryOpts(t, threePages())
		dir := t.TempDir()

		result, err := Snapshot(context.Background(), nil, lib, SnapshotOpts{OutputDir: dir, NumWorkers: 100})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Written != 2 {
			t.Errorf("expected 2 files, got %d", result.Written)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "catalog.json"))
	})

	t.Run("rejects table output", func(t *testing.T) {
		catalog := threePages()
		lib, _, _ := libraryOpts(t, catalog)

		_, err := Snapshot(context.Background(), nil, lib, SnapshotOpts{
			Formats:   []formatter.Format{formatter.FormatTable},
			OutputDir: t.TempDir(),
		})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if catalog.Calls("ListMusic") != 0 {
			t.Error("expected no requests before options are validated")
		}
	})

	t.Run("expired token clears the session", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			ListMusicFunc: func(context.Context, string, int, *models.Cursor) (*models.CatalogPage, error) {
				return nil, &services.StatusError{StatusCode: http.StatusUnauthorized, Message: "Token expired"}
			},
		}
		lib, kv, nav := libraryOpts(t, catalog)
		dir := filepath.Join(t.TempDir(), "out")

		_, err := Snapshot(context.Background(), nil, lib, SnapshotOpts{OutputDir: dir})
		if !errors.Is(err, shared.ErrSessionExpired) {
			t.Errorf("expected ErrSessionExpired, got %v", err)
		}
		if len(kv.Keys()) != 0 {
			t.Errorf("expected session keys removed, got %v", kv.Keys())
		}
		if nav.Last() != library.LoginPath {
			t.Errorf("expected redirect to %s, got %q", library.LoginPath, nav.Last())
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Error("expected no output directory after a failed fetch")
		}
	})

	t.Run("records per-file failures in the manifest", func(t *testing.T) {
		lib, _, _ := libraryOpts(t, threePages())
		dir := t.TempDir()
		if err := os.Mkdir(filepath.Join(dir, "catalog.md"), 0755); err != nil {
			t.Fatalf("failed to create blocking directory: %v", err)
		}

		result, err := Snapshot(context.Background(), nil, lib, SnapshotOpts{
			Formats:   []formatter.Format{formatter.FormatMarkdown},
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Written != 1 || result.Failed != 1 {
			t.Errorf("expected 1 written and 1 failed, got %d/%d", result.Written, result.Failed)
		}
		for _, f := range result.Files {
			if f.Listing == "catalog" && f.Error == "" {
				t.Error("expected catalog.md to carry an error")
			}
		}
	})

	t.Run("repeated cursor stops paging", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			ListMusicFunc: func(context.Context, string, int, *models.Cursor) (*models.CatalogPage, error) {
				return &models.CatalogPage{Items: albums[:1], Cursor: models.NewCursor(json.RawMessage(`"k1"`))}, nil
			},
		}
		lib, _, _ := libraryOpts(t, catalog)
		dir := filepath.Join(t.TempDir(), "out")

		_, err := Snapshot(context.Background(), nil, lib, SnapshotOpts{OutputDir: dir})
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if catalog.Calls("ListMusic") != 2 {
			t.Errorf("expected paging to stop after the repeat, got %d calls", catalog.Calls("ListMusic"))
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Error("expected no output directory")
		}
	})

	t.Run("cancelled context stops paging", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		catalog := threePages()
		inner := catalog.ListMusicFunc
		catalog.ListMusicFunc = func(ctx context.Context, token string, limit int, cursor *models.Cursor) (*models.CatalogPage, error) {
			page, err := inner(ctx, token, limit, cursor)
			cancel()
			return page, err
		}
		lib, _, _ := libraryOpts(t, catalog)

		_, err := Snapshot(ctx, nil, lib, SnapshotOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if catalog.Calls("ListMusic") != 1 {
			t.Errorf("expected paging to stop after one page, got %d calls", catalog.Calls("ListMusic"))
		}
	})
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{FetchCatalog, "fetch_catalog"},
		{FetchSubscriptions, "fetch_subscriptions"},
		{WriteFiles, "write_files"},
		{Phase(99), ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.phase.String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
