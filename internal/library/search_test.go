package library

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/shared"
)

// searchCatalog pages like pagedCatalog and answers /music/query with one album per supplied field.
func searchCatalog(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/music/query" {
		pagedCatalog(w, r)
		return
	}
	if r.URL.Query().Get("artist") != "" {
		write(w, http.StatusOK, `[{"composite_id":"S-artist"}]`)
		return
	}
	write(w, http.StatusOK, `{"items":[],"lastEvaluatedKey":"ignored"}`)
}

func TestSearchFilter(t *testing.T) {
	ctx := context.Background()

	t.Run("title only", func(t *testing.T) {
		h := newHarness(t, "tok", searchCatalog)
		pager := h.view.Pager()
		pager.FetchFirstPage(ctx)

		if err := h.view.Search(ctx, models.SearchQuery{Title: "abc", Artist: " ", Year: ""}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		uris := h.log.all()
		if uris[len(uris)-1] != "/music/query?title=abc" {
			t.Errorf("expected exactly /music/query?title=abc, got %s", uris[len(uris)-1])
		}
		if len(pager.Items()) != 0 {
			t.Errorf("expected empty list, got %v", ids(pager.Items()))
		}
		if pager.Cursor() != nil {
			t.Error("expected nil cursor even though the server sent one")
		}
	})

	t.Run("reset law after pagination", func(t *testing.T) {
		h := newHarness(t, "tok", searchCatalog)
		pager := h.view.Pager()
		pager.FetchFirstPage(ctx)
		pager.FetchNextPage(ctx)

		if err := h.view.Search(ctx, models.SearchQuery{Artist: "Muse"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := ids(pager.Items()); !equal(got, []string{"S-artist"}) {
			t.Errorf("expected search results to replace items, got %v", got)
		}
		if pager.HasMore() {
			t.Error("expected no further pages after a search")
		}

		sent := h.log.count()
		h.view.LoadMore(ctx)
		if h.log.count() != sent {
			t.Error("load more after a search must not issue a request")
		}
	})

	t.Run("values are trimmed", func(t *testing.T) {
		h := newHarness(t, "tok", searchCatalog)
		h.view.Search(ctx, models.SearchQuery{Album: "  Absolution ", Year: " 2003"})

		if uris := h.log.all(); len(uris) != 1 || uris[0] != "/music/query?album=Absolution&year=2003" {
			t.Errorf("unexpected request %v", uris)
		}
	})

	t.Run("blank query loads the first page", func(t *testing.T) {
		h := newHarness(t, "tok", searchCatalog)
		if err := h.view.Search(ctx, models.SearchQuery{Title: "   "}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if uris := h.log.all(); len(uris) != 1 || uris[0] != "/music?limit=12" {
			t.Errorf("expected first page request, got %v", uris)
		}
		if !h.view.HasMore() {
			t.Error("expected the first page cursor to be kept")
		}
	})

	t.Run("no token", func(t *testing.T) {
		h := newHarness(t, "", searchCatalog)
		if err := h.view.Search(ctx, models.SearchQuery{Title: "abc"}); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if h.log.count() != 0 {
			t.Errorf("expected zero requests, got %v", h.log.all())
		}
	})

	t.Run("401 ends the session", func(t *testing.T) {
		h := newHarness(t, "tok", func(w http.ResponseWriter, r *http.Request) {
			write(w, http.StatusUnauthorized, `{"message":"expired"}`)
		})
		if err := h.view.Search(ctx, models.SearchQuery{Title: "abc"}); !errors.Is(err, shared.ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
		assertLoggedOut(t, h)
		if h.view.State() != StateUnauthenticated {
			t.Errorf("expected unauthenticated state, got %s", h.view.State())
		}
	})

	t.Run("overlapping searches apply in arrival order", func(t *testing.T) {
		release := make(chan struct{})
		h := newHarness(t, "tok", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("title") == "slow" {
				<-release
				write(w, http.StatusOK, `{"items":[{"composite_id":"slow"}]}`)
				return
			}
			write(w, http.StatusOK, `{"items":[{"composite_id":"fast"}]}`)
		})

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.view.Search(ctx, models.SearchQuery{Title: "slow"})
		}()

		deadline := time.Now().Add(2 * time.Second)
		for h.log.count() == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}

		if err := h.view.Search(ctx, models.SearchQuery{Title: "fast"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(release)
		wg.Wait()

		if got := ids(h.view.Items()); !equal(got, []string{"slow"}) {
			t.Errorf("expected the later arrival to win, got %v", got)
		}
	})
}
