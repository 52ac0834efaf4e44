package library

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/shared"
	tu "github.com/desertthunder/crate/internal/testing"
)

// pagedCatalog serves two pages: A,B with cursor "k1", then C with a null cursor.
func pagedCatalog(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("last_evaluated_key") {
	case "":
		write(w, http.StatusOK, `{"items":[{"composite_id":"A"},{"composite_id":"B"}],"lastEvaluatedKey":"k1"}`)
	case `"k1"`:
		write(w, http.StatusOK, `{"items":[{"composite_id":"C"}],"lastEvaluatedKey":null}`)
	default:
		write(w, http.StatusBadRequest, `{"message":"unknown cursor"}`)
	}
}

func TestCatalogPager(t *testing.T) {
	ctx := context.Background()

	t.Run("no token issues no request", func(t *testing.T) {
		h := newHarness(t, "", pagedCatalog)
		pager := h.view.Pager()

		if err := pager.FetchFirstPage(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if h.log.count() != 0 {
			t.Errorf("expected zero requests, got %v", h.log.all())
		}
		if h.nav.Last() != LoginPath {
			t.Errorf("expected redirect to login, got %v", h.nav.Paths())
		}
	})

	t.Run("first page", func(t *testing.T) {
		h := newHarness(t, "tok", pagedCatalog)
		pager := h.view.Pager()

		if err := pager.FetchFirstPage(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if uris := h.log.all(); len(uris) != 1 || uris[0] != "/music?limit=12" {
			t.Errorf("expected exactly /music?limit=12, got %v", uris)
		}
		if got := ids(pager.Items()); !equal(got, []string{"A", "B"}) {
			t.Errorf("expected [A B], got %v", got)
		}
		if len(pager.Items()) > pager.PageSize() {
			t.Errorf("expected at most %d items", pager.PageSize())
		}
		if c := pager.Cursor(); c == nil || c.String() != `"k1"` {
			t.Errorf("expected cursor \"k1\", got %v", c)
		}
		if !pager.HasMore() {
			t.Error("expected more pages")
		}
	})

	t.Run("next page appends and replaces cursor", func(t *testing.T) {
		h := newHarness(t, "tok", pagedCatalog)
		pager := h.view.Pager()

		pager.FetchFirstPage(ctx)
		if err := pager.FetchNextPage(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		uris := h.log.all()
		if len(uris) != 2 || uris[1] != "/music?limit=12&last_evaluated_key=%22k1%22" {
			t.Errorf("unexpected requests %v", uris)
		}
		if got := ids(pager.Items()); !equal(got, []string{"A", "B", "C"}) {
			t.Errorf("expected [A B C], got %v", got)
		}
		if pager.HasMore() {
			t.Error("expected terminal cursor")
		}
	})

	t.Run("exhausted cursor is idempotent", func(t *testing.T) {
		h := newHarness(t, "tok", pagedCatalog)
		pager := h.view.Pager()

		pager.FetchFirstPage(ctx)
		pager.FetchNextPage(ctx)
		before := ids(pager.Items())
		sent := h.log.count()

		for range 3 {
			if err := pager.FetchNextPage(ctx); err != nil {
				t.Fatalf("expected no-op, got %v", err)
			}
		}
		if h.log.count() != sent {
			t.Errorf("expected no further requests, got %v", h.log.all())
		}
		if !equal(ids(pager.Items()), before) {
			t.Errorf("expected items unchanged, got %v", ids(pager.Items()))
		}
	})

	t.Run("next page before first page is a no-op", func(t *testing.T) {
		h := newHarness(t, "tok", pagedCatalog)
		if err := h.view.Pager().FetchNextPage(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.log.count() != 0 {
			t.Errorf("expected zero requests, got %v", h.log.all())
		}
	})

	t.Run("structured cursor round trips", func(t *testing.T) {
		h := newHarness(t, "tok", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Has("last_evaluated_key") {
				write(w, http.StatusOK, `{"items":[{"composite_id":"Z"}]}`)
				return
			}
			write(w, http.StatusOK, `{"items":[{"composite_id":"Y"}],"lastEvaluatedKey":{"composite_id":"Y","artist":"X"}}`)
		})
		pager := h.view.Pager()

		pager.FetchFirstPage(ctx)
		pager.FetchNextPage(ctx)

		want := "/music?limit=12&last_evaluated_key=" + models.Cursor(`{"composite_id":"Y","artist":"X"}`).Encode()
		if uris := h.log.all(); len(uris) != 2 || uris[1] != want {
			t.Errorf("expected %s, got %v", want, uris)
		}
		if pager.HasMore() {
			t.Error("absent lastEvaluatedKey should end paging")
		}
	})

	t.Run("configured page size", func(t *testing.T) {
		h := newHarness(t, "tok", pagedCatalog)
		pager := NewCatalogPager(Opts{Catalog: h.view.pager.catalog, Session: h.session, PageSize: 5})

		pager.FetchFirstPage(ctx)
		if uris := h.log.all(); len(uris) != 1 || uris[0] != "/music?limit=5" {
			t.Errorf("expected /music?limit=5, got %v", uris)
		}
	})

	t.Run("any failure ends the session", func(t *testing.T) {
		tc := []struct {
			name   string
			status int
			body   string
		}{
			{name: "unauthorized", status: http.StatusUnauthorized, body: `{"message":"expired"}`},
			{name: "server error", status: http.StatusInternalServerError, body: `{"message":"boom"}`},
			{name: "malformed body", status: http.StatusOK, body: `{"items": [`},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				h := newHarness(t, "tok", func(w http.ResponseWriter, r *http.Request) {
					write(w, tt.status, tt.body)
				})

				err := h.view.Pager().FetchFirstPage(ctx)
				if !errors.Is(err, shared.ErrSessionExpired) {
					t.Fatalf("expected ErrSessionExpired, got %v", err)
				}
				assertLoggedOut(t, h)
			})
		}
	})

	t.Run("transport failure ends the session", func(t *testing.T) {
		kv := tu.NewMemoryKV()
		session := NewSessionStore(kv, nil)
		session.Save(ctx, models.Session{Token: "tok"})
		nav := &tu.RecordingNavigator{}
		catalog := &tu.MockCatalog{
			ListMusicFunc: func(context.Context, string, int, *models.Cursor) (*models.CatalogPage, error) {
				return nil, fmt.Errorf("%w: connection refused", shared.ErrTransport)
			},
		}

		pager := NewCatalogPager(Opts{Catalog: catalog, Session: session, Navigator: nav})
		err := pager.FetchFirstPage(ctx)
		if !errors.Is(err, shared.ErrSessionExpired) || !errors.Is(err, shared.ErrTransport) {
			t.Fatalf("expected session expiry caused by transport, got %v", err)
		}
		if session.Token() != "" || len(kv.Keys()) != 0 {
			t.Error("expected session to be cleared")
		}
		if nav.Last() != LoginPath {
			t.Errorf("expected redirect, got %v", nav.Paths())
		}
	})

	t.Run("requests stop after expiry", func(t *testing.T) {
		var calls atomic.Int32
		h := newHarness(t, "tok", func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				pagedCatalog(w, r)
				return
			}
			write(w, http.StatusUnauthorized, `{}`)
		})
		pager := h.view.Pager()

		pager.FetchFirstPage(ctx)
		if err := pager.FetchNextPage(ctx); !errors.Is(err, shared.ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
		assertLoggedOut(t, h)

		sent := h.log.count()
		if err := pager.FetchNextPage(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated after expiry, got %v", err)
		}
		if h.log.count() != sent {
			t.Error("expected no request without a token")
		}
	})
}
