package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/crate/internal/shared"
)

// subsBackend keeps a server-side subscription set and falls back to pagedCatalog for catalog paths.
type subsBackend struct {
	mu           sync.Mutex
	subs         map[string]bool
	listStatus   int
	toggleStatus int
}

func newSubsBackend(ids ...string) *subsBackend {
	b := &subsBackend{subs: make(map[string]bool)}
	for _, id := range ids {
		b.subs[id] = true
	}
	return b
}

func (b *subsBackend) handle(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.URL.Path {
	case "/subscriptions":
		if b.listStatus != 0 {
			write(w, b.listStatus, `{"message":"list failed"}`)
			return
		}
		keys := make([]string, 0, len(b.subs))
		for id := range b.subs {
			keys = append(keys, fmt.Sprintf(`{"composite_id":%q}`, id))
		}
		sort.Strings(keys)
		write(w, http.StatusOK, `{"albums":[`+strings.Join(keys, ",")+`]}`)
	case "/subscribe":
		if b.toggleStatus != 0 {
			write(w, b.toggleStatus, `{"message":"toggle failed"}`)
			return
		}
		var body struct {
			CompositeID string `json:"composite_id"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if b.subs[body.CompositeID] {
			delete(b.subs, body.CompositeID)
			write(w, http.StatusOK, `{"message":"Unsubscribed"}`)
			return
		}
		b.subs[body.CompositeID] = true
		write(w, http.StatusOK, `{"message":"Subscribed"}`)
	default:
		pagedCatalog(w, r)
	}
}

func TestSubscriptionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadAll replaces the set", func(t *testing.T) {
		backend := newSubsBackend("A", "B")
		h := newHarness(t, "tok", backend.handle)
		subs := h.view.Subscriptions()

		if err := subs.LoadAll(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !subs.IsSubscribed("A") || !subs.IsSubscribed("B") || subs.IsSubscribed("C") {
			t.Errorf("unexpected membership, items %v", ids(subs.Items()))
		}

		backend.mu.Lock()
		delete(backend.subs, "A")
		backend.mu.Unlock()

		subs.LoadAll(ctx)
		if subs.IsSubscribed("A") || subs.Len() != 1 {
			t.Errorf("expected set rebuilt in full, got %v", ids(subs.Items()))
		}
	})

	t.Run("LoadAll non-401 failure keeps the set", func(t *testing.T) {
		backend := newSubsBackend("A")
		h := newHarness(t, "tok", backend.handle)
		subs := h.view.Subscriptions()
		subs.LoadAll(ctx)

		backend.mu.Lock()
		backend.listStatus = http.StatusInternalServerError
		backend.mu.Unlock()
		if err := subs.LoadAll(ctx); err == nil || errors.Is(err, shared.ErrSessionExpired) {
			t.Fatalf("expected plain failure, got %v", err)
		}
		if !subs.IsSubscribed("A") {
			t.Error("expected previous set to survive")
		}
		if h.session.Token() == "" || len(h.nav.Paths()) != 0 {
			t.Error("expected session kept and no redirect")
		}
	})

	t.Run("LoadAll 401 ends the session", func(t *testing.T) {
		backend := newSubsBackend()
		backend.listStatus = http.StatusUnauthorized
		h := newHarness(t, "tok", backend.handle)

		if err := h.view.Subscriptions().LoadAll(ctx); !errors.Is(err, shared.ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
		assertLoggedOut(t, h)
	})

	t.Run("toggle reflects the server", func(t *testing.T) {
		backend := newSubsBackend("A")
		h := newHarness(t, "tok", backend.handle)
		subs := h.view.Subscriptions()
		subs.LoadAll(ctx)

		if err := subs.Toggle(ctx, "C"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !subs.IsSubscribed("C") {
			t.Error("expected C after subscribe")
		}

		if err := subs.Toggle(ctx, "A"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if subs.IsSubscribed("A") {
			t.Error("expected A removed after unsubscribe")
		}

		uris := h.log.all()
		want := []string{"/subscriptions", "/subscribe", "/subscriptions", "/subscribe", "/subscriptions"}
		if !equal(uris, want) {
			t.Errorf("expected each toggle to be followed by a reload, got %v", uris)
		}
		if msgs := h.notes.Messages(); !equal(msgs, []string{"Subscribed", "Unsubscribed"}) {
			t.Errorf("expected server messages, got %v", msgs)
		}
	})

	t.Run("toggle is not optimistic", func(t *testing.T) {
		backend := newSubsBackend()
		h := newHarness(t, "tok", backend.handle)
		subs := h.view.Subscriptions()

		backend.mu.Lock()
		backend.toggleStatus = http.StatusInternalServerError
		backend.mu.Unlock()
		err := subs.Toggle(ctx, "A")
		if !errors.Is(err, shared.ErrSubscriptionAction) {
			t.Fatalf("expected ErrSubscriptionAction, got %v", err)
		}
		if subs.IsSubscribed("A") {
			t.Error("failed toggle must not change membership")
		}
		if msgs := h.notes.Messages(); !equal(msgs, []string{MsgSubscribeFailed}) {
			t.Errorf("expected failure message, got %v", msgs)
		}
		if h.session.Token() == "" || len(h.nav.Paths()) != 0 {
			t.Error("non-401 failure must not end the session")
		}
	})

	t.Run("toggle 401", func(t *testing.T) {
		backend := newSubsBackend("A")
		h := newHarness(t, "tok", backend.handle)
		subs := h.view.Subscriptions()
		subs.LoadAll(ctx)

		backend.mu.Lock()
		backend.toggleStatus = http.StatusUnauthorized
		backend.mu.Unlock()
		if err := subs.Toggle(ctx, "A"); !errors.Is(err, shared.ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
		assertLoggedOut(t, h)
		if !subs.IsSubscribed("A") {
			t.Error("expected set unchanged")
		}
		if msgs := h.notes.Messages(); !equal(msgs, []string{MsgSessionExpired}) {
			t.Errorf("expected session expired message, got %v", msgs)
		}
	})

	t.Run("toggle guards", func(t *testing.T) {
		tc := []struct {
			name    string
			token   string
			id      string
			wantErr error
			wantMsg string
			wantNav bool
		}{
			{name: "empty id", token: "tok", id: "", wantErr: shared.ErrInvalidInput, wantMsg: MsgInvalidAlbum},
			{name: "no token", token: "", id: "A", wantErr: shared.ErrNotAuthenticated, wantMsg: MsgLoginAgain, wantNav: true},
			{name: "no token and empty id", token: "", id: "", wantErr: shared.ErrNotAuthenticated, wantMsg: MsgLoginAgain, wantNav: true},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				h := newHarness(t, tt.token, newSubsBackend().handle)

				err := h.view.Subscriptions().Toggle(ctx, tt.id)
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if h.log.count() != 0 {
					t.Errorf("expected zero requests, got %v", h.log.all())
				}
				if msgs := h.notes.Messages(); !equal(msgs, []string{tt.wantMsg}) {
					t.Errorf("expected %q, got %v", tt.wantMsg, msgs)
				}
				if got := h.nav.Last() == LoginPath; got != tt.wantNav {
					t.Errorf("expected redirect=%v, got %v", tt.wantNav, h.nav.Paths())
				}
			})
		}
	})
}
