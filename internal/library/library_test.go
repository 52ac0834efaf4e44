package library

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/services"
	tu "github.com/desertthunder/crate/internal/testing"
)

// requestLog records the request URI of every call that reaches a test server.
type requestLog struct {
	mu   sync.Mutex
	uris []string
}

func (l *requestLog) add(uri string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.uris = append(l.uris, uri)
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.uris...)
}

func (l *requestLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.uris)
}

type harness struct {
	view    *ViewController
	session *SessionStore
	kv      *tu.MemoryKV
	nav     *tu.RecordingNavigator
	notes   *tu.RecordingNotifier
	log     *requestLog
}

// newHarness starts an httptest server with h and wires a view against it. A non-empty token is
// persisted and loaded before the harness is returned.
func newHarness(t *testing.T, token string, h http.HandlerFunc) *harness {
	t.Helper()

	rl := &requestLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rl.add(r.URL.RequestURI())
		h(w, r)
	}))
	t.Cleanup(server.Close)

	kv := tu.NewMemoryKV()
	session := NewSessionStore(kv, nil)
	if token != "" {
		if err := session.Save(context.Background(), models.Session{Token: token, User: models.User{UserName: "tester"}}); err != nil {
			t.Fatalf("failed to seed session: %v", err)
		}
	}

	nav := &tu.RecordingNavigator{}
	notes := &tu.RecordingNotifier{}
	view := NewViewController(Opts{
		Catalog:   services.NewClient(services.ClientOpts{BaseURL: server.URL}),
		Session:   session,
		Navigator: nav,
		Notifier:  notes,
	})

	return &harness{view: view, session: session, kv: kv, nav: nav, notes: notes, log: rl}
}

// write sends status and body as JSON.
func write(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func assertLoggedOut(t *testing.T, h *harness) {
	t.Helper()
	if h.session.Token() != "" {
		t.Errorf("expected cached token to be cleared, got %q", h.session.Token())
	}
	if keys := h.kv.Keys(); len(keys) != 0 {
		t.Errorf("expected persisted session to be cleared, got keys %v", keys)
	}
	if h.nav.Last() != LoginPath {
		t.Errorf("expected redirect to %s, got %v", LoginPath, h.nav.Paths())
	}
}

func ids(albums []models.Album) []string {
	out := make([]string, len(albums))
	for i, a := range albums {
		out[i] = a.CompositeID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
